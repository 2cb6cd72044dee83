package models

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrRowData marks a lead row that cannot be sent because a mandatory
// field is missing. Such rows are counted as failed and never retried.
var ErrRowData = eris.New("lead row is missing name or phone")

// Lead is one row of the outreach input sheet.
type Lead struct {
	Row   int // 1-based data row number, header excluded
	Name  string
	Phone string
}

// Valid reports whether both mandatory fields are present.
func (l Lead) Valid() bool {
	return l.Name != "" && l.Phone != ""
}

// Email is a fully rendered outbound message.
type Email struct {
	From    string
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// SendStatus is the outcome of a single lead.
type SendStatus string

const (
	SendOK      SendStatus = "sent"
	SendFailed  SendStatus = "failed"
	SendSkipped SendStatus = "skipped"
)

// SendResult records what happened to one lead.
type SendResult struct {
	Lead   Lead
	Status SendStatus
	Err    error
	At     time.Time
}

// CampaignSummary aggregates one outreach run.
type CampaignSummary struct {
	RunID   string
	Total   int
	Sent    int
	Failed  int
	Results []SendResult
}

// SuccessRate returns sent/total as a percentage, 0 for an empty run.
func (s *CampaignSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Sent) / float64(s.Total) * 100
}
