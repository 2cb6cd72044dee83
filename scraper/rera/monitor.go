package rera

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"realty-automation/models"
	"realty-automation/utils"
)

// StopReason says why a monitor run reached TERMINAL.
type StopReason string

const (
	StopCheckpoint StopReason = "checkpoint"
	StopExhausted  StopReason = "exhausted"
	StopMaxPages   StopReason = "max_pages"
)

// Result is the outcome of one monitor run.
type Result struct {
	RunID    string
	Projects []*models.Project
	// Failed lists registration ids whose details could not be extracted.
	Failed []string
	// HighWaterMark is the first registration id seen in this run, empty
	// when the table never showed a row.
	HighWaterMark string
	Reason        StopReason
	Passes        int
}

// Monitor walks the sorted listing from the top until it meets the stored
// checkpoint, extracting every project above it.
type Monitor struct {
	portal   Portal
	logger   *utils.Logger
	maxPages int
	now      func() time.Time
}

// NewMonitor returns a Monitor. maxPages bounds how many pages are walked
// past without finding a new row; zero or less means 50.
func NewMonitor(portal Portal, maxPages int, logger *utils.Logger) *Monitor {
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Monitor{portal: portal, logger: logger, maxPages: maxPages, now: time.Now}
}

// Run executes one scrape. Errors returned are fatal; per-row extraction
// failures are reported in Result.Failed instead.
func (m *Monitor) Run(ctx context.Context, checkpoint string) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	processed := utils.NewIDSet()

	m.logger.Info("[rera] Run %s starting from checkpoint %s", res.RunID, checkpoint)
	if err := m.portal.Open(ctx); err != nil {
		return res, eris.Wrap(err, "rera: open portal")
	}

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "rera: run cancelled")
		}
		if err := m.ensureListing(ctx); err != nil {
			return res, err
		}

		rows, err := m.portal.Rows(ctx)
		if err != nil {
			return res, eris.Wrap(err, "rera: read listing rows")
		}
		res.Passes++

		if len(rows) == 0 {
			m.logger.Info("[rera] No rows found, stopping")
			res.Reason = StopExhausted
			break
		}

		row, found := m.nextUnprocessed(rows, processed)
		if found {
			if res.HighWaterMark == "" {
				res.HighWaterMark = row.RegistrationID
				m.logger.Info("[rera] Newest registration id this run: %s", row.RegistrationID)
			}
			if row.RegistrationID == checkpoint {
				m.logger.Info("[rera] Found stored identifier %s, stopping", checkpoint)
				res.Reason = StopCheckpoint
				break
			}

			processed.Add(row.RegistrationID)
			project, err := m.extract(ctx, row)
			if err != nil {
				m.logger.Warn("[rera] Could not extract details for %s: %v", row.RegistrationID, err)
				res.Failed = append(res.Failed, row.RegistrationID)
			} else {
				res.Projects = append(res.Projects, project)
				m.logger.Info("[rera] Added project %s (%s)", project.ProjectName, project.RegistrationID)
			}
			// Back navigation may reset the table, so always start a fresh pass.
			page = 1
			continue
		}

		if page >= m.maxPages {
			m.logger.Warn("[rera] Walked %d pages without a new row, stopping", page)
			res.Reason = StopMaxPages
			break
		}
		more, err := m.portal.NextPage(ctx)
		if err != nil {
			return res, err
		}
		if !more {
			m.logger.Info("[rera] Last page reached, stopping")
			res.Reason = StopExhausted
			break
		}
		page++
		m.logger.Debug("[rera] Moved to page %d", page)
	}

	m.logger.Info("[rera] Run %s finished (%s): %d new, %d failed, %d passes",
		res.RunID, res.Reason, len(res.Projects), len(res.Failed), res.Passes)
	return res, nil
}

func (m *Monitor) nextUnprocessed(rows []models.ListingRow, processed *utils.IDSet) (models.ListingRow, bool) {
	for _, row := range rows {
		if row.RegistrationID == "" || processed.Contains(row.RegistrationID) {
			continue
		}
		return row, true
	}
	return models.ListingRow{}, false
}

// ensureListing brings the UI to LISTING from wherever it is. It is safe
// to call in any state.
func (m *Monitor) ensureListing(ctx context.Context) error {
	state, err := m.portal.State(ctx)
	if err != nil {
		return eris.Wrap(err, "rera: detect page state")
	}

	switch state {
	case StateListing:
		return nil
	case StateDetail:
		m.logger.Info("[rera] Still on a detail page, navigating back")
		if err := m.portal.Back(ctx); err != nil {
			return eris.Wrap(err, "rera: leave detail page")
		}
		if state, err = m.portal.State(ctx); err != nil {
			return eris.Wrap(err, "rera: detect page state")
		}
		if state == StateListing {
			return nil
		}
	}

	m.logger.Info("[rera] On the search page, applying filters")
	if err := m.portal.ApplyFilters(ctx); err != nil {
		return eris.Wrap(err, "rera: apply filters")
	}
	if state, err = m.portal.State(ctx); err != nil {
		return eris.Wrap(err, "rera: detect page state")
	}
	if state != StateListing {
		return eris.Errorf("rera: expected %s after filtering, got %s", StateListing, state)
	}
	return nil
}

func (m *Monitor) extract(ctx context.Context, row models.ListingRow) (*models.Project, error) {
	m.logger.Info("[rera] Processing project: %s (Reg: %s)", row.ProjectName, row.RegistrationID)

	if err := m.portal.OpenDetail(ctx, row); err != nil {
		m.leaveDetail(ctx)
		return nil, err
	}

	project, err := m.portal.Detail(ctx, row)
	m.leaveDetail(ctx)
	if err != nil {
		return nil, err
	}
	project.DiscoveredAt = m.now()
	return project, nil
}

// leaveDetail navigates back unless the listing is already showing.
// Failures are left for ensureListing on the next pass.
func (m *Monitor) leaveDetail(ctx context.Context) {
	if state, err := m.portal.State(ctx); err == nil && state == StateListing {
		return
	}
	if err := m.portal.Back(ctx); err != nil {
		m.logger.Warn("[rera] Navigating back failed: %v", err)
	}
}
