package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/storage"
)

type fakeMailer struct {
	sent    []models.Email
	failFor map[string]error
}

func (m *fakeMailer) Send(_ context.Context, e models.Email) error {
	m.sent = append(m.sent, e)
	for needle, err := range m.failFor {
		if strings.Contains(e.Body, needle) {
			return err
		}
	}
	return nil
}

type fakeAuth struct {
	restored bool
	loggedIn bool
	logins   int
}

func (a *fakeAuth) Load(context.Context) bool { return a.restored }
func (a *fakeAuth) Save(context.Context) error { return nil }
func (a *fakeAuth) InteractiveLogin(context.Context) bool {
	a.logins++
	return a.loggedIn
}

type countingPrompter struct{ confirms []string }

func (p *countingPrompter) Confirm(msg string) error {
	p.confirms = append(p.confirms, msg)
	return nil
}

type memoryArchive struct {
	storage.NopArchive
	runID   string
	results []models.SendResult
}

func (a *memoryArchive) RecordSends(_ context.Context, runID string, results []models.SendResult) error {
	a.runID = runID
	a.results = results
	return nil
}

type memoryReport struct {
	rows int
}

func (r *memoryReport) WriteResults(_ string, results []models.SendResult) error {
	r.rows += len(results)
	return nil
}

func (r *memoryReport) Close() error { return nil }

func testOutreachConfig() config.OutreachConfig {
	return config.OutreachConfig{
		SenderEmail:  "sender@example.com",
		To:           []string{"lmt@example.com", "kevin@example.com"},
		Cc:           []string{"mohsin@example.com"},
		Subject:      config.DefaultLeadSubject,
		BodyTemplate: config.DefaultLeadBody,
	}
}

func newTestCampaign(t *testing.T, mailer Mailer, auth AuthSessionProvider) (*Campaign, *memoryArchive, *memoryReport, *countingPrompter) {
	t.Helper()
	archive := &memoryArchive{}
	report := &memoryReport{}
	prompter := &countingPrompter{}
	c, err := NewCampaign(testOutreachConfig(), CampaignDeps{
		Mailer:   mailer,
		Auth:     auth,
		Prompter: prompter,
		Archive:  archive,
		Report:   report,
		Out:      &bytes.Buffer{},
		Logger:   newTestLogger(),
	})
	require.NoError(t, err)
	return c, archive, report, prompter
}

func TestCampaign_SendsOncePerValidRow(t *testing.T) {
	mailer := &fakeMailer{}
	c, archive, report, _ := newTestCampaign(t, mailer, &fakeAuth{loggedIn: true})

	leads := []models.Lead{
		{Row: 1, Name: "", Phone: "9876543210"},
		{Row: 2, Name: "Asha", Phone: "9999999999"},
		{Row: 3, Name: "Ravi", Phone: ""},
	}
	summary, err := c.Run(context.Background(), leads)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	email := mailer.sent[0]
	assert.Contains(t, email.Body, "Asha")
	assert.Contains(t, email.Body, "9999999999")
	assert.Equal(t, config.DefaultLeadSubject, email.Subject)
	assert.Equal(t, []string{"lmt@example.com", "kevin@example.com"}, email.To)
	assert.Equal(t, []string{"mohsin@example.com"}, email.Cc)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Results, 3)
	assert.Equal(t, models.SendSkipped, summary.Results[0].Status)
	assert.True(t, errors.Is(summary.Results[0].Err, models.ErrRowData))
	assert.Equal(t, models.SendOK, summary.Results[1].Status)

	assert.Equal(t, summary.RunID, archive.runID)
	assert.Len(t, archive.results, 3)
	assert.Equal(t, 3, report.rows)
}

func TestCampaign_BlankCSVRowCountsAsFailed(t *testing.T) {
	leads, err := storage.ReadLeadsCSV(strings.NewReader("Name,Mobile\n,\nAsha,9999999999\n"), storage.LeadOptions{
		NameColumns:  []string{"Name"},
		PhoneColumns: []string{"Mobile"},
	})
	require.NoError(t, err)

	mailer := &fakeMailer{}
	c, _, _, _ := newTestCampaign(t, mailer, &fakeAuth{loggedIn: true})
	summary, err := c.Run(context.Background(), leads)
	require.NoError(t, err)

	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, models.SendSkipped, summary.Results[0].Status)
}

func TestCampaign_SendFailureDoesNotAbort(t *testing.T) {
	mailer := &fakeMailer{failFor: map[string]error{"Asha": errors.New("compose window did not open")}}
	c, _, _, _ := newTestCampaign(t, mailer, &fakeAuth{loggedIn: true})

	summary, err := c.Run(context.Background(), []models.Lead{
		{Row: 1, Name: "Asha", Phone: "1"},
		{Row: 2, Name: "Ravi", Phone: "2"},
	})
	require.NoError(t, err)

	assert.Len(t, mailer.sent, 2)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, models.SendFailed, summary.Results[0].Status)
	assert.InDelta(t, 50.0, summary.SuccessRate(), 0.001)
}

func TestCampaign_CancelledContextStopsRun(t *testing.T) {
	mailer := &fakeMailer{}
	c, archive, _, _ := newTestCampaign(t, mailer, &fakeAuth{loggedIn: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := c.Run(ctx, []models.Lead{{Row: 1, Name: "Asha", Phone: "1"}})
	require.Error(t, err)
	assert.Empty(t, mailer.sent)
	assert.Zero(t, summary.Total)
	assert.Empty(t, archive.results)
}

func TestCampaign_Prepare(t *testing.T) {
	auth := &fakeAuth{restored: true, loggedIn: true}
	c, _, _, _ := newTestCampaign(t, &fakeMailer{}, auth)
	require.NoError(t, c.Prepare(context.Background()))
	assert.Equal(t, 1, auth.logins)

	c, _, _, _ = newTestCampaign(t, &fakeMailer{}, &fakeAuth{})
	assert.Error(t, c.Prepare(context.Background()))
}

func TestCampaign_ConfirmAndFinishPrompt(t *testing.T) {
	c, _, _, prompter := newTestCampaign(t, &fakeMailer{}, &fakeAuth{loggedIn: true})
	out := c.out.(*bytes.Buffer)

	require.NoError(t, c.Confirm("leads.csv"))
	assert.Contains(t, out.String(), "To: lmt@example.com, kevin@example.com")
	assert.Contains(t, out.String(), "CC: mohsin@example.com")

	require.NoError(t, c.Finish(&models.CampaignSummary{Total: 1, Sent: 1}))
	assert.Contains(t, out.String(), "EMAIL CAMPAIGN SUMMARY")
	assert.Len(t, prompter.confirms, 2)
}

func TestNewCampaign_BadTemplate(t *testing.T) {
	cfg := testOutreachConfig()
	cfg.BodyTemplate = "{{.Name"
	_, err := NewCampaign(cfg, CampaignDeps{Logger: newTestLogger()})
	assert.Error(t, err)
}
