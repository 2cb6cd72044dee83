package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/storage"
	"realty-automation/utils"
)

// Mailer transmits one rendered email.
type Mailer interface {
	Send(ctx context.Context, email models.Email) error
}

// AuthSessionProvider establishes an authenticated webmail session.
type AuthSessionProvider interface {
	Load(ctx context.Context) bool
	Save(ctx context.Context) error
	InteractiveLogin(ctx context.Context) bool
}

// Campaign sends one lead-registration email per valid lead.
type Campaign struct {
	cfg      config.OutreachConfig
	mailer   Mailer
	auth     AuthSessionProvider
	prompter utils.Prompter
	pacer    *utils.Pacer
	tmpl     *LeadTemplate
	archive  storage.Archive
	report   storage.ReportWriter
	out      io.Writer
	logger   *utils.Logger
	now      func() time.Time
}

// CampaignDeps are the collaborators of a Campaign. Archive and Report may
// be nil.
type CampaignDeps struct {
	Mailer   Mailer
	Auth     AuthSessionProvider
	Prompter utils.Prompter
	Archive  storage.Archive
	Report   storage.ReportWriter
	Out      io.Writer
	Logger   *utils.Logger
}

// NewCampaign validates the templates and wires the collaborators.
func NewCampaign(cfg config.OutreachConfig, deps CampaignDeps) (*Campaign, error) {
	tmpl, err := NewLeadTemplate(cfg.Subject, cfg.BodyTemplate)
	if err != nil {
		return nil, err
	}
	archive := deps.Archive
	if archive == nil {
		archive = storage.NopArchive{}
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &Campaign{
		cfg:      cfg,
		mailer:   deps.Mailer,
		auth:     deps.Auth,
		prompter: deps.Prompter,
		pacer:    utils.NewPacer(cfg.Delay()),
		tmpl:     tmpl,
		archive:  archive,
		report:   deps.Report,
		out:      out,
		logger:   deps.Logger,
		now:      time.Now,
	}, nil
}

// Prepare restores a saved session if there is one and makes sure the
// webmail UI is logged in.
func (c *Campaign) Prepare(ctx context.Context) error {
	if c.auth.Load(ctx) {
		c.logger.Info("[outreach] Attempting to use saved session...")
	}
	if !c.auth.InteractiveLogin(ctx) {
		return eris.New("outreach: failed to log in to webmail")
	}
	return nil
}

// Confirm shows the campaign settings and waits for the operator.
func (c *Campaign) Confirm(leadsPath string) error {
	utils.Banner(c.out, "READY TO START EMAIL CAMPAIGN")
	fmt.Fprintf(c.out, "Leads file: %s\n", leadsPath)
	fmt.Fprintf(c.out, "From: %s\n", c.cfg.SenderEmail)
	fmt.Fprintf(c.out, "To: %s\n", strings.Join(c.cfg.To, ", "))
	fmt.Fprintf(c.out, "CC: %s\n", strings.Join(c.cfg.Cc, ", "))
	fmt.Fprintf(c.out, "Delay: %d seconds between emails\n", c.cfg.DelaySecs)
	return c.prompter.Confirm("Ready to start sending emails?")
}

// Run sends to every valid lead in order. Rows missing a name or phone are
// counted as failed without a send attempt; a failed send never stops the
// run. Only context cancellation ends it early.
func (c *Campaign) Run(ctx context.Context, leads []models.Lead) (*models.CampaignSummary, error) {
	summary := &models.CampaignSummary{RunID: uuid.NewString()}
	c.logger.Info("[outreach] Run %s: %d rows", summary.RunID, len(leads))

	var runErr error
	attempted := false
	for _, lead := range leads {
		summary.Total++

		if !lead.Valid() {
			c.logger.Warn("[outreach] Row %d: missing name or phone number, skipping", lead.Row)
			summary.Failed++
			summary.Results = append(summary.Results, models.SendResult{
				Lead:   lead,
				Status: models.SendSkipped,
				Err:    eris.Wrapf(models.ErrRowData, "row %d", lead.Row),
				At:     c.now(),
			})
			continue
		}

		if attempted && c.pacer.Interval() > 0 {
			c.logger.Info("[outreach] Waiting %v before next email...", c.pacer.Interval())
		}
		if err := c.pacer.Wait(ctx); err != nil {
			summary.Total--
			runErr = eris.Wrap(err, "outreach: interrupted")
			break
		}
		attempted = true

		result := c.send(ctx, lead)
		c.pacer.Mark()
		if result.Status == models.SendOK {
			summary.Sent++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
	}

	c.persist(ctx, summary)
	return summary, runErr
}

func (c *Campaign) send(ctx context.Context, lead models.Lead) models.SendResult {
	c.logger.Info("[outreach] Processing row %d: %s - %s", lead.Row, lead.Name, lead.Phone)

	email, err := ComposeLeadEmail(c.tmpl, lead, c.cfg.SenderEmail, c.cfg.To, c.cfg.Cc)
	if err == nil {
		err = c.mailer.Send(ctx, email)
	}
	if err != nil {
		c.logger.Error("[outreach] Could not send email for %s: %v", lead.Name, err)
		return models.SendResult{Lead: lead, Status: models.SendFailed, Err: err, At: c.now()}
	}

	c.logger.Info("[outreach] Email sent successfully for %s (%s)", lead.Name, lead.Phone)
	return models.SendResult{Lead: lead, Status: models.SendOK, At: c.now()}
}

// persist stores per-row outcomes. Storage problems are logged; they do
// not change the outcome of a run whose emails already went out.
func (c *Campaign) persist(ctx context.Context, summary *models.CampaignSummary) {
	if err := c.archive.RecordSends(ctx, summary.RunID, summary.Results); err != nil {
		c.logger.Warn("[outreach] Could not archive results: %v", err)
	}
	if c.report == nil {
		return
	}
	if err := c.report.WriteResults(summary.RunID, summary.Results); err != nil {
		c.logger.Warn("[outreach] Could not write report: %v", err)
	}
}

// Finish prints the summary and waits for the operator before the browser
// is closed.
func (c *Campaign) Finish(summary *models.CampaignSummary) error {
	PrintCampaignSummary(c.out, summary)
	return c.prompter.Confirm("All emails processed! Press Enter to close browser")
}
