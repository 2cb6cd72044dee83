package services

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"realty-automation/models"
	"realty-automation/notify"
	"realty-automation/scraper/rera"
	"realty-automation/storage"
	"realty-automation/utils"
)

// CheckpointStore loads and saves the monitor's high-water mark.
type CheckpointStore interface {
	Load() (string, error)
	Save(identifier string) error
}

// Scanner performs one walk of the portal listing.
type Scanner interface {
	Run(ctx context.Context, checkpoint string) (*rera.Result, error)
}

// MonitorDeps are the collaborators of a MonitorRunner. Archive, Notifier
// and Out may be nil.
type MonitorDeps struct {
	Checkpoints CheckpointStore
	Scanner     Scanner
	Archive     storage.Archive
	Notifier    notify.Notifier
	Logger      *utils.Logger
	Out         io.Writer
}

// MonitorRunner runs one monitor pass end to end: checkpoint, scrape,
// archive, digest and delivery.
type MonitorRunner struct {
	checkpoints CheckpointStore
	scanner     Scanner
	archive     storage.Archive
	notifier    notify.Notifier
	cleaner     *Cleaner
	reports     *ReportService
	subject     string
	dryRun      bool
	out         io.Writer
	logger      *utils.Logger
}

// NewMonitorRunner wires the runner. In dry-run mode the checkpoint is left
// untouched and the digest is printed instead of delivered.
func NewMonitorRunner(subject string, dryRun bool, deps MonitorDeps) *MonitorRunner {
	archive := deps.Archive
	if archive == nil {
		archive = storage.NopArchive{}
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &MonitorRunner{
		checkpoints: deps.Checkpoints,
		scanner:     deps.Scanner,
		archive:     archive,
		notifier:    deps.Notifier,
		cleaner:     NewCleaner(deps.Logger),
		reports:     NewReportService(deps.Logger),
		subject:     subject,
		dryRun:      dryRun,
		out:         out,
		logger:      deps.Logger,
	}
}

// Run returns the digest it produced. A scrape error is fatal and nothing
// is saved or sent. Archive problems are logged only; a delivery failure is
// returned after the checkpoint has already moved.
func (r *MonitorRunner) Run(ctx context.Context) (*models.Digest, *models.MonitorReport, error) {
	checkpoint, err := r.checkpoints.Load()
	if err != nil {
		return nil, nil, eris.Wrap(err, "monitor: load checkpoint")
	}

	res, err := r.scanner.Run(ctx, checkpoint)
	if err != nil {
		return nil, nil, eris.Wrap(err, "monitor: scrape")
	}

	projects := r.cleaner.Clean(res.Projects)
	report := &models.MonitorReport{
		RunID:              res.RunID,
		Reason:             string(res.Reason),
		PreviousCheckpoint: checkpoint,
		NewCheckpoint:      res.HighWaterMark,
		Failed:             res.Failed,
		Passes:             res.Passes,
	}

	switch {
	case res.HighWaterMark == "":
		r.logger.Warn("[monitor] No rows seen, checkpoint stays %s", checkpoint)
	case r.dryRun:
		r.logger.Info("[monitor] Dry run, checkpoint %s not saved", res.HighWaterMark)
	default:
		if err := r.checkpoints.Save(res.HighWaterMark); err != nil {
			return nil, nil, eris.Wrap(err, "monitor: save checkpoint")
		}
		report.CheckpointSaved = true
		r.logger.Info("[monitor] Checkpoint updated to %s", res.HighWaterMark)
	}

	if len(projects) > 0 && !r.dryRun {
		if err := r.archive.SaveProjects(ctx, res.RunID, projects); err != nil {
			r.logger.Warn("[monitor] Could not archive projects: %v", err)
		}
	}

	for _, id := range res.Failed {
		r.logger.Warn("[monitor] Details missing for %s", id)
	}

	digest := BuildDigest(r.subject, projects, res.Failed)
	r.reports.Generate(report, projects)

	if r.dryRun || r.notifier == nil {
		fmt.Fprintf(r.out, "%s\n\n%s\n", digest.Subject, digest.Text)
	} else if err := r.notifier.Notify(ctx, digest); err != nil {
		r.reports.PrintMonitorReport(r.out, report)
		return &digest, report, eris.Wrap(err, "monitor: deliver digest")
	} else {
		r.logger.Info("[monitor] Digest delivered (%d projects)", digest.Projects)
	}

	r.reports.PrintMonitorReport(r.out, report)
	return &digest, report, nil
}
