package storage

import (
	"context"

	"realty-automation/models"
)

// Archive is the interface any run-history backend must satisfy.
type Archive interface {
	SaveProjects(ctx context.Context, runID string, projects []*models.Project) error
	RecordSends(ctx context.Context, runID string, results []models.SendResult) error
	RecentProjects(ctx context.Context, limit int) ([]*models.ArchivedProject, error)
	Close() error
}

// ReportWriter is the interface for persisting per-lead outreach outcomes.
type ReportWriter interface {
	WriteResults(runID string, results []models.SendResult) error
	Close() error
}

// NopArchive discards everything. It is used when no archive is configured.
type NopArchive struct{}

func (NopArchive) SaveProjects(context.Context, string, []*models.Project) error { return nil }

func (NopArchive) RecordSends(context.Context, string, []models.SendResult) error { return nil }

func (NopArchive) RecentProjects(context.Context, int) ([]*models.ArchivedProject, error) {
	return nil, nil
}

func (NopArchive) Close() error { return nil }
