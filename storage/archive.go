package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/utils"
)

// SQLArchive persists discovered projects and outreach outcomes to
// PostgreSQL (lib/pq) or SQLite (modernc).
type SQLArchive struct {
	db      *sql.DB
	dialect string
}

// NewArchive opens the archive selected by cfg. An empty driver returns a
// NopArchive.
func NewArchive(ctx context.Context, cfg config.ArchiveConfig, logger *utils.Logger) (Archive, error) {
	switch cfg.Driver {
	case "":
		return NopArchive{}, nil
	case "postgres", "sqlite":
		return OpenSQLArchive(ctx, cfg.Driver, cfg.DSN, logger)
	default:
		return nil, eris.Errorf("archive: unknown driver %q", cfg.Driver)
	}
}

// OpenSQLArchive opens a connection, waits for the server to answer, runs
// schema migrations, and returns a ready-to-use SQLArchive.
func OpenSQLArchive(ctx context.Context, dialect, dsn string, logger *utils.Logger) (*SQLArchive, error) {
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: open %s", dialect)
	}

	ping := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := ping.Do(ctx, "archive-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "archive: ping")
	}

	a := &SQLArchive{db: db, dialect: dialect}
	if dialect == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
			_ = db.Close()
			return nil, eris.Wrap(err, "archive: sqlite pragma")
		}
	}
	if err := a.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "archive: migrate")
	}
	return a, nil
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS projects (
		id               SERIAL PRIMARY KEY,
		run_id           TEXT        NOT NULL,
		registration_id  TEXT        UNIQUE NOT NULL,
		promoter_name    TEXT        NOT NULL DEFAULT '',
		project_name     TEXT        NOT NULL DEFAULT '',
		address          TEXT        NOT NULL DEFAULT '',
		project_type     TEXT        NOT NULL DEFAULT '',
		project_subtype  TEXT        NOT NULL DEFAULT '',
		total_area       TEXT        NOT NULL DEFAULT '',
		total_units      TEXT        NOT NULL DEFAULT '',
		completion_date  TEXT        NOT NULL DEFAULT '',
		latitude         TEXT        NOT NULL DEFAULT '',
		longitude        TEXT        NOT NULL DEFAULT '',
		covered_parking  TEXT        NOT NULL DEFAULT '',
		total_open_area  TEXT        NOT NULL DEFAULT '',
		total_land_area  TEXT        NOT NULL DEFAULT '',
		tower_count      TEXT        NOT NULL DEFAULT '',
		inventory        TEXT        NOT NULL DEFAULT '[]',
		discovered_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS outreach_sends (
		id      SERIAL PRIMARY KEY,
		run_id  TEXT        NOT NULL,
		row_num INTEGER     NOT NULL,
		name    TEXT        NOT NULL DEFAULT '',
		phone   TEXT        NOT NULL DEFAULT '',
		status  TEXT        NOT NULL,
		error   TEXT        NOT NULL DEFAULT '',
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_projects_run_id       ON projects(run_id);
	CREATE INDEX IF NOT EXISTS idx_outreach_sends_run_id ON outreach_sends(run_id);
`

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS projects (
		id               INTEGER  PRIMARY KEY AUTOINCREMENT,
		run_id           TEXT     NOT NULL,
		registration_id  TEXT     UNIQUE NOT NULL,
		promoter_name    TEXT     NOT NULL DEFAULT '',
		project_name     TEXT     NOT NULL DEFAULT '',
		address          TEXT     NOT NULL DEFAULT '',
		project_type     TEXT     NOT NULL DEFAULT '',
		project_subtype  TEXT     NOT NULL DEFAULT '',
		total_area       TEXT     NOT NULL DEFAULT '',
		total_units      TEXT     NOT NULL DEFAULT '',
		completion_date  TEXT     NOT NULL DEFAULT '',
		latitude         TEXT     NOT NULL DEFAULT '',
		longitude        TEXT     NOT NULL DEFAULT '',
		covered_parking  TEXT     NOT NULL DEFAULT '',
		total_open_area  TEXT     NOT NULL DEFAULT '',
		total_land_area  TEXT     NOT NULL DEFAULT '',
		tower_count      TEXT     NOT NULL DEFAULT '',
		inventory        TEXT     NOT NULL DEFAULT '[]',
		discovered_at    DATETIME NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS outreach_sends (
		id      INTEGER  PRIMARY KEY AUTOINCREMENT,
		run_id  TEXT     NOT NULL,
		row_num INTEGER  NOT NULL,
		name    TEXT     NOT NULL DEFAULT '',
		phone   TEXT     NOT NULL DEFAULT '',
		status  TEXT     NOT NULL,
		error   TEXT     NOT NULL DEFAULT '',
		sent_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_projects_run_id       ON projects(run_id);
	CREATE INDEX IF NOT EXISTS idx_outreach_sends_run_id ON outreach_sends(run_id);
`

func (a *SQLArchive) migrate(ctx context.Context) error {
	schema := postgresSchema
	if a.dialect == "sqlite" {
		schema = sqliteSchema
	}
	_, err := a.db.ExecContext(ctx, schema)
	return err
}

// placeholder returns the n-th (1-based) bind marker for the dialect.
func (a *SQLArchive) placeholder(n int) string {
	if a.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

const projectColumns = 18

// SaveProjects batch-inserts projects. A registration id already in the
// archive is left untouched.
func (a *SQLArchive) SaveProjects(ctx context.Context, runID string, projects []*models.Project) error {
	const batchSize = 50
	for i := 0; i < len(projects); i += batchSize {
		end := i + batchSize
		if end > len(projects) {
			end = len(projects)
		}
		if err := a.insertProjectBatch(ctx, runID, projects[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (a *SQLArchive) insertProjectBatch(ctx context.Context, runID string, batch []*models.Project) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*projectColumns)

	for idx, p := range batch {
		inventory, err := json.Marshal(p.Inventory)
		if err != nil {
			return eris.Wrapf(err, "archive: marshal inventory for %s", p.RegistrationID)
		}
		discovered := p.DiscoveredAt
		if discovered.IsZero() {
			discovered = time.Now()
		}

		marks := make([]string, projectColumns)
		for c := 0; c < projectColumns; c++ {
			marks[c] = a.placeholder(idx*projectColumns + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(marks, ",")+")")
		valueArgs = append(valueArgs,
			runID, p.RegistrationID, p.PromoterName, p.ProjectName, p.Address,
			p.ProjectType, p.ProjectSubtype, p.TotalArea, p.TotalUnits, p.CompletionDate,
			p.Latitude, p.Longitude, p.CoveredParking, p.TotalOpenArea, p.TotalLandArea,
			p.TowerCount, string(inventory), discovered.UTC())
	}

	query := fmt.Sprintf(`
		INSERT INTO projects (run_id, registration_id, promoter_name, project_name, address,
			project_type, project_subtype, total_area, total_units, completion_date,
			latitude, longitude, covered_parking, total_open_area, total_land_area,
			tower_count, inventory, discovered_at)
		VALUES %s
		ON CONFLICT (registration_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := a.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return eris.Wrap(err, "archive: insert projects")
	}
	return nil
}

// RecordSends stores the outcome of every lead of an outreach run.
func (a *SQLArchive) RecordSends(ctx context.Context, runID string, results []models.SendResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "archive: begin")
	}

	query := fmt.Sprintf(
		"INSERT INTO outreach_sends (run_id, row_num, name, phone, status, error, sent_at) VALUES (%s,%s,%s,%s,%s,%s,%s)",
		a.placeholder(1), a.placeholder(2), a.placeholder(3), a.placeholder(4),
		a.placeholder(5), a.placeholder(6), a.placeholder(7))

	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		at := r.At
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := tx.ExecContext(ctx, query,
			runID, r.Lead.Row, r.Lead.Name, r.Lead.Phone, string(r.Status), errText, at.UTC()); err != nil {
			_ = tx.Rollback()
			return eris.Wrapf(err, "archive: insert send for row %d", r.Lead.Row)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "archive: commit sends")
	}
	return nil
}

// RecentProjects returns the newest archived projects first.
func (a *SQLArchive) RecentProjects(ctx context.Context, limit int) ([]*models.ArchivedProject, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT run_id, registration_id, promoter_name, project_name, address,
			project_type, project_subtype, total_area, total_units, completion_date,
			latitude, longitude, covered_parking, total_open_area, total_land_area,
			tower_count, inventory, discovered_at
		FROM projects
		ORDER BY id DESC
		LIMIT %s
	`, a.placeholder(1)), limit)
	if err != nil {
		return nil, eris.Wrap(err, "archive: query recent projects")
	}
	defer rows.Close()

	var out []*models.ArchivedProject
	for rows.Next() {
		p := &models.ArchivedProject{}
		var inventory string
		if err := rows.Scan(
			&p.RunID, &p.RegistrationID, &p.PromoterName, &p.ProjectName, &p.Address,
			&p.ProjectType, &p.ProjectSubtype, &p.TotalArea, &p.TotalUnits, &p.CompletionDate,
			&p.Latitude, &p.Longitude, &p.CoveredParking, &p.TotalOpenArea, &p.TotalLandArea,
			&p.TowerCount, &inventory, &p.DiscoveredAt,
		); err != nil {
			return nil, eris.Wrap(err, "archive: scan project")
		}
		if err := json.Unmarshal([]byte(inventory), &p.Inventory); err != nil {
			return nil, eris.Wrapf(err, "archive: decode inventory for %s", p.RegistrationID)
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "archive: iterate projects")
}

// CountSends returns how many outreach outcomes are stored for runID.
func (a *SQLArchive) CountSends(ctx context.Context, runID string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM outreach_sends WHERE run_id = "+a.placeholder(1), runID).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "archive: count sends")
	}
	return n, nil
}

func (a *SQLArchive) Close() error {
	return a.db.Close()
}
