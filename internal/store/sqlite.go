package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_enrich/internal/engine/profile"
)

// SQLite backs the store with a local file. It keeps the service operable
// without any infrastructure, mirroring the keyless provider mocks.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("sqlite: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	slog.Info("sqlite store opened", slog.String("path", path))
	return &SQLite{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS raw_payloads (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT NOT NULL,
			source     TEXT NOT NULL,
			payload    TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_payloads_email ON raw_payloads (email)`,
		`CREATE TABLE IF NOT EXISTS resolved_profiles (
			email              TEXT PRIMARY KEY,
			domain             TEXT NOT NULL DEFAULT '',
			fields             TEXT NOT NULL,
			data_sources       TEXT NOT NULL DEFAULT '[]',
			data_quality_score REAL NOT NULL DEFAULT 0,
			intro_hook         TEXT NOT NULL DEFAULT '',
			cta                TEXT NOT NULL DEFAULT '',
			resolved_at        TEXT NOT NULL,
			updated_at         TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS enrichment_jobs (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL,
			domain     TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'pending',
			error      TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pdf_deliveries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id     TEXT NOT NULL,
			path       TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseRFC3339(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func (s *SQLite) StoreRaw(ctx context.Context, email, source string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal raw payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO raw_payloads (email, source, payload, fetched_at) VALUES (?, ?, ?, ?)`,
		email, source, string(data), nowRFC3339())
	return err
}

func (s *SQLite) UpsertResolved(ctx context.Context, p *profile.ResolvedProfile, hook, cta string) error {
	fields, err := json.Marshal(p.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	sources, err := json.Marshal(p.DataSources)
	if err != nil {
		return fmt.Errorf("marshal data_sources: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolved_profiles
		   (email, domain, fields, data_sources, data_quality_score, intro_hook, cta, resolved_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		   domain = excluded.domain,
		   fields = excluded.fields,
		   data_sources = excluded.data_sources,
		   data_quality_score = excluded.data_quality_score,
		   intro_hook = excluded.intro_hook,
		   cta = excluded.cta,
		   resolved_at = excluded.resolved_at,
		   updated_at = excluded.updated_at`,
		p.Email, p.Domain, string(fields), string(sources), p.DataQualityScore,
		hook, cta, p.ResolvedAt.UTC().Format(time.RFC3339), nowRFC3339())
	return err
}

func (s *SQLite) GetResolved(ctx context.Context, email string) (*ResolvedRecord, error) {
	var (
		rec         ResolvedRecord
		fieldsJSON  string
		sourcesJSON string
		resolvedAt  string
		updatedAt   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT email, domain, fields, data_sources, data_quality_score,
		        intro_hook, cta, resolved_at, updated_at
		 FROM resolved_profiles WHERE email = ?`, email,
	).Scan(&rec.Email, &rec.Domain, &fieldsJSON, &sourcesJSON, &rec.DataQualityScore,
		&rec.Hook, &rec.CTA, &resolvedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(fieldsJSON), &rec.Fields)
	_ = json.Unmarshal([]byte(sourcesJSON), &rec.DataSources)
	rec.ResolvedAt = parseRFC3339(resolvedAt)
	rec.UpdatedAt = parseRFC3339(updatedAt)
	return &rec, nil
}

func (s *SQLite) CreateJob(ctx context.Context, id, email, domain string) error {
	now := nowRFC3339()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_jobs (id, email, domain, status, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', ?, ?)`,
		id, email, domain, JobPending, now, now)
	return err
}

func (s *SQLite) UpdateJobStatus(ctx context.Context, id, status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, errMsg, nowRFC3339(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	var (
		rec       JobRecord
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, domain, status, error, created_at, updated_at
		 FROM enrichment_jobs WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Email, &rec.Domain, &rec.Status, &rec.Error, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = parseRFC3339(createdAt)
	rec.UpdatedAt = parseRFC3339(updatedAt)
	return &rec, nil
}

func (s *SQLite) CreatePDFDelivery(ctx context.Context, jobID, path string, size int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pdf_deliveries (job_id, path, size_bytes, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		jobID, path, size, nowRFC3339(), expiresAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLite) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() {
	s.db.Close()
}
