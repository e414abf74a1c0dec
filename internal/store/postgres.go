package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_enrich/internal/engine/profile"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Postgres backs the store with a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and runs schema migrations.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &Postgres{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *Postgres) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := conn.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

func (db *Postgres) StoreRaw(ctx context.Context, email, source string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal raw payload: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO raw_payloads (email, source, payload) VALUES ($1, $2, $3)`,
		email, source, data)
	return err
}

func (db *Postgres) UpsertResolved(ctx context.Context, p *profile.ResolvedProfile, hook, cta string) error {
	fields, err := json.Marshal(p.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	sources, err := json.Marshal(p.DataSources)
	if err != nil {
		return fmt.Errorf("marshal data_sources: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO resolved_profiles
		   (email, domain, fields, data_sources, data_quality_score, intro_hook, cta, resolved_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (email) DO UPDATE SET
		   domain = EXCLUDED.domain,
		   fields = EXCLUDED.fields,
		   data_sources = EXCLUDED.data_sources,
		   data_quality_score = EXCLUDED.data_quality_score,
		   intro_hook = EXCLUDED.intro_hook,
		   cta = EXCLUDED.cta,
		   resolved_at = EXCLUDED.resolved_at,
		   updated_at = now()`,
		p.Email, p.Domain, fields, sources, p.DataQualityScore, hook, cta, p.ResolvedAt)
	return err
}

func (db *Postgres) GetResolved(ctx context.Context, email string) (*ResolvedRecord, error) {
	var (
		rec         ResolvedRecord
		fieldsJSON  []byte
		sourcesJSON []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT email, domain, fields, data_sources, data_quality_score,
		        intro_hook, cta, resolved_at, updated_at
		 FROM resolved_profiles WHERE email = $1`, email,
	).Scan(&rec.Email, &rec.Domain, &fieldsJSON, &sourcesJSON, &rec.DataQualityScore,
		&rec.Hook, &rec.CTA, &rec.ResolvedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(fieldsJSON, &rec.Fields)
	_ = json.Unmarshal(sourcesJSON, &rec.DataSources)
	return &rec, nil
}

func (db *Postgres) CreateJob(ctx context.Context, id, email, domain string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO enrichment_jobs (id, email, domain, status) VALUES ($1, $2, $3, $4)`,
		id, email, domain, JobPending)
	return err
}

func (db *Postgres) UpdateJobStatus(ctx context.Context, id, status, errMsg string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE enrichment_jobs SET status = $2, error = $3, updated_at = now() WHERE id = $1`,
		id, status, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Postgres) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	var rec JobRecord
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, domain, status, error, created_at, updated_at
		 FROM enrichment_jobs WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Email, &rec.Domain, &rec.Status, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (db *Postgres) CreatePDFDelivery(ctx context.Context, jobID, path string, size int64, expiresAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO pdf_deliveries (job_id, path, size_bytes, expires_at) VALUES ($1, $2, $3, $4)`,
		jobID, path, size, expiresAt)
	return err
}

func (db *Postgres) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *Postgres) Close() {
	db.pool.Close()
}
