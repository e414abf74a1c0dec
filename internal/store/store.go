// Package store persists raw provider payloads, resolved profiles,
// enrichment jobs, and PDF delivery records. Two backends exist: Postgres
// for deployments with a DATABASE_URL, SQLite for everything else.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/anatolykoptev/go_enrich/internal/engine/profile"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// Job lifecycle states. Jobs are plain rows, there is no scheduler.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// RawRecord is one provider payload as fetched, before merging.
type RawRecord struct {
	ID        int64          `json:"id"`
	Email     string         `json:"email"`
	Source    string         `json:"source"`
	Payload   map[string]any `json:"payload"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// ResolvedRecord is the newest merged profile plus its personalization.
type ResolvedRecord struct {
	Email            string         `json:"email"`
	Domain           string         `json:"domain"`
	Fields           map[string]any `json:"fields"`
	DataSources      []string       `json:"data_sources"`
	DataQualityScore float64        `json:"data_quality_score"`
	Hook             string         `json:"intro_hook"`
	CTA              string         `json:"cta"`
	ResolvedAt       time.Time      `json:"resolved_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// JobRecord tracks one enrichment request end to end.
type JobRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Domain    string    `json:"domain,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PDFDelivery records one rendered document handed to a prospect.
type PDFDelivery struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the persistence boundary. Resolution completes before any of
// these calls run, so a store failure never corrupts an in-flight merge.
type Store interface {
	// StoreRaw appends one provider payload for an email.
	StoreRaw(ctx context.Context, email, source string, payload map[string]any) error

	// UpsertResolved replaces the resolved record keyed by email.
	UpsertResolved(ctx context.Context, p *profile.ResolvedProfile, hook, cta string) error

	// GetResolved returns the newest record for email, or ErrNotFound.
	GetResolved(ctx context.Context, email string) (*ResolvedRecord, error)

	CreateJob(ctx context.Context, id, email, domain string) error
	UpdateJobStatus(ctx context.Context, id, status, errMsg string) error
	GetJob(ctx context.Context, id string) (*JobRecord, error)

	CreatePDFDelivery(ctx context.Context, jobID, path string, size int64, expiresAt time.Time) error

	Health(ctx context.Context) error
	Close()
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)
