package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/engine/sources"
)

// ResolvedProfile is the canonical merged profile for one email.
type ResolvedProfile struct {
	Email            string         `json:"email"`
	Domain           string         `json:"domain"`
	Fields           map[string]any `json:"fields"`
	ResolvedAt       time.Time      `json:"resolved_at"`
	DataSources      []string       `json:"data_sources"`
	DataQualityScore float64        `json:"data_quality_score"`
}

// ErrInvalidEmail rejects inputs that cannot be enriched.
var ErrInvalidEmail = errors.New("invalid email address")

// Engine coordinates one enrichment run: fan-out, merge, score.
// It holds no persistence handle; callers receive the raw results alongside
// the profile and own what gets stored.
type Engine struct {
	adapters []sources.Adapter
	limiter  *rate.Limiter
}

// New builds an engine over the given adapters. rps bounds outbound provider
// calls across the whole engine (0 = unlimited). The field map is validated
// here so a malformed table fails loudly at startup, not per request.
func New(adapters []sources.Adapter, rps float64) (*Engine, error) {
	if len(adapters) == 0 {
		return nil, errors.New("profile: no adapters configured")
	}
	if err := validateFieldMap(FieldMap); err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Engine{adapters: adapters, limiter: limiter}, nil
}

// Resolve runs the full pipeline for one email. It returns the merged
// profile plus the raw per-source results so the caller can persist them.
// Only input validation produces an error; provider failures degrade the
// profile instead of failing the run.
func (e *Engine) Resolve(ctx context.Context, email, domain string) (*ResolvedProfile, map[string]sources.Result, error) {
	email = engine.NormalizeEmail(email)
	if !engine.ValidEmail(email) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if domain == "" {
		domain = engine.DomainFromEmail(email)
	}

	engine.IncrEnrichRequests()
	slog.Info("enrichment started", slog.String("email", email), slog.String("domain", domain))

	raw := FetchAll(ctx, e.adapters, e.limiter, email, domain)

	fields := Resolve(raw)
	score := Score(raw, len(e.adapters))

	profile := &ResolvedProfile{
		Email:            email,
		Domain:           domain,
		Fields:           fields,
		ResolvedAt:       time.Now().UTC(),
		DataSources:      usableSources(e.adapters, raw),
		DataQualityScore: score,
	}

	slog.Info("enrichment complete",
		slog.String("email", email),
		slog.Int("sources", len(profile.DataSources)),
		slog.Float64("quality", score),
	)
	return profile, raw, nil
}

// usableSources lists sources that contributed real data, in adapter order.
// Mock, failed, and empty sources are excluded: data_sources is a provenance claim,
// and synthetic payloads are not provenance.
func usableSources(adapters []sources.Adapter, raw map[string]sources.Result) []string {
	out := make([]string, 0, len(adapters))
	for _, a := range adapters {
		if r, ok := raw[a.Name()]; ok && usable(r) {
			out = append(out, a.Name())
		}
	}
	return out
}
