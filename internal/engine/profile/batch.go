package profile

import (
	"context"
	"log/slog"
	"sync"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/engine/sources"
)

// BatchItem is the outcome of one email in a batch run.
type BatchItem struct {
	Email   string                    `json:"email"`
	Profile *ResolvedProfile          `json:"profile,omitempty"`
	Raw     map[string]sources.Result `json:"-"`
	Err     string                    `json:"error,omitempty"`
}

// ResolveBatch enriches emails with at most limit resolutions in flight.
// Each email is isolated: one failure never aborts the rest. Results come
// back in input order regardless of completion order.
func (e *Engine) ResolveBatch(ctx context.Context, emails []string, limit int) []BatchItem {
	if limit <= 0 {
		limit = engine.Cfg.BatchLimit
	}
	engine.IncrBatchRequests()

	items := make([]BatchItem, len(emails))
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			profile, raw, err := e.Resolve(ctx, email, "")
			if err != nil {
				slog.Warn("batch enrichment failed", slog.String("email", email), slog.Any("error", err))
				items[i] = BatchItem{Email: email, Err: err.Error()}
				return
			}
			items[i] = BatchItem{Email: profile.Email, Profile: profile, Raw: raw}
		}(i, email)
	}
	wg.Wait()

	return items
}
