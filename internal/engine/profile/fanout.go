package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/engine/sources"
)

// FetchAll queries every adapter concurrently and joins on all of them.
// The returned map has exactly one entry per adapter: a panic, a limiter
// failure, or an adapter without a configured priority all land as error
// results, never as missing keys and never as a crashed run.
func FetchAll(ctx context.Context, adapters []sources.Adapter, limiter *rate.Limiter, email, domain string) map[string]sources.Result {
	results := make([]sources.Result, len(adapters))

	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a sources.Adapter) {
			defer wg.Done()
			results[i] = fetchOne(ctx, a, limiter, email, domain)
		}(i, a)
	}
	wg.Wait()

	out := make(map[string]sources.Result, len(adapters))
	for _, r := range results {
		out[r.Source] = r
	}
	return out
}

// fetchOne runs a single adapter call with panic isolation.
func fetchOne(ctx context.Context, a sources.Adapter, limiter *rate.Limiter, email, domain string) (res sources.Result) {
	name := a.Name()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("source panicked", slog.String("source", name), slog.Any("panic", r))
			res = sources.Result{Source: name, Err: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if _, known := SourcePriority[name]; !known {
		return sources.Result{Source: name, Err: "unknown source: " + name}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return sources.Result{Source: name, Err: "rate limit wait: " + err.Error()}
		}
	}

	_ = engine.TrackOperation(ctx, "source:"+name, func(ctx context.Context) error {
		res = a.Enrich(ctx, email, domain)
		return nil
	})
	return res
}
