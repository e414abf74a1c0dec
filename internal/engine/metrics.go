package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	EnrichRequests  atomic.Int64
	BatchRequests   atomic.Int64
	SourceRequests  atomic.Int64
	SourceErrors    atomic.Int64
	SourceMocks     atomic.Int64
	LLMCalls        atomic.Int64
	LLMErrors       atomic.Int64
	LLMFallbacks    atomic.Int64
	ComplianceFixes atomic.Int64
	PDFGenerated    atomic.Int64
	StoreErrors     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"enrich_requests":  metrics.EnrichRequests.Load(),
		"batch_requests":   metrics.BatchRequests.Load(),
		"source_requests":  metrics.SourceRequests.Load(),
		"source_errors":    metrics.SourceErrors.Load(),
		"source_mocks":     metrics.SourceMocks.Load(),
		"llm_calls":        metrics.LLMCalls.Load(),
		"llm_errors":       metrics.LLMErrors.Load(),
		"llm_fallbacks":    metrics.LLMFallbacks.Load(),
		"compliance_fixes": metrics.ComplianceFixes.Load(),
		"pdf_generated":    metrics.PDFGenerated.Load(),
		"store_errors":     metrics.StoreErrors.Load(),
		"cache_hits":       hits,
		"cache_misses":     misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"enrich_requests", "batch_requests",
		"source_requests", "source_errors", "source_mocks",
		"llm_calls", "llm_errors", "llm_fallbacks",
		"compliance_fixes", "pdf_generated", "store_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for server and sub-packages.
func IncrEnrichRequests()  { metrics.EnrichRequests.Add(1) }
func IncrBatchRequests()   { metrics.BatchRequests.Add(1) }
func IncrSourceRequests()  { metrics.SourceRequests.Add(1) }
func IncrSourceErrors()    { metrics.SourceErrors.Add(1) }
func IncrSourceMocks()     { metrics.SourceMocks.Add(1) }
func IncrLLMCalls()        { metrics.LLMCalls.Add(1) }
func IncrLLMErrors()       { metrics.LLMErrors.Add(1) }
func IncrLLMFallbacks()    { metrics.LLMFallbacks.Add(1) }
func IncrComplianceFixes() { metrics.ComplianceFixes.Add(1) }
func IncrPDFGenerated()    { metrics.PDFGenerated.Add(1) }
func IncrStoreErrors()     { metrics.StoreErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
