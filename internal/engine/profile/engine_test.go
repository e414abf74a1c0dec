package profile

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/engine/sources"
)

// stubAdapter is a canned-response adapter for engine tests.
type stubAdapter struct {
	name     string
	fields   map[string]any
	errMsg   string
	mock     bool
	panicMsg string
	delay    time.Duration

	inflight *int32 // optional concurrency probe
	maxSeen  *int32
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Enrich(ctx context.Context, email, domain string) sources.Result {
	if s.inflight != nil {
		cur := atomic.AddInt32(s.inflight, 1)
		for {
			max := atomic.LoadInt32(s.maxSeen)
			if cur <= max || atomic.CompareAndSwapInt32(s.maxSeen, max, cur) {
				break
			}
		}
		defer atomic.AddInt32(s.inflight, -1)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.errMsg != "" {
		return sources.Result{Source: s.name, Err: s.errMsg, FetchedAt: time.Now().UTC()}
	}
	return sources.Result{Source: s.name, Fields: s.fields, Mock: s.mock, FetchedAt: time.Now().UTC()}
}

func initProfileTest(t *testing.T) {
	t.Helper()
	engine.Init(engine.Config{HTTPClient: &http.Client{}, BatchLimit: 5})
}

func TestFetchAllIsolation(t *testing.T) {
	initProfileTest(t)
	adapters := []sources.Adapter{
		&stubAdapter{name: "apollo", fields: map[string]any{"first_name": "Jane"}},
		&stubAdapter{name: "pdl", errMsg: "status 502"},
		&stubAdapter{name: "hunter", fields: map[string]any{"status": "valid"}},
		&stubAdapter{name: "tavily", errMsg: "timeout"},
		&stubAdapter{name: "zoominfo", fields: map[string]any{"company_name": "Acme"}},
	}
	raw := FetchAll(context.Background(), adapters, nil, "jane@acme.com", "acme.com")

	if len(raw) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(raw))
	}
	failed := 0
	for _, r := range raw {
		if r.Failed() {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("expected 2 failures, got %d", failed)
	}
	if raw["apollo"].Fields["first_name"] != "Jane" {
		t.Error("successful payload lost")
	}
}

func TestFetchAllPanicRecovery(t *testing.T) {
	initProfileTest(t)
	adapters := []sources.Adapter{
		&stubAdapter{name: "apollo", panicMsg: "nil deref"},
		&stubAdapter{name: "pdl", fields: map[string]any{"first_name": "Jane"}},
	}
	raw := FetchAll(context.Background(), adapters, nil, "jane@acme.com", "")

	if len(raw) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(raw))
	}
	if !raw["apollo"].Failed() {
		t.Error("panicking adapter should yield an error result")
	}
	if raw["pdl"].Failed() {
		t.Error("healthy adapter affected by sibling panic")
	}
}

func TestFetchAllUnknownSource(t *testing.T) {
	initProfileTest(t)
	adapters := []sources.Adapter{
		&stubAdapter{name: "clearbit", fields: map[string]any{"x": 1}},
	}
	raw := FetchAll(context.Background(), adapters, nil, "jane@acme.com", "")
	if !raw["clearbit"].Failed() {
		t.Error("adapter without a priority entry should fail")
	}
}

func TestEngineInvalidEmail(t *testing.T) {
	initProfileTest(t)
	eng, err := New([]sources.Adapter{&stubAdapter{name: "apollo"}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, email := range []string{"", "not-an-email", "@acme.com", "a@b@c.io"} {
		_, _, err := eng.Resolve(context.Background(), email, "")
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestEngineNoAdapters(t *testing.T) {
	if _, err := New(nil, 0); err == nil {
		t.Error("expected error for empty adapter set")
	}
}

// Scenario: apollo and pdl return real data with conflicting fields, the
// remaining three sources fail. Apollo wins every contested field, pdl still
// counts as a contributing source, quality lands strictly between 0 and 1.
func TestEngineMergeWithPartialFailure(t *testing.T) {
	initProfileTest(t)
	adapters := []sources.Adapter{
		&stubAdapter{name: "apollo", fields: map[string]any{"first_name": "Jane", "company_name": "Acme"}},
		&stubAdapter{name: "pdl", fields: map[string]any{"first_name": "J.", "job_company_name": "Acme Inc"}},
		&stubAdapter{name: "hunter", errMsg: "status 500"},
		&stubAdapter{name: "tavily", errMsg: "timeout"},
		&stubAdapter{name: "zoominfo", errMsg: "status 503"},
	}
	eng, err := New(adapters, 0)
	if err != nil {
		t.Fatal(err)
	}

	profile, raw, err := eng.Resolve(context.Background(), "jane@acme.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Fields["first_name"] != "Jane" {
		t.Errorf("first_name = %v, want Jane", profile.Fields["first_name"])
	}
	if profile.Fields["company_name"] != "Acme" {
		t.Errorf("company_name = %v, want Acme", profile.Fields["company_name"])
	}
	if want := []string{"apollo", "pdl"}; !reflect.DeepEqual(profile.DataSources, want) {
		t.Errorf("data_sources = %v, want %v", profile.DataSources, want)
	}
	if profile.DataQualityScore <= 0 || profile.DataQualityScore >= 1 {
		t.Errorf("quality = %v, want in (0,1)", profile.DataQualityScore)
	}
	if profile.Domain != "acme.com" {
		t.Errorf("domain = %q", profile.Domain)
	}
	if len(raw) != 5 {
		t.Errorf("raw entries = %d, want 5", len(raw))
	}
}

// A source that answers without error but carries no fields claims no
// provenance and earns no quality.
func TestEngineEmptyResultNotProvenance(t *testing.T) {
	initProfileTest(t)
	adapters := []sources.Adapter{
		&stubAdapter{name: "zoominfo", fields: map[string]any{}},
		&stubAdapter{name: "pdl", fields: map[string]any{"first_name": "Jane"}},
	}
	eng, err := New(adapters, 0)
	if err != nil {
		t.Fatal(err)
	}

	profile, _, err := eng.Resolve(context.Background(), "jane@acme.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"pdl"}; !reflect.DeepEqual(profile.DataSources, want) {
		t.Errorf("data_sources = %v, want %v", profile.DataSources, want)
	}
	if got, want := profile.DataQualityScore, 0.5; got != want {
		t.Errorf("quality = %v, want %v", got, want)
	}
}

// Scenario: no provider credentials at all. Every result is a mock, the
// profile is still populated and deterministic, and mocks earn no quality.
func TestEngineAllMockMode(t *testing.T) {
	engine.Init(engine.Config{HTTPClient: &http.Client{}, SourceTimeout: time.Second})
	eng, err := New(sources.All(), 0)
	if err != nil {
		t.Fatal(err)
	}

	p1, raw, err := eng.Resolve(context.Background(), "jane.doe@acme.io", "")
	if err != nil {
		t.Fatal(err)
	}
	for name, r := range raw {
		if !r.Mock {
			t.Errorf("source %s should be mock", name)
		}
		if r.Failed() {
			t.Errorf("source %s failed: %s", name, r.Err)
		}
	}
	if p1.Fields["first_name"] != "Jane" || p1.Fields["company_name"] != "Company at acme.io" {
		t.Errorf("mock profile fields: %v", p1.Fields)
	}
	if p1.DataQualityScore != 0 {
		t.Errorf("mock-only quality = %v, want 0", p1.DataQualityScore)
	}
	if len(p1.DataSources) != 0 {
		t.Errorf("mock sources must not appear in data_sources: %v", p1.DataSources)
	}

	p2, _, err := eng.Resolve(context.Background(), "jane.doe@acme.io", "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p1.Fields, p2.Fields) {
		t.Error("mock resolution not deterministic across calls")
	}
}

// Scenario: batch of 10 with concurrency limit 5.
func TestEngineResolveBatch(t *testing.T) {
	initProfileTest(t)

	var inflight, maxSeen int32
	adapters := []sources.Adapter{
		&stubAdapter{
			name:     "apollo",
			fields:   map[string]any{"first_name": "X"},
			delay:    20 * time.Millisecond,
			inflight: &inflight,
			maxSeen:  &maxSeen,
		},
	}
	eng, err := New(adapters, 0)
	if err != nil {
		t.Fatal(err)
	}

	emails := []string{
		"a@x.io", "b@x.io", "c@x.io", "not-an-email", "e@x.io",
		"f@x.io", "g@x.io", "h@x.io", "i@x.io", "j@x.io",
	}
	items := eng.ResolveBatch(context.Background(), emails, 5)

	if len(items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(items))
	}
	if max := atomic.LoadInt32(&maxSeen); max > 5 {
		t.Errorf("observed %d concurrent resolutions, limit 5", max)
	}
	for i, item := range items {
		if i == 3 {
			if item.Err == "" {
				t.Error("invalid email should fail its own entry")
			}
			continue
		}
		if item.Err != "" {
			t.Errorf("item %d (%s) failed: %s", i, emails[i], item.Err)
		}
		if item.Email != emails[i] {
			t.Errorf("item %d keyed to %q, want %q", i, item.Email, emails[i])
		}
		if item.Profile == nil {
			t.Errorf("item %d missing profile", i)
		}
	}
}

// Resolve twice over one raw snapshot: identical content.
func TestResolveIdempotentOnSnapshot(t *testing.T) {
	raw := map[string]sources.Result{
		"apollo": realResult("apollo", map[string]any{"first_name": "Jane", "title": "VP"}),
		"hunter": realResult("hunter", map[string]any{"status": "valid", "result": "risky", "score": 61}),
	}
	var mu sync.Mutex
	outputs := make([]map[string]any, 0, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := Resolve(raw)
			mu.Lock()
			outputs = append(outputs, out)
			mu.Unlock()
		}()
	}
	wg.Wait()
	for i := 1; i < len(outputs); i++ {
		if !reflect.DeepEqual(outputs[0], outputs[i]) {
			t.Fatal("concurrent Resolve calls diverged")
		}
	}
}
