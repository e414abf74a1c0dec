package enrichserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/engine/profile"
	"github.com/anatolykoptev/go_enrich/internal/engine/sources"
	"github.com/anatolykoptev/go_enrich/internal/pdfgen"
	"github.com/anatolykoptev/go_enrich/internal/personalize"
	"github.com/anatolykoptev/go_enrich/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	engine.Init(engine.Config{SourceTimeout: 2 * time.Second})
	os.Exit(m.Run())
}

// stubAdapter returns fixed fields under a known source name.
type stubAdapter struct {
	source string
	fields map[string]any
}

func (a *stubAdapter) Name() string { return a.source }

func (a *stubAdapter) Enrich(_ context.Context, _, _ string) sources.Result {
	return sources.Result{Source: a.source, Fields: a.fields, FetchedAt: time.Now()}
}

// mockStore implements store.Store with overridable functions.
type mockStore struct {
	getResolved  func(email string) (*store.ResolvedRecord, error)
	upsertErr    error
	createJobErr error
	healthErr    error

	rawCalls    []string
	jobStatuses []string
	deliveries  int
}

func (m *mockStore) StoreRaw(_ context.Context, _, source string, _ map[string]any) error {
	m.rawCalls = append(m.rawCalls, source)
	return nil
}

func (m *mockStore) UpsertResolved(_ context.Context, _ *profile.ResolvedProfile, _, _ string) error {
	return m.upsertErr
}

func (m *mockStore) GetResolved(_ context.Context, email string) (*store.ResolvedRecord, error) {
	if m.getResolved != nil {
		return m.getResolved(email)
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) CreateJob(_ context.Context, _, _, _ string) error { return m.createJobErr }

func (m *mockStore) UpdateJobStatus(_ context.Context, _, status, _ string) error {
	m.jobStatuses = append(m.jobStatuses, status)
	return nil
}

func (m *mockStore) GetJob(_ context.Context, id string) (*store.JobRecord, error) {
	if id == "known-job" {
		return &store.JobRecord{ID: id, Email: "jane@acme.com", Status: store.JobCompleted}, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) CreatePDFDelivery(_ context.Context, _, _ string, _ int64, _ time.Time) error {
	m.deliveries++
	return nil
}

func (m *mockStore) Health(_ context.Context) error { return m.healthErr }
func (m *mockStore) Close()                         {}

func newTestServer(t *testing.T, ms *mockStore) *Server {
	t.Helper()
	eng, err := profile.New([]sources.Adapter{
		&stubAdapter{source: "apollo", fields: map[string]any{"first_name": "Jane", "company_name": "Acme"}},
	}, 0)
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	gen := personalize.NewGenerator(context.Background())
	return NewServer(eng, gen, ms, pdfgen.New(t.TempDir()))
}

func doJSON(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestEnrichHappyPath(t *testing.T) {
	ms := &mockStore{}
	s := newTestServer(t, ms)

	w := doJSON(s, http.MethodPost, "/enrich", gin.H{"email": "Jane@Acme.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		JobID           string                  `json:"job_id"`
		Email           string                  `json:"email"`
		Status          string                  `json:"status"`
		Profile         profile.ResolvedProfile `json:"profile"`
		Personalization struct {
			Hook      string `json:"hook"`
			CTA       string `json:"cta"`
			ModelUsed string `json:"model_used"`
		} `json:"personalization"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "jane@acme.com" {
		t.Errorf("email not normalized: %q", resp.Email)
	}
	if resp.Status != store.JobCompleted || resp.JobID == "" {
		t.Errorf("job outcome: %q %q", resp.Status, resp.JobID)
	}
	if resp.Profile.Fields["first_name"] != "Jane" {
		t.Errorf("profile fields missing: %v", resp.Profile.Fields)
	}
	if resp.Personalization.Hook == "" || resp.Personalization.CTA == "" {
		t.Error("personalization missing")
	}
	if resp.Personalization.ModelUsed != "offline" {
		t.Errorf("model_used = %q, want offline with no providers", resp.Personalization.ModelUsed)
	}

	if len(ms.rawCalls) != 1 || ms.rawCalls[0] != "apollo" {
		t.Errorf("raw payloads stored for %v", ms.rawCalls)
	}
	last := ms.jobStatuses[len(ms.jobStatuses)-1]
	if last != store.JobCompleted {
		t.Errorf("final job status = %q", last)
	}
}

func TestEnrichInvalidEmail(t *testing.T) {
	ms := &mockStore{}
	s := newTestServer(t, ms)

	for _, body := range []gin.H{
		{"email": "not-an-email"},
		{"domain": "acme.com"},
	} {
		w := doJSON(s, http.MethodPost, "/enrich", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d, want 400", body, w.Code)
		}
	}
	if len(ms.jobStatuses) != 0 {
		t.Errorf("jobs touched for invalid input: %v", ms.jobStatuses)
	}
}

func TestEnrichUpsertFailureFailsJob(t *testing.T) {
	ms := &mockStore{upsertErr: errors.New("disk full")}
	s := newTestServer(t, ms)

	w := doJSON(s, http.MethodPost, "/enrich", gin.H{"email": "jane@acme.com"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	last := ms.jobStatuses[len(ms.jobStatuses)-1]
	if last != store.JobFailed {
		t.Errorf("final job status = %q, want failed", last)
	}
}

func TestEnrichBatchValidation(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	w := doJSON(s, http.MethodPost, "/enrich/batch", gin.H{"emails": []string{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch: status = %d", w.Code)
	}

	emails := make([]string, maxBatchEmails+1)
	for i := range emails {
		emails[i] = "user@acme.com"
	}
	w = doJSON(s, http.MethodPost, "/enrich/batch", gin.H{"emails": emails})
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized batch: status = %d", w.Code)
	}
}

func TestEnrichBatchResolves(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	w := doJSON(s, http.MethodPost, "/enrich/batch",
		gin.H{"emails": []string{"a@acme.com", "not-an-email"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []profile.BatchItem `json:"items"`
		Total int                 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("total = %d, items = %d", resp.Total, len(resp.Items))
	}
	if resp.Items[0].Err != "" || resp.Items[0].Profile == nil {
		t.Errorf("good email failed: %+v", resp.Items[0])
	}
	if resp.Items[1].Err == "" {
		t.Error("bad email did not report an error")
	}
}

func TestProfileLookup(t *testing.T) {
	rec := &store.ResolvedRecord{
		Email:  "jane@acme.com",
		Domain: "acme.com",
		Fields: map[string]any{"first_name": "Jane"},
		Hook:   "Hello Jane",
		CTA:    "Get the guide",
	}
	ms := &mockStore{getResolved: func(email string) (*store.ResolvedRecord, error) {
		if email == "jane@acme.com" {
			return rec, nil
		}
		return nil, store.ErrNotFound
	}}
	s := newTestServer(t, ms)

	w := doJSON(s, http.MethodGet, "/profile/jane@acme.com", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got store.ResolvedRecord
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Hook != "Hello Jane" {
		t.Errorf("hook = %q", got.Hook)
	}

	w = doJSON(s, http.MethodGet, "/profile/nobody@nowhere.com", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing profile: status = %d", w.Code)
	}
}

func TestJobLookup(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	w := doJSON(s, http.MethodGet, "/job/known-job", nil)
	if w.Code != http.StatusOK {
		t.Errorf("known job: status = %d", w.Code)
	}
	w = doJSON(s, http.MethodGet, "/job/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown job: status = %d", w.Code)
	}
}

func TestPDFEndpoint(t *testing.T) {
	rec := &store.ResolvedRecord{
		Email:  "jane@acme.com",
		Fields: map[string]any{"first_name": "Jane", "company_name": "Acme"},
		Hook:   "Hello Jane",
		CTA:    "Get the guide",
	}
	ms := &mockStore{getResolved: func(email string) (*store.ResolvedRecord, error) {
		if email == "jane@acme.com" {
			return rec, nil
		}
		return nil, store.ErrNotFound
	}}
	s := newTestServer(t, ms)

	w := doJSON(s, http.MethodPost, "/pdf/jane@acme.com", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		DeliveryID string          `json:"delivery_id"`
		Document   pdfgen.Document `json:"document"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Document.Size == 0 || resp.DeliveryID == "" {
		t.Errorf("document metadata incomplete: %+v", resp)
	}
	if ms.deliveries != 1 {
		t.Errorf("delivery records = %d", ms.deliveries)
	}

	w = doJSON(s, http.MethodPost, "/pdf/nobody@nowhere.com", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing profile: status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	ms := &mockStore{}
	s := newTestServer(t, ms)

	w := doJSON(s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("healthy: status = %d", w.Code)
	}

	ms.healthErr = errors.New("connection refused")
	w = doJSON(s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: status = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	w := doJSON(s, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("enrich_requests")) {
		t.Errorf("metrics body missing counters: %s", w.Body.String())
	}
}
