package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

func initTestEngine(t *testing.T) {
	t.Helper()
	engine.Init(engine.Config{
		HTTPClient:    &http.Client{Timeout: 2 * time.Second},
		SourceTimeout: 2 * time.Second,
	})
}

func TestMockDeterminism(t *testing.T) {
	initTestEngine(t)
	adapters := []Adapter{
		NewApollo(""), NewPDL(""), NewHunter(""), NewTavily(""), NewZoomInfo(""),
	}
	for _, a := range adapters {
		t.Run(a.Name(), func(t *testing.T) {
			r1 := a.Enrich(context.Background(), "jane.doe@acme.io", "")
			r2 := a.Enrich(context.Background(), "jane.doe@acme.io", "")
			if !r1.Mock || !r2.Mock {
				t.Fatal("expected mock results without API key")
			}
			if r1.Failed() {
				t.Fatalf("mock result failed: %s", r1.Err)
			}
			if !reflect.DeepEqual(r1.Fields, r2.Fields) {
				t.Errorf("mock payload not deterministic:\n%v\n%v", r1.Fields, r2.Fields)
			}
		})
	}
}

func TestMockApolloNames(t *testing.T) {
	tests := []struct {
		email     string
		wantFirst string
		wantLast  string
	}{
		{"jane.doe@acme.io", "Jane", "Doe"},
		{"jane@acme.io", "Jane", "User"},
		{"j.q.public@acme.io", "J", "Public"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			fields := mockApollo(tt.email, "")
			if fields["first_name"] != tt.wantFirst {
				t.Errorf("first_name = %v, want %v", fields["first_name"], tt.wantFirst)
			}
			if fields["last_name"] != tt.wantLast {
				t.Errorf("last_name = %v, want %v", fields["last_name"], tt.wantLast)
			}
		})
	}
}

func TestMapEmployeeCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "Unknown"},
		{5, "1-10"},
		{49, "11-50"},
		{150, "50-200"},
		{400, "200-500"},
		{900, "500-1000"},
		{5000, "1000+"},
	}
	for _, tt := range tests {
		if got := mapEmployeeCount(tt.count); got != tt.want {
			t.Errorf("mapEmployeeCount(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestApolloEnrichFlattensPerson(t *testing.T) {
	initTestEngine(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/people/match" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"person":{
			"first_name":"Jane","last_name":"Doe","title":"VP Sales",
			"linkedin_url":"https://linkedin.com/in/janedoe",
			"city":"Austin","state":"TX","country":"US","seniority":"vp",
			"organization":{"name":"Acme","primary_domain":"acme.io","industry":"SaaS","estimated_num_employees":180}
		}}`))
	}))
	defer srv.Close()

	a := NewApollo("key")
	a.baseURL = srv.URL
	res := a.Enrich(context.Background(), "jane@acme.io", "")
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Mock {
		t.Error("result should not be mock")
	}
	if res.Fields["company_name"] != "Acme" {
		t.Errorf("company_name = %v", res.Fields["company_name"])
	}
	if res.Fields["company_size"] != "50-200" {
		t.Errorf("company_size = %v", res.Fields["company_size"])
	}
}

func TestPDLEnrichCapsLists(t *testing.T) {
	initTestEngine(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"first_name":"jane","skills":["a","b","c","d","e","f","g","h","i","j","k","l"],
			"experience":[{"title":{"name":"VP"},"company":{"name":"Acme"}},{"title":{"name":"Dir"},"company":{"name":"B"}},
			{"title":{"name":"Mgr"},"company":{"name":"C"}},{"title":{"name":"IC"},"company":{"name":"D"}}]}`))
	}))
	defer srv.Close()

	p := NewPDL("key")
	p.baseURL = srv.URL
	res := p.Enrich(context.Background(), "jane@acme.io", "")
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if skills := res.Fields["skills"].([]string); len(skills) != 10 {
		t.Errorf("skills len = %d, want 10", len(skills))
	}
	if exp := res.Fields["experience"].([]map[string]string); len(exp) != 3 {
		t.Errorf("experience len = %d, want 3", len(exp))
	}
}

func TestHunterEnrichUnwrapsData(t *testing.T) {
	initTestEngine(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"status":"valid","result":"deliverable","score":97,"mx_records":true}}`))
	}))
	defer srv.Close()

	h := NewHunter("key")
	h.baseURL = srv.URL
	res := h.Enrich(context.Background(), "jane@acme.io", "")
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Fields["score"] != 97 {
		t.Errorf("score = %v", res.Fields["score"])
	}
	if res.Fields["result"] != "deliverable" {
		t.Errorf("result = %v", res.Fields["result"])
	}
}

func TestTavilyEnrichSanitizesContent(t *testing.T) {
	initTestEngine(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"<p>Acme raised a round.</p>","results":[
			{"title":"News","url":"https://ex.com","content":"<b>funding</b> news","score":0.9}]}`))
	}))
	defer srv.Close()

	tv := NewTavily("key")
	tv.baseURL = srv.URL
	res := tv.Enrich(context.Background(), "jane@acme.io", "acme.io")
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Fields["answer"] != "Acme raised a round." {
		t.Errorf("answer = %v", res.Fields["answer"])
	}
	items := res.Fields["results"].([]map[string]any)
	if items[0]["content"] != "funding news" {
		t.Errorf("content = %v", items[0]["content"])
	}
}

func TestZoomInfoEnrichEmptyData(t *testing.T) {
	initTestEngine(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	z := NewZoomInfo("key")
	z.baseURL = srv.URL
	res := z.Enrich(context.Background(), "jane@acme.io", "acme.io")
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Fields["domain"] != "acme.io" {
		t.Errorf("domain = %v", res.Fields["domain"])
	}
	// A no-match response must not fabricate zero-valued company data.
	for _, field := range []string{"company_name", "employee_count", "revenue", "founded_year", "tech_stack"} {
		if v, ok := res.Fields[field]; ok {
			t.Errorf("%s = %v, want absent", field, v)
		}
	}
}

func TestPDLEnrichOmitsMissingSections(t *testing.T) {
	initTestEngine(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"first_name":"Jane","last_name":"Doe","job_title":"CTO"}`))
	}))
	defer srv.Close()

	p := NewPDL("key")
	p.baseURL = srv.URL
	res := p.Enrich(context.Background(), "jane@acme.io", "")
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Fields["first_name"] != "Jane" {
		t.Errorf("first_name = %v", res.Fields["first_name"])
	}
	for _, field := range []string{"skills", "interests", "experience", "linkedin_url"} {
		if v, ok := res.Fields[field]; ok {
			t.Errorf("%s = %v, want absent", field, v)
		}
	}
	// Absent list fields must not resurface as JSON null in stored payloads.
	data, err := json.Marshal(res.Fields)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("fields marshal with null: %s", data)
	}
}

func TestAdapterErrorResult(t *testing.T) {
	initTestEngine(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewApollo("key")
	a.baseURL = srv.URL
	res := a.Enrich(context.Background(), "jane@acme.io", "")
	if !res.Failed() {
		t.Fatal("expected error result on 403")
	}
	if res.Fields != nil {
		t.Error("error result must not carry fields")
	}
}
