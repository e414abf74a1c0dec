// Package sources implements the five enrichment provider adapters.
//
// Each adapter turns one provider API (or its mock stand-in when no
// credential is configured) into a uniform Result. Failures never cross the
// package boundary as errors: they are carried inside the Result so the
// resolution engine can treat an outage as just another absent source.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

// Adapter is a single enrichment provider.
type Adapter interface {
	// Name returns the stable source identifier ("apollo", "pdl", ...).
	Name() string
	// Enrich looks up email (and optionally domain) with the provider.
	// The returned Result carries either Fields or Err, never both.
	Enrich(ctx context.Context, email, domain string) Result
}

// Result is one provider's contribution to an enrichment run.
type Result struct {
	Source    string         `json:"source"`
	Fields    map[string]any `json:"fields,omitempty"`
	Err       string         `json:"error,omitempty"`
	Mock      bool           `json:"is_mock,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// Failed reports whether the provider call produced no usable data.
func (r Result) Failed() bool { return r.Err != "" }

// ok builds a successful Result.
func ok(source string, fields map[string]any, mock bool) Result {
	if mock {
		engine.IncrSourceMocks()
	}
	return Result{Source: source, Fields: fields, Mock: mock, FetchedAt: time.Now().UTC()}
}

// fail builds an error Result.
func fail(source string, err error) Result {
	engine.IncrSourceErrors()
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{Source: source, Err: msg, FetchedAt: time.Now().UTC()}
}

// failf builds an error Result from a format string.
func failf(source, format string, args ...any) Result {
	engine.IncrSourceErrors()
	return Result{Source: source, Err: fmt.Sprintf(format, args...), FetchedAt: time.Now().UTC()}
}

// fetchJSON performs one provider HTTP call and decodes the JSON body into out.
// method GET with a nil payload sends query params only; POST marshals payload.
// Responses are capped at 1 MiB.
func fetchJSON(ctx context.Context, method, rawURL string, headers map[string]string, payload any, out any) error {
	engine.IncrSourceRequests()

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.SourceTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := engine.RetryHTTP(ctx, engine.SourceRetryConfig, func() (*http.Response, error) {
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("timeout after %s", engine.Cfg.SourceTimeout)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pruneAbsent drops entries a typed decode cannot distinguish from a missing
// JSON field: empty strings, zero numbers, and nil or empty slices. A
// provider that returned no value for a field must not contribute a zero
// for it downstream.
func pruneAbsent(fields map[string]any) map[string]any {
	for k, v := range fields {
		switch t := v.(type) {
		case nil:
			delete(fields, k)
		case string:
			if t == "" {
				delete(fields, k)
			}
		case int:
			if t == 0 {
				delete(fields, k)
			}
		case float64:
			if t == 0 {
				delete(fields, k)
			}
		case []string:
			if len(t) == 0 {
				delete(fields, k)
			}
		case []map[string]string:
			if len(t) == 0 {
				delete(fields, k)
			}
		}
	}
	return fields
}

// withQuery appends query parameters to a base URL.
func withQuery(base string, params map[string]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// All returns the full adapter set in author order. Adapters without a
// configured key still appear: they serve deterministic mock payloads.
func All() []Adapter {
	return []Adapter{
		NewApollo(engine.Cfg.ApolloAPIKey),
		NewPDL(engine.Cfg.PDLAPIKey),
		NewHunter(engine.Cfg.HunterAPIKey),
		NewTavily(engine.Cfg.TavilyAPIKey),
		NewZoomInfo(engine.Cfg.ZoomInfoAPIKey),
	}
}
