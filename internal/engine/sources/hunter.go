package sources

import (
	"context"
	"log/slog"
)

const hunterBaseURL = "https://api.hunter.io/v2"

// hunterResponse is the email-verifier response envelope.
type hunterResponse struct {
	Data hunterVerification `json:"data"`
}

type hunterVerification struct {
	Status     string `json:"status"` // valid, invalid, accept_all, webmail, disposable, unknown
	Result     string `json:"result"` // deliverable, undeliverable, risky, unknown
	Score      int    `json:"score"`  // 0-100
	Regexp     bool   `json:"regexp"`
	Gibberish  bool   `json:"gibberish"`
	Disposable bool   `json:"disposable"`
	Webmail    bool   `json:"webmail"`
	MXRecords  bool   `json:"mx_records"`
	SMTPServer bool   `json:"smtp_server"`
	SMTPCheck  bool   `json:"smtp_check"`
	AcceptAll  bool   `json:"accept_all"`
	Block      bool   `json:"block"`
}

// Hunter is the Hunter.io email verification adapter.
type Hunter struct {
	apiKey  string
	baseURL string
}

// NewHunter builds the adapter. Empty apiKey enables mock mode.
func NewHunter(apiKey string) *Hunter {
	return &Hunter{apiKey: apiKey, baseURL: hunterBaseURL}
}

func (h *Hunter) Name() string { return "hunter" }

func (h *Hunter) Enrich(ctx context.Context, email, domain string) Result {
	if h.apiKey == "" {
		slog.Debug("hunter: no API key, serving mock", slog.String("email", email))
		return ok(h.Name(), mockHunter(email), true)
	}

	u := withQuery(h.baseURL+"/email-verifier", map[string]string{
		"email":   email,
		"api_key": h.apiKey,
	})
	var resp hunterResponse
	if err := fetchJSON(ctx, "GET", u, nil, nil, &resp); err != nil {
		slog.Warn("hunter: verify failed", slog.String("email", email), slog.Any("error", err))
		return fail(h.Name(), err)
	}

	d := resp.Data
	return ok(h.Name(), map[string]any{
		"email":       email,
		"status":      d.Status,
		"result":      d.Result,
		"score":       d.Score,
		"regexp":      d.Regexp,
		"gibberish":   d.Gibberish,
		"disposable":  d.Disposable,
		"webmail":     d.Webmail,
		"mx_records":  d.MXRecords,
		"smtp_server": d.SMTPServer,
		"smtp_check":  d.SMTPCheck,
		"accept_all":  d.AcceptAll,
		"block":       d.Block,
	}, false)
}
