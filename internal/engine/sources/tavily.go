package sources

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

const tavilyBaseURL = "https://api.tavily.com"

// tavilyResponse is the search response body.
type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Tavily is the company news and context search adapter.
type Tavily struct {
	apiKey  string
	baseURL string
}

// NewTavily builds the adapter. Empty apiKey enables mock mode.
func NewTavily(apiKey string) *Tavily {
	return &Tavily{apiKey: apiKey, baseURL: tavilyBaseURL}
}

func (t *Tavily) Name() string { return "tavily" }

func (t *Tavily) Enrich(ctx context.Context, email, domain string) Result {
	if domain == "" {
		domain = engine.DomainFromEmail(email)
	}
	if t.apiKey == "" {
		slog.Debug("tavily: no API key, serving mock", slog.String("domain", domain))
		return ok(t.Name(), mockTavily(domain), true)
	}

	var resp tavilyResponse
	err := fetchJSON(ctx, "POST", t.baseURL+"/search", nil, map[string]any{
		"api_key":        t.apiKey,
		"query":          fmt.Sprintf("%s company news funding", domain),
		"search_depth":   "basic",
		"include_answer": true,
		"max_results":    5,
	}, &resp)
	if err != nil {
		slog.Warn("tavily: search failed", slog.String("domain", domain), slog.Any("error", err))
		return fail(t.Name(), err)
	}

	results := resp.Results
	if len(results) > 5 {
		results = results[:5]
	}
	items := make([]map[string]any, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"content": engine.Truncate(engine.HTMLText(r.Content), 500),
			"score":   r.Score,
		})
	}

	return ok(t.Name(), map[string]any{
		"domain":       domain,
		"answer":       engine.HTMLText(resp.Answer),
		"results":      items,
		"result_count": len(resp.Results),
	}, false)
}
