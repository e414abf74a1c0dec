package personalize

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"google.golang.org/genai"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

// Default models per provider, overridable via engine config.
const (
	defaultAnthropicModel = "claude-3-5-haiku-20241022"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-1.5-flash"

	anthropicAPIBase = "https://api.anthropic.com/v1"
	openaiAPIBase    = "https://api.openai.com/v1"

	providerMaxTokens = 500
)

// provider is one text-generation backend in the fallback chain.
type provider interface {
	name() string
	complete(ctx context.Context, system, prompt string) (string, error)
}

// chatProvider wraps an OpenAI-compatible chat endpoint. Anthropic and
// OpenAI both speak this dialect.
type chatProvider struct {
	id     string
	model  string
	client *llm.Client
}

func newChatProvider(id, base, key, model string) *chatProvider {
	return &chatProvider{
		id:    id,
		model: model,
		client: llm.NewClient(base, key, model,
			llm.WithMaxTokens(providerMaxTokens),
			llm.WithTemperature(0.7),
			llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		),
	}
}

func (p *chatProvider) name() string { return p.id }

func (p *chatProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	return p.client.Complete(ctx, system, prompt)
}

// geminiProvider uses the genai SDK with a structured-output schema so the
// response is guaranteed to be a JSON object.
type geminiProvider struct {
	model  string
	client *genai.Client
}

var copySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"intro_hook": {Type: genai.TypeString},
		"cta":        {Type: genai.TypeString},
	},
	Required: []string{"intro_hook", "cta"},
}

func newGeminiProvider(ctx context.Context, key, model string) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(key),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &geminiProvider{model: model, client: client}, nil
}

func (p *geminiProvider) name() string { return "gemini" }

func (p *geminiProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	// Gemini takes system + user as one prompt.
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		genai.Text(system+"\n\n"+prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   copySchema,
		},
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// buildProviders assembles the chain from configured keys. A missing key
// skips that provider; an empty chain means offline-only operation.
func buildProviders(ctx context.Context, cfg *engine.Config) []provider {
	var chain []provider

	if cfg.AnthropicAPIKey != "" {
		model := cfg.AnthropicModel
		if model == "" {
			model = defaultAnthropicModel
		}
		chain = append(chain, newChatProvider("anthropic", anthropicAPIBase, cfg.AnthropicAPIKey, model))
	}
	if cfg.OpenAIAPIKey != "" {
		model := cfg.OpenAIModel
		if model == "" {
			model = defaultOpenAIModel
		}
		chain = append(chain, newChatProvider("openai", openaiAPIBase, cfg.OpenAIAPIKey, model))
	}
	if cfg.GeminiAPIKey != "" {
		model := cfg.GeminiModel
		if model == "" {
			model = defaultGeminiModel
		}
		gp, err := newGeminiProvider(ctx, cfg.GeminiAPIKey, model)
		if err != nil {
			slog.Warn("gemini provider unavailable", "error", err)
		} else {
			chain = append(chain, gp)
		}
	}

	if len(chain) == 0 {
		slog.Info("no LLM providers configured, personalization runs offline")
	} else {
		names := make([]string, len(chain))
		for i, p := range chain {
			names[i] = p.name()
		}
		slog.Info("personalization providers initialized", "chain", names)
	}
	return chain
}
