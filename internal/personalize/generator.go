package personalize

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/engine/profile"
)

const (
	maxAttempts = 2
	retryDelay  = time.Second
)

// Generator drives the provider chain. Zero providers is a valid state; the
// offline templates then serve every request.
type Generator struct {
	providers []provider
	sleep     func(time.Duration)
}

// NewGenerator builds the chain from the engine configuration.
func NewGenerator(ctx context.Context) *Generator {
	return &Generator{
		providers: buildProviders(ctx, engine.Cfg),
		sleep:     time.Sleep,
	}
}

// Generate drafts hook + CTA for the profile. It never returns an error:
// when all providers fail the deterministic offline copy is returned, so a
// personalization outage cannot fail an enrichment run.
func (g *Generator) Generate(ctx context.Context, p *profile.ResolvedProfile, uc UserContext) Result {
	if len(g.providers) == 0 {
		return offlineResult(p.Fields, uc)
	}

	start := time.Now()
	prompt := buildPrompt(p.Fields, uc)

	for _, prov := range g.providers {
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if ctx.Err() != nil {
				engine.IncrLLMFallbacks()
				return offlineResult(p.Fields, uc)
			}
			engine.IncrLLMCalls()
			raw, err := prov.complete(ctx, systemPrompt, prompt)
			if err != nil {
				engine.IncrLLMErrors()
				slog.Warn("provider call failed",
					"provider", prov.name(), "attempt", attempt+1, "error", err)
			} else if hook, cta, ok := parseCopy(raw); ok {
				slog.Info("generated personalization",
					"provider", prov.name(), "latency_ms", time.Since(start).Milliseconds())
				return Result{
					Hook:      hook,
					CTA:       cta,
					ModelUsed: prov.name(),
					LatencyMS: time.Since(start).Milliseconds(),
				}
			} else {
				slog.Warn("unparseable provider response", "provider", prov.name())
			}
			if attempt < maxAttempts-1 {
				g.sleep(retryDelay)
			}
		}
	}

	slog.Warn("all personalization providers failed, using offline copy")
	engine.IncrLLMFallbacks()
	return offlineResult(p.Fields, uc)
}

type copyPayload struct {
	IntroHook string `json:"intro_hook"`
	CTA       string `json:"cta"`
}

// stripFences removes markdown code fences from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseCopy extracts hook and cta from model output. Accepts clean JSON,
// fenced JSON, or JSON embedded in surrounding prose. Length caps are
// applied here so every downstream consumer sees bounded text.
func parseCopy(raw string) (hook, cta string, ok bool) {
	s := stripFences(raw)

	var p copyPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		if obj := extractObject(s); obj != "" {
			if err := json.Unmarshal([]byte(obj), &p); err != nil {
				p = copyPayload{}
			}
		}
		if p.IntroHook == "" || p.CTA == "" {
			p.IntroHook = extractJSONField(s, "intro_hook")
			p.CTA = extractJSONField(s, "cta")
		}
	}

	hook = strings.TrimSpace(p.IntroHook)
	cta = strings.TrimSpace(p.CTA)
	if hook == "" || cta == "" {
		return "", "", false
	}
	return capText(hook, MaxHookLen), capText(cta, MaxCTALen), true
}

// capText cuts s to max characters, marking the cut with an ellipsis.
func capText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// extractObject returns the first balanced {...} region of s.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// extractJSONField pulls a single string field out of malformed JSON where
// the value may contain unescaped newlines or stray characters.
func extractJSONField(raw, field string) string {
	prefix := `"` + field + `"`
	idx := strings.Index(raw, prefix)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(raw[idx+len(prefix):])
	if len(rest) == 0 || rest[0] != ':' {
		return ""
	}
	rest = strings.TrimSpace(rest[1:])
	if len(rest) == 0 || rest[0] != '"' {
		return ""
	}
	rest = rest[1:]

	var sb strings.Builder
	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' && i+1 < len(rest) {
			switch rest[i+1] {
			case '"':
				sb.WriteByte('"')
				i++
				continue
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			}
			sb.WriteByte(rest[i])
			continue
		}
		if rest[i] == '"' {
			return sb.String()
		}
		sb.WriteByte(rest[i])
	}
	return sb.String()
}
