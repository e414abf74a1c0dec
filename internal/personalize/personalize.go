// Package personalize drafts short marketing copy (intro hook + CTA) from a
// resolved profile. Providers are tried in a fixed order and the package
// degrades to deterministic offline templates when no provider is usable.
package personalize

// Result is the personalization outcome for one profile.
type Result struct {
	Hook      string `json:"hook"`
	CTA       string `json:"cta"`
	ModelUsed string `json:"model_used"`
	LatencyMS int64  `json:"latency_ms"`
}

// UserContext carries form-provided targeting hints. All fields optional;
// they take precedence over API-derived profile fields.
type UserContext struct {
	Goal     string `json:"goal,omitempty"`
	Persona  string `json:"persona,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// Output length caps, enforced after parsing.
const (
	MaxHookLen = 200
	MaxCTALen  = 150
)
