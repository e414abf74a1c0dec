package profile

import (
	"github.com/anatolykoptev/go_enrich/internal/engine/sources"
)

// Resolve merges raw provider results into canonical profile fields.
// Pure: same inputs always yield the same output, and raw is never mutated.
//
// Per field: error sources are skipped, nil and empty-string values are
// skipped, the highest-priority remaining candidate wins, and a priority tie
// goes to the candidate listed first. Fields with no usable value are
// omitted entirely.
func Resolve(raw map[string]sources.Result) map[string]any {
	resolved := make(map[string]any)

	for field, candidates := range FieldMap {
		if value, ok := resolveField(candidates, raw); ok {
			resolved[field] = value
		}
	}

	// Email verification signals come only from hunter.
	if hunter, ok := raw["hunter"]; ok && !hunter.Failed() {
		resolved["email_verified"] = hunter.Fields["status"] == "valid"
		if score, ok := hunter.Fields["score"]; ok {
			resolved["email_score"] = score
		}
		resolved["email_deliverable"] = hunter.Fields["result"] == "deliverable"
	}

	// Company context comes only from tavily.
	if tavily, ok := raw["tavily"]; ok && !tavily.Failed() {
		if answer, ok := tavily.Fields["answer"]; ok {
			resolved["company_context"] = answer
		}
		if news, ok := tavily.Fields["results"]; ok {
			resolved["recent_news"] = news
		}
	}

	return resolved
}

// resolveField picks the winning value for one canonical field.
func resolveField(candidates []FieldSource, raw map[string]sources.Result) (any, bool) {
	var best any
	bestPriority := -1

	for _, c := range candidates {
		res, ok := raw[c.Source]
		if !ok || res.Failed() {
			continue
		}
		value, ok := res.Fields[c.Field]
		if !ok || value == nil || value == "" {
			continue
		}
		// Strict > keeps the first candidate on priority ties.
		if p := SourcePriority[c.Source]; p > bestPriority {
			bestPriority = p
			best = value
		}
	}

	if bestPriority < 0 {
		return nil, false
	}
	return best, true
}
