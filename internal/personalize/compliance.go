package personalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

// bannedTerms maps unsubstantiated-claim phrases to neutral replacements.
// Matching is case-insensitive on word boundaries; multi-word phrases are
// checked before their substrings.
var bannedTerms = []struct {
	term        string
	replacement string
}{
	{"best in class", "well regarded"},
	{"best-in-class", "well regarded"},
	{"world-class", "high quality"},
	{"world class", "high quality"},
	{"industry-leading", "established"},
	{"industry leading", "established"},
	{"cutting-edge", "modern"},
	{"cutting edge", "modern"},
	{"revolutionary", "innovative"},
	{"guaranteed", "designed"},
	{"guarantee", "aim"},
	{"proven", "practical"},
	{"#1", "leading"},
	{"number one", "leading"},
	{"unbeatable", "competitive"},
	{"risk-free", "low-risk"},
}

var bannedPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(bannedTerms))
	for i, t := range bannedTerms {
		// \b only works against word characters, so terms like "#1"
		// get the boundary on their word-character side only.
		expr := regexp.QuoteMeta(t.term)
		if isWordChar(t.term[0]) {
			expr = `\b` + expr
		}
		if isWordChar(t.term[len(t.term)-1]) {
			expr += `\b`
		}
		out[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return out
}()

func isWordChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// CheckResult reports a compliance pass over generated copy.
type CheckResult struct {
	Passed        bool     `json:"passed"`
	Issues        []string `json:"issues,omitempty"`
	CorrectedHook string   `json:"corrected_hook,omitempty"`
	CorrectedCTA  string   `json:"corrected_cta,omitempty"`
}

// Check scans hook and cta for banned claim language. With autoCorrect the
// result carries rewritten texts; without it the caller is expected to swap
// in SafeHook/SafeCTA on failure.
func Check(hook, cta string, autoCorrect bool) CheckResult {
	res := CheckResult{Passed: true}

	for i, pat := range bannedPatterns {
		if pat.MatchString(hook) {
			res.Issues = append(res.Issues, fmt.Sprintf("hook contains %q", bannedTerms[i].term))
		}
		if pat.MatchString(cta) {
			res.Issues = append(res.Issues, fmt.Sprintf("cta contains %q", bannedTerms[i].term))
		}
	}
	if len(res.Issues) == 0 {
		return res
	}

	res.Passed = false
	if autoCorrect {
		res.CorrectedHook = correct(hook)
		res.CorrectedCTA = correct(cta)
		engine.IncrComplianceFixes()
	}
	return res
}

func correct(s string) string {
	for i, pat := range bannedPatterns {
		s = pat.ReplaceAllString(s, bannedTerms[i].replacement)
	}
	return strings.TrimSpace(s)
}
