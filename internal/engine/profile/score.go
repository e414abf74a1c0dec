package profile

import "github.com/anatolykoptev/go_enrich/internal/engine/sources"

// Score computes the data quality score for one enrichment run.
//
// Coverage counts sources that returned real data (mock payloads do not
// count, and neither do errors); each high-trust source delivering real data
// adds 0.1 on top. The result is clamped to [0, 1]. An all-failed or
// all-mock run scores 0.
func Score(raw map[string]sources.Result, totalSources int) float64 {
	if totalSources <= 0 {
		return 0
	}

	successful := 0
	for _, r := range raw {
		if usable(r) {
			successful++
		}
	}
	score := float64(successful) / float64(totalSources)

	for _, name := range highTrustSources {
		if r, ok := raw[name]; ok && usable(r) {
			score += 0.1
		}
	}

	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}

// usable reports whether a result carries real data: non-error, non-mock,
// and at least one field.
func usable(r sources.Result) bool {
	return !r.Failed() && !r.Mock && len(r.Fields) > 0
}
