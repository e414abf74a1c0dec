// Package profile implements the profile resolution engine: concurrent
// provider fan-out, priority-based field merging, and quality scoring.
package profile

// Source trust priority (higher = more trusted).
var SourcePriority = map[string]int{
	"apollo":   5,
	"zoominfo": 4,
	"pdl":      3,
	"hunter":   2,
	"tavily":   1,
}

// highTrustSources earn a quality bonus when they deliver real data.
var highTrustSources = []string{"apollo", "zoominfo"}

// FieldSource names one provider field that can feed a canonical field.
type FieldSource struct {
	Source string
	Field  string
}

// FieldMap maps each canonical profile field to its candidate provider
// fields. Candidate order is the tiebreak when priorities collide, so the
// lists are authored deliberately.
var FieldMap = map[string][]FieldSource{
	"first_name": {
		{"apollo", "first_name"},
		{"pdl", "first_name"},
	},
	"last_name": {
		{"apollo", "last_name"},
		{"pdl", "last_name"},
	},
	"full_name": {
		{"pdl", "full_name"},
	},
	"title": {
		{"apollo", "title"},
		{"pdl", "job_title"},
	},
	"company_name": {
		{"apollo", "company_name"},
		{"zoominfo", "company_name"},
		{"pdl", "job_company_name"},
	},
	"industry": {
		{"apollo", "industry"},
		{"zoominfo", "industry"},
		{"pdl", "job_company_industry"},
	},
	"company_size": {
		{"apollo", "company_size"},
		{"pdl", "job_company_size"},
	},
	"employee_count": {
		{"zoominfo", "employee_count"},
	},
	"linkedin_url": {
		{"apollo", "linkedin_url"},
		{"pdl", "linkedin_url"},
	},
	"city": {
		{"apollo", "city"},
		{"zoominfo", "city"},
		{"pdl", "location_locality"},
	},
	"state": {
		{"apollo", "state"},
		{"zoominfo", "state"},
		{"pdl", "location_region"},
	},
	"country": {
		{"apollo", "country"},
		{"zoominfo", "country"},
		{"pdl", "location_country"},
	},
	"seniority": {
		{"apollo", "seniority"},
	},
	"skills": {
		{"pdl", "skills"},
	},
	"company_description": {
		{"zoominfo", "description"},
	},
	"founded_year": {
		{"zoominfo", "founded_year"},
	},
}

// validateFieldMap checks that every candidate source carries a priority.
// A field map naming a source without one is a programming error, caught at
// engine construction rather than mid-resolution.
func validateFieldMap(fm map[string][]FieldSource) error {
	for field, candidates := range fm {
		if len(candidates) == 0 {
			return &FieldMapError{Field: field, Reason: "no candidate sources"}
		}
		for _, c := range candidates {
			if c.Source == "" || c.Field == "" {
				return &FieldMapError{Field: field, Reason: "empty source or field name"}
			}
			if _, ok := SourcePriority[c.Source]; !ok {
				return &FieldMapError{Field: field, Reason: "source " + c.Source + " has no priority"}
			}
		}
	}
	return nil
}

// FieldMapError reports a malformed field map entry.
type FieldMapError struct {
	Field  string
	Reason string
}

func (e *FieldMapError) Error() string {
	return "field map: " + e.Field + ": " + e.Reason
}
