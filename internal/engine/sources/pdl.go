package sources

import (
	"context"
	"log/slog"
)

const pdlBaseURL = "https://api.peopledatalabs.com/v5"

// pdlResponse is the person/enrich response body (fields are top-level).
type pdlResponse struct {
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	FullName           string          `json:"full_name"`
	LinkedinURL        string          `json:"linkedin_url"`
	JobTitle           string          `json:"job_title"`
	JobCompanyName     string          `json:"job_company_name"`
	JobCompanyIndustry string          `json:"job_company_industry"`
	JobCompanySize     string          `json:"job_company_size"`
	LocationCountry    string          `json:"location_country"`
	LocationRegion     string          `json:"location_region"`
	LocationLocality   string          `json:"location_locality"`
	Skills             []string        `json:"skills"`
	Interests          []string        `json:"interests"`
	Experience         []pdlExperience `json:"experience"`
}

type pdlExperience struct {
	Title   pdlTitle   `json:"title"`
	Company pdlCompany `json:"company"`
}

type pdlTitle struct {
	Name string `json:"name"`
}

type pdlCompany struct {
	Name string `json:"name"`
}

// PDL is the People Data Labs person enrichment adapter.
type PDL struct {
	apiKey  string
	baseURL string
}

// NewPDL builds the adapter. Empty apiKey enables mock mode.
func NewPDL(apiKey string) *PDL {
	return &PDL{apiKey: apiKey, baseURL: pdlBaseURL}
}

func (p *PDL) Name() string { return "pdl" }

func (p *PDL) Enrich(ctx context.Context, email, domain string) Result {
	if p.apiKey == "" {
		slog.Debug("pdl: no API key, serving mock", slog.String("email", email))
		return ok(p.Name(), mockPDL(email), true)
	}

	u := withQuery(p.baseURL+"/person/enrich", map[string]string{"email": email})
	var resp pdlResponse
	if err := fetchJSON(ctx, "GET", u, map[string]string{"X-Api-Key": p.apiKey}, nil, &resp); err != nil {
		slog.Warn("pdl: enrich failed", slog.String("email", email), slog.Any("error", err))
		return fail(p.Name(), err)
	}

	return ok(p.Name(), pruneAbsent(map[string]any{
		"email":                email,
		"first_name":           resp.FirstName,
		"last_name":            resp.LastName,
		"full_name":            resp.FullName,
		"linkedin_url":         resp.LinkedinURL,
		"job_title":            resp.JobTitle,
		"job_company_name":     resp.JobCompanyName,
		"job_company_industry": resp.JobCompanyIndustry,
		"job_company_size":     resp.JobCompanySize,
		"location_country":     resp.LocationCountry,
		"location_region":      resp.LocationRegion,
		"location_locality":    resp.LocationLocality,
		"skills":               capStrings(resp.Skills, 10),
		"interests":            capStrings(resp.Interests, 10),
		"experience":           recentExperience(resp.Experience),
	}), false)
}

// capStrings limits a string slice to n entries.
func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// recentExperience keeps the last 3 positions as compact maps.
func recentExperience(exp []pdlExperience) []map[string]string {
	if len(exp) > 3 {
		exp = exp[:3]
	}
	out := make([]map[string]string, 0, len(exp))
	for _, e := range exp {
		out = append(out, map[string]string{
			"title":   e.Title.Name,
			"company": e.Company.Name,
		})
	}
	return out
}
