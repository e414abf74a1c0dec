package sources

import (
	"context"
	"log/slog"
)

const apolloBaseURL = "https://api.apollo.io/v1"

// apolloResponse is the people/match response envelope.
type apolloResponse struct {
	Person apolloPerson `json:"person"`
}

type apolloPerson struct {
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Title        string        `json:"title"`
	LinkedinURL  string        `json:"linkedin_url"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	Country      string        `json:"country"`
	Seniority    string        `json:"seniority"`
	Departments  []string      `json:"departments"`
	Organization apolloCompany `json:"organization"`
}

type apolloCompany struct {
	Name               string `json:"name"`
	PrimaryDomain      string `json:"primary_domain"`
	Industry           string `json:"industry"`
	EstimatedEmployees int    `json:"estimated_num_employees"`
}

// Apollo is the Apollo.io people enrichment adapter.
type Apollo struct {
	apiKey  string
	baseURL string
}

// NewApollo builds the adapter. Empty apiKey enables mock mode.
func NewApollo(apiKey string) *Apollo {
	return &Apollo{apiKey: apiKey, baseURL: apolloBaseURL}
}

func (a *Apollo) Name() string { return "apollo" }

func (a *Apollo) Enrich(ctx context.Context, email, domain string) Result {
	if a.apiKey == "" {
		slog.Debug("apollo: no API key, serving mock", slog.String("email", email))
		return ok(a.Name(), mockApollo(email, domain), true)
	}

	var resp apolloResponse
	err := fetchJSON(ctx, "POST", a.baseURL+"/people/match", nil, map[string]any{
		"api_key":                a.apiKey,
		"email":                  email,
		"reveal_personal_emails": false,
	}, &resp)
	if err != nil {
		slog.Warn("apollo: enrich failed", slog.String("email", email), slog.Any("error", err))
		return fail(a.Name(), err)
	}

	p := resp.Person
	return ok(a.Name(), pruneAbsent(map[string]any{
		"email":        email,
		"first_name":   p.FirstName,
		"last_name":    p.LastName,
		"title":        p.Title,
		"linkedin_url": p.LinkedinURL,
		"company_name": p.Organization.Name,
		"domain":       p.Organization.PrimaryDomain,
		"industry":     p.Organization.Industry,
		"company_size": mapEmployeeCount(p.Organization.EstimatedEmployees),
		"city":         p.City,
		"state":        p.State,
		"country":      p.Country,
		"seniority":    p.Seniority,
		"departments":  p.Departments,
	}), false)
}

// mapEmployeeCount buckets a raw employee count into a size range.
func mapEmployeeCount(count int) string {
	switch {
	case count <= 0:
		return "Unknown"
	case count < 10:
		return "1-10"
	case count < 50:
		return "11-50"
	case count < 200:
		return "50-200"
	case count < 500:
		return "200-500"
	case count < 1000:
		return "500-1000"
	default:
		return "1000+"
	}
}
