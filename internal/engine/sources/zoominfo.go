package sources

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

const zoominfoBaseURL = "https://api.zoominfo.com"

// zoominfoResponse is the search/company response envelope.
type zoominfoResponse struct {
	Data []zoominfoCompany `json:"data"`
}

type zoominfoCompany struct {
	Name          string   `json:"name"`
	Website       string   `json:"website"`
	Industry      string   `json:"industry"`
	SubIndustry   string   `json:"subIndustry"`
	EmployeeCount int      `json:"employeeCount"`
	Revenue       float64  `json:"revenue"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Country       string   `json:"country"`
	Description   string   `json:"description"`
	FoundedYear   int      `json:"foundedYear"`
	TechStackIDs  []string `json:"techStackIds"`
}

// ZoomInfo is the company enrichment adapter.
type ZoomInfo struct {
	apiKey  string
	baseURL string
}

// NewZoomInfo builds the adapter. Empty apiKey enables mock mode.
func NewZoomInfo(apiKey string) *ZoomInfo {
	return &ZoomInfo{apiKey: apiKey, baseURL: zoominfoBaseURL}
}

func (z *ZoomInfo) Name() string { return "zoominfo" }

func (z *ZoomInfo) Enrich(ctx context.Context, email, domain string) Result {
	if domain == "" {
		domain = engine.DomainFromEmail(email)
	}
	if z.apiKey == "" {
		slog.Debug("zoominfo: no API key, serving mock", slog.String("domain", domain))
		return ok(z.Name(), mockZoomInfo(domain), true)
	}

	var resp zoominfoResponse
	err := fetchJSON(ctx, "POST", z.baseURL+"/search/company", map[string]string{
		"Authorization": "Bearer " + z.apiKey,
	}, map[string]any{
		"matchCompanyInput": []map[string]string{{"companyWebsite": domain}},
		"outputFields": []string{
			"id", "name", "website", "industry", "subIndustry",
			"employeeCount", "revenue", "city", "state", "country",
			"description", "foundedYear", "techStackIds",
		},
	}, &resp)
	if err != nil {
		slog.Warn("zoominfo: enrich failed", slog.String("domain", domain), slog.Any("error", err))
		return fail(z.Name(), err)
	}

	var c zoominfoCompany
	if len(resp.Data) > 0 {
		c = resp.Data[0]
	}

	return ok(z.Name(), pruneAbsent(map[string]any{
		"domain":         domain,
		"company_name":   c.Name,
		"website":        c.Website,
		"industry":       c.Industry,
		"sub_industry":   c.SubIndustry,
		"employee_count": c.EmployeeCount,
		"revenue":        c.Revenue,
		"city":           c.City,
		"state":          c.State,
		"country":        c.Country,
		"description":    engine.HTMLText(c.Description),
		"founded_year":   c.FoundedYear,
		"tech_stack":     c.TechStackIDs,
	}), false)
}
