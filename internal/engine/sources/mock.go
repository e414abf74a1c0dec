package sources

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

// Mock payloads stand in for providers without configured credentials. They
// are pure functions of the email/domain so repeated runs stay identical,
// which keeps the pipeline testable offline end to end.

func mockApollo(email, domain string) map[string]any {
	username := strings.SplitN(email, "@", 2)[0]
	if domain == "" {
		domain = engine.DomainFromEmail(email)
	}
	first, last := splitUsername(username)
	return map[string]any{
		"email":        email,
		"first_name":   first,
		"last_name":    last,
		"title":        "Professional",
		"linkedin_url": "https://linkedin.com/in/" + username,
		"company_name": "Company at " + domain,
		"domain":       domain,
		"industry":     "Technology",
		"company_size": "50-200",
		"country":      "US",
	}
}

func mockPDL(email string) map[string]any {
	return map[string]any{
		"email":                email,
		"location_country":     "United States",
		"job_company_industry": "Software",
		"job_company_size":     "51-200",
		"skills":               []string{"Sales", "Marketing", "Strategy"},
	}
}

func mockHunter(email string) map[string]any {
	webmail := strings.Contains(email, "@gmail") ||
		strings.Contains(email, "@yahoo") ||
		strings.Contains(email, "@hotmail")
	return map[string]any{
		"email":      email,
		"status":     "valid",
		"result":     "deliverable",
		"score":      90,
		"disposable": false,
		"webmail":    webmail,
	}
}

func mockTavily(domain string) map[string]any {
	return map[string]any{
		"domain":       domain,
		"answer":       fmt.Sprintf("Company at %s is a technology company.", domain),
		"results":      []map[string]any{},
		"result_count": 0,
	}
}

func mockZoomInfo(domain string) map[string]any {
	return map[string]any{
		"domain":         domain,
		"company_name":   "Company at " + domain,
		"industry":       "Technology",
		"employee_count": 100,
		"country":        "United States",
	}
}

// splitUsername derives a first/last name pair from the local part of an
// email. "jane.doe" → ("Jane", "Doe"); "jane" → ("Jane", "User").
func splitUsername(username string) (first, last string) {
	if i := strings.Index(username, "."); i > 0 {
		parts := strings.Split(username, ".")
		return titleCase(parts[0]), titleCase(parts[len(parts)-1])
	}
	return titleCase(username), "User"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
