package personalize

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

const systemPrompt = `You are a B2B marketing copywriter creating personalized content for ebook landing pages.

Your task: Generate a personalized intro hook (1-2 sentences) and call-to-action (CTA) based on the prospect's profile.

Rules:
1. Be conversational and specific to their role/company
2. Reference their industry or company context when available
3. Keep intro under 200 characters
4. Keep CTA under 150 characters
5. Do NOT make unsubstantiated claims (no "guaranteed", "proven", "#1", etc.)
6. Do NOT use superlatives without evidence
7. Sound helpful, not salesy

Output ONLY valid JSON in this exact format:
{
  "intro_hook": "Your personalized intro here",
  "cta": "Your call to action here"
}

No other text before or after the JSON.`

// goalDescriptions maps buying-stage slugs to natural language.
var goalDescriptions = map[string]string{
	"awareness":      "just starting to research and explore options",
	"consideration":  "actively evaluating and comparing different solutions",
	"decision":       "ready to make a decision and need final validation",
	"implementation": "already implementing and looking for guidance",
	"exploring":      "exploring modernization options and doing early research",
	"evaluating":     "comparing different approaches for their organization",
	"learning":       "learning about best practices and industry trends",
	"building_case":  "building a business case to present internally",
}

var personaDescriptions = map[string]string{
	"c_suite":           "a C-suite executive (CEO, CTO, CIO, CFO) focused on strategic outcomes and ROI",
	"vp_director":       "a VP or Director level leader balancing strategy with execution",
	"it_infrastructure": "an IT/Infrastructure manager overseeing technical operations",
	"engineering":       "an engineering or DevOps professional focused on implementation",
	"data_ai":           "a data science or AI/ML professional optimizing workloads",
	"security":          "a security or compliance professional protecting systems and data",
	"procurement":       "a procurement professional evaluating vendors and costs",
	"executive":         "an executive leader (C-suite or VP level) focused on strategic decisions",
	"sales_gtm":         "a sales or GTM leader driving revenue growth",
	"hr_people":         "an HR/People Ops professional managing talent and culture",
	"other":             "a professional seeking industry insights",
}

var industryAngles = map[string]string{
	"technology":            "innovation velocity, scalability, and technical excellence",
	"financial_services":    "risk management, regulatory compliance, and digital transformation",
	"healthcare":            "compliance, patient outcomes, and operational efficiency",
	"retail_ecommerce":      "customer experience, omnichannel strategy, and real-time inventory",
	"manufacturing":         "operational efficiency, supply chain optimization, and IoT",
	"telecommunications":    "network performance, 5G adoption, and content delivery",
	"energy_utilities":      "grid modernization, sustainability, and operational resilience",
	"government":            "security, compliance, and citizen services modernization",
	"education":             "research computing, student outcomes, and secure data management",
	"professional_services": "client delivery efficiency, knowledge management, and scale",
	"gaming_media":          "user engagement, content delivery, and real-time performance",
	"retail":                "customer experience, omnichannel strategy, and inventory management",
	"energy":                "grid modernization, sustainability, and operational resilience",
}

// fieldOr reads a string field from a profile field map with a default.
func fieldOr(fields map[string]any, key, def string) string {
	if v, ok := fields[key].(string); ok && v != "" {
		return v
	}
	return def
}

// buildPrompt renders profile fields and user context into the generation
// prompt. User-provided context wins over API-derived fields.
func buildPrompt(fields map[string]any, uc UserContext) string {
	firstName := fieldOr(fields, "first_name", "there")
	company := fieldOr(fields, "company_name", "your company")
	title := fieldOr(fields, "title", "professional")
	industry := fieldOr(fields, "industry", "your industry")
	companySize := fieldOr(fields, "company_size", "")
	companyContext := fieldOr(fields, "company_context", "")
	seniority := fieldOr(fields, "seniority", "")

	effectiveIndustry := industry
	if uc.Industry != "" {
		effectiveIndustry = uc.Industry
	}

	var b strings.Builder
	b.WriteString("Create personalized content for this prospect:\n\n")
	fmt.Fprintf(&b, "- First Name: %s\n", firstName)
	fmt.Fprintf(&b, "- Company: %s\n", company)
	fmt.Fprintf(&b, "- Title: %s\n", title)
	fmt.Fprintf(&b, "- Industry: %s\n", effectiveIndustry)
	if companySize != "" {
		fmt.Fprintf(&b, "- Company Size: %s\n", companySize)
	}
	if seniority != "" {
		fmt.Fprintf(&b, "- Seniority: %s\n", seniority)
	}

	if uc.Goal != "" {
		desc := uc.Goal
		if d, ok := goalDescriptions[uc.Goal]; ok {
			desc = d
		}
		fmt.Fprintf(&b, "\nThis person is currently %s.\n", desc)
	}
	if uc.Persona != "" {
		desc := uc.Persona
		if d, ok := personaDescriptions[uc.Persona]; ok {
			desc = d
		}
		fmt.Fprintf(&b, "They are %s.\n", desc)
	}
	if angles, ok := industryAngles[effectiveIndustry]; ok {
		fmt.Fprintf(&b, "In their industry, key concerns include %s.\n", angles)
	}
	if companyContext != "" {
		fmt.Fprintf(&b, "\nRecent company context: %s\n", engine.Truncate(companyContext, 500))
	}

	b.WriteString("\nGenerate content that speaks directly to their role, goals, and industry context.\n")
	b.WriteString("Make it specific and actionable, not generic.\n")
	b.WriteString("\nGenerate the JSON response now.")
	return b.String()
}
