package personalize

import "fmt"

// industryHooks are the offline intro openers keyed by industry slug.
var industryHooks = map[string]string{
	"healthcare":         "Healthcare organizations are modernizing their infrastructure to improve patient outcomes while maintaining strict compliance.",
	"financial_services": "Financial services leaders are balancing regulatory requirements with the need for digital transformation and innovation.",
	"technology":         "Tech companies like yours are pushing the boundaries of what's possible with modern infrastructure and AI workloads.",
	"gaming_media":       "Gaming and media companies need infrastructure that delivers real-time performance at massive scale.",
	"manufacturing":      "Manufacturing leaders are leveraging smart infrastructure to optimize operations and drive efficiency.",
	"retail":             "Retail organizations are transforming customer experiences through modern, scalable technology.",
	"government":         "Government agencies are modernizing citizen services while maintaining the highest security standards.",
	"energy":             "Energy companies are building resilient, sustainable infrastructure for the future.",
	"telecommunications": "Telecom providers are building next-generation networks to meet growing connectivity demands.",
}

var goalIntros = map[string]string{
	"exploring":     "You're taking the right first step by exploring your options.",
	"evaluating":    "Making the right infrastructure decision requires careful evaluation.",
	"learning":      "Staying informed on best practices gives you a strategic advantage.",
	"building_case": "Building a compelling business case starts with the right insights.",
}

var personaCTAs = map[string]string{
	"executive":         "Get the executive summary with ROI insights for your board",
	"it_infrastructure": "Download the technical deep-dive with architecture patterns",
	"security":          "Access the security-focused guide with compliance frameworks",
	"data_ai":           "Get the data infrastructure guide optimized for AI workloads",
	"sales_gtm":         "Download strategies to accelerate your digital sales motion",
	"hr_people":         "Learn how tech modernization impacts talent and culture",
}

const genericHook = "Organizations like yours are discovering new ways to modernize and scale."
const genericCTA = "Download your personalized guide and unlock strategies for your team"

// offlineResult produces deterministic copy from lookup tables. It serves
// both the no-provider configuration and total provider exhaustion.
func offlineResult(fields map[string]any, uc UserContext) Result {
	firstName := fieldOr(fields, "first_name", "")
	company := fieldOr(fields, "company_name", "")
	title := fieldOr(fields, "title", "")
	industry := fieldOr(fields, "industry", "Technology")

	effectiveIndustry := industry
	if uc.Industry != "" {
		effectiveIndustry = uc.Industry
	}

	baseHook, ok := industryHooks[effectiveIndustry]
	if !ok {
		baseHook = genericHook
	}
	goalHook := goalIntros[uc.Goal]

	var hook string
	switch {
	case firstName != "" && company != "":
		hook = joinNonEmpty(goalHook, baseHook)
		if len(hook) < 50 {
			hook = fmt.Sprintf("%s At %s, these insights can drive real impact.", hook, company)
		}
	case firstName != "":
		hook = joinNonEmpty(goalHook, baseHook)
	default:
		hook = baseHook
	}

	var cta string
	switch {
	case personaCTAs[uc.Persona] != "":
		cta = personaCTAs[uc.Persona]
	case title != "":
		cta = fmt.Sprintf("Get your free ebook with actionable insights for %ss like you", title)
	default:
		cta = genericCTA
	}

	return Result{
		Hook:      capText(hook, MaxHookLen),
		CTA:       capText(cta, MaxCTALen),
		ModelUsed: "offline",
	}
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

// SafeHook is the last-resort intro used when generated copy fails
// compliance and cannot be corrected.
func SafeHook(firstName string) string {
	greeting := ""
	if firstName != "" {
		greeting = "Hi " + firstName + ", "
	}
	return greeting + "This guide was created to help professionals like you navigate common challenges in your field."
}

// SafeCTA is the last-resort call to action.
func SafeCTA() string {
	return "Download the guide and discover actionable insights for your team."
}
