package pdfgen

import (
	"html/template"
	"strings"
	"time"
)

// ebookTemplate is the personalized guide, rendered to HTML first so the
// copy can be reviewed in a browser, then converted for layout.
var ebookTemplate = template.Must(template.New("ebook").Parse(`<!DOCTYPE html>
<html>
<head><title>Your Personalized Guide</title></head>
<body>
<h1>Strategic Growth Guide</h1>
<p>Personalized insights for {{.CompanyName}}</p>
<p>Prepared for: {{.FirstName}}</p>
<p>{{.GeneratedDate}}</p>

<h2>A Message For You</h2>
<p>{{.IntroHook}}</p>

<h2>Chapter 1: Understanding the Landscape</h2>
<p>The {{.Industry}} sector is evolving rapidly. Companies like {{.CompanyName}} are at the forefront of this transformation, and leaders in your position as {{.Title}} play a crucial role in driving success.</p>
<p><strong>Key Insight:</strong> Organizations that adapt their strategies early see better outcomes in competitive markets.</p>
<p>In this guide, we explore actionable strategies tailored to your role and industry. Each section builds on practical methodologies that have helped similar organizations achieve their goals.</p>

<h2>Chapter 2: Strategic Frameworks</h2>
<p>Effective strategy requires a structured approach. For {{.Title}} roles in {{.Industry}}, we recommend focusing on three key areas:</p>
<p><strong>1. Alignment</strong> - Ensure your team's efforts connect directly to organizational objectives.</p>
<p><strong>2. Measurement</strong> - Establish clear metrics that reflect true progress.</p>
<p><strong>3. Iteration</strong> - Build feedback loops that enable continuous improvement.</p>
<p><strong>Pro Tip:</strong> Start with one area and expand. Trying to transform everything at once often leads to none succeeding.</p>

<h2>Chapter 3: Implementation Roadmap</h2>
<p>Turning strategy into action requires careful planning. Here is a practical 90-day roadmap:</p>
<p><strong>Days 1-30:</strong> Assessment and alignment. Understand current state and stakeholder needs.</p>
<p><strong>Days 31-60:</strong> Pilot and learn. Test approaches with a controlled group.</p>
<p><strong>Days 61-90:</strong> Scale and optimize. Expand what works, adjust what does not.</p>
<p>Remember, {{.FirstName}}, the goal is not perfection, it is progress. Each step forward builds momentum for the next.</p>

<h2>Ready to Take the Next Step?</h2>
<p>{{.CTA}}</p>

<hr>
<p>This guide was personalized for {{.FirstName}} at {{.CompanyName}}</p>
<p>Generated on {{.GeneratedDate}}</p>
</body>
</html>`))

type templateData struct {
	FirstName     string
	CompanyName   string
	Title         string
	Industry      string
	IntroHook     string
	CTA           string
	GeneratedDate string
}

// renderHTML fills the ebook template from profile fields plus copy.
func renderHTML(fields map[string]any, hook, cta string, now time.Time) (string, error) {
	data := templateData{
		FirstName:     fieldOr(fields, "first_name", "Reader"),
		CompanyName:   fieldOr(fields, "company_name", "your company"),
		Title:         fieldOr(fields, "title", "Professional"),
		Industry:      fieldOr(fields, "industry", "your industry"),
		IntroHook:     hook,
		CTA:           cta,
		GeneratedDate: now.UTC().Format("January 2, 2006"),
	}

	var sb strings.Builder
	if err := ebookTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func fieldOr(fields map[string]any, key, def string) string {
	if v, ok := fields[key].(string); ok && v != "" {
		return v
	}
	return def
}
