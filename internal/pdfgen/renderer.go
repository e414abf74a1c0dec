// Package pdfgen renders the personalized ebook. The document goes through
// three stages: an html/template ebook, a markdown conversion of that HTML,
// and an A4 layout of the markdown blocks.
package pdfgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-pdf/fpdf"

	"github.com/anatolykoptev/go_enrich/internal/engine"
)

// Download links expire after a week; the delivery record carries the
// deadline so cleanup can run out of band.
const expiryDays = 7

// Document describes one rendered PDF on disk.
type Document struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size_bytes"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Renderer writes ebooks under a fixed output directory.
type Renderer struct {
	outDir string
}

func New(outDir string) *Renderer {
	return &Renderer{outDir: outDir}
}

// Render produces the personalized ebook for one profile and returns its
// on-disk metadata.
func (r *Renderer) Render(email, jobID string, fields map[string]any, hook, cta string) (*Document, error) {
	now := time.Now().UTC()

	htmlDoc, err := renderHTML(fields, hook, cta, now)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(htmlDoc)
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}

	if err := os.MkdirAll(r.outDir, 0750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", r.outDir, err)
	}
	path := filepath.Join(r.outDir, filename(email, jobID, now))

	if err := layoutPDF(md, path); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	engine.IncrPDFGenerated()
	return &Document{
		Path:        path,
		Size:        info.Size(),
		GeneratedAt: now,
		ExpiresAt:   now.Add(expiryDays * 24 * time.Hour),
	}, nil
}

// filename hashes the email so the address never appears in storage paths.
func filename(email, jobID string, now time.Time) string {
	sum := sha256.Sum256([]byte(email))
	return fmt.Sprintf("ebook_%s_%s_%s.pdf",
		hex.EncodeToString(sum[:])[:8], jobID, now.Format("20060102_150405"))
}

// layoutPDF walks markdown blocks and lays them out on A4 pages.
// Markdown here is our own template output, so only headings, emphasis,
// and rules need handling.
func layoutPDF(md, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	for _, block := range strings.Split(md, "\n\n") {
		line := strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "# "):
			pdf.SetFont("Helvetica", "B", 20)
			pdf.MultiCell(0, 10, strings.TrimPrefix(line, "# "), "", "L", false)
			pdf.Ln(4)
		case strings.HasPrefix(line, "## "):
			pdf.SetFont("Helvetica", "B", 14)
			pdf.MultiCell(0, 8, strings.TrimPrefix(line, "## "), "", "L", false)
			pdf.Ln(2)
		case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "***"):
			pdf.Ln(4)
		default:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 6, stripEmphasis(line), "", "L", false)
			pdf.Ln(2)
		}
	}

	return pdf.OutputFileAndClose(path)
}

func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "\\-", "-")
	return s
}
