// Package render turns generated Markdown into PDF files and bundles them.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Kind is the document type; its value is the file-name suffix.
type Kind string

const (
	LessonPlan Kind = "LP"
	Worksheet  Kind = "WS"
	AnswerKey  Kind = "AK"
)

// Meta is printed under the title and drives file naming.
type Meta struct {
	Code    string
	Grade   string
	Subject string
	// Title replaces the document's own first heading when set.
	Title string
	// RunID, when set, gives the request its own subdirectory so
	// concurrent requests never share files.
	RunID string
}

// Outputs are the files written for one request. Empty paths were not
// produced.
type Outputs struct {
	LessonPlanPath string
	WorksheetPath  string
	AnswerKeyPath  string
	ZipPath        string
}

// PDFs lists the PDF paths that exist in o.
func (o Outputs) PDFs() []string {
	var out []string
	for _, p := range []string{o.LessonPlanPath, o.WorksheetPath, o.AnswerKeyPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Renderer writes PDFs into Dir, or into Dir/<RunID> for run-scoped meta.
type Renderer struct {
	Dir string
	// Now is the clock used for file names and the date line.
	Now func() time.Time
}

// New creates a Renderer writing into dir.
func New(dir string) *Renderer {
	return &Renderer{Dir: dir, Now: time.Now}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Base returns the shared file-name stem: G<grade>-<code>_<yymmdd>.
func (r *Renderer) Base(meta Meta) string {
	code := strings.ReplaceAll(meta.Code, "/", "-")
	code = strings.Join(strings.Fields(code), "")
	name := fmt.Sprintf("G%s-%s_%s", strings.TrimSpace(meta.Grade), code, r.now().Format("060102"))
	return unsafeName.ReplaceAllString(name, "")
}

// RunDir is the directory files for meta are written to.
func (r *Renderer) RunDir(meta Meta) string {
	run := unsafeName.ReplaceAllString(meta.RunID, "")
	run = strings.TrimLeft(run, ".")
	if run == "" {
		return r.Dir
	}
	return filepath.Join(r.Dir, run)
}

// FileName returns the PDF name for kind.
func (r *Renderer) FileName(kind Kind, meta Meta) string {
	return fmt.Sprintf("%s_%s.pdf", r.Base(meta), kind)
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Render writes markdown as a PDF and returns its path.
func (r *Renderer) Render(kind Kind, markdown string, meta Meta) (string, error) {
	dir := r.RunDir(meta)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, r.FileName(kind, meta))

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(20, 18, 20)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle(meta.Code+" "+string(kind), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s  |  page %d", meta.Code, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	w := &writer{pdf: pdf, tr: tr}
	lines := Parse(markdown)
	if meta.Title != "" {
		lines = replaceTitle(lines, meta.Title)
	}
	for i, l := range lines {
		w.line(l)
		if i == 0 && l.Style == Heading1 {
			w.metaLine(meta, r.now())
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// replaceTitle drops the document's first top-level heading and puts title
// in front.
func replaceTitle(lines []Line, title string) []Line {
	out := []Line{{Style: Heading1, Text: title}}
	dropped := false
	for _, l := range lines {
		if !dropped && l.Style == Heading1 {
			dropped = true
			continue
		}
		out = append(out, l)
	}
	return out
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) line(l Line) {
	p := w.pdf
	p.SetTextColor(0, 0, 0)
	switch l.Style {
	case Heading1:
		p.SetFont("Helvetica", "B", 16)
		p.MultiCell(0, 8, w.tr(l.Text), "", "L", false)
		p.Ln(1)
	case Heading2:
		p.Ln(2)
		p.SetFont("Helvetica", "B", 13)
		p.MultiCell(0, 7, w.tr(l.Text), "", "L", false)
	case Bold:
		p.SetFont("Helvetica", "B", 11)
		p.MultiCell(0, 6, w.tr(l.Text), "", "L", false)
	case Bullet:
		left, _, _, _ := p.GetMargins()
		indent := 4.0 + 6.0*float64(l.Level)
		p.SetFont("Helvetica", "", 11)
		p.SetX(left + indent)
		p.CellFormat(5, 6, w.tr("•"), "", 0, "L", false, 0, "")
		p.MultiCell(0, 6, w.tr(l.Text), "", "L", false)
	case Blank:
		p.Ln(3)
	default:
		p.SetFont("Helvetica", "", 11)
		p.MultiCell(0, 6, w.tr(l.Text), "", "L", false)
	}
}

func (w *writer) metaLine(meta Meta, now time.Time) {
	var parts []string
	if meta.Code != "" {
		parts = append(parts, "TEKS "+meta.Code)
	}
	if meta.Grade != "" {
		parts = append(parts, "Grade "+meta.Grade)
	}
	if meta.Subject != "" {
		parts = append(parts, meta.Subject)
	}
	parts = append(parts, now.Format("2006-01-02"))

	w.pdf.SetFont("Helvetica", "", 9)
	w.pdf.SetTextColor(90, 90, 90)
	w.pdf.MultiCell(0, 5, w.tr(strings.Join(parts, "  ·  ")), "", "L", false)
	w.pdf.Ln(2)
}
