// Package web serves the generation form, downloads and a small JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html"
	"html/template"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/abhisek/staarai/internal/contentgen"
	"github.com/abhisek/staarai/internal/llm"
	"github.com/abhisek/staarai/internal/pipeline"
	"github.com/abhisek/staarai/internal/teks"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Runner runs one generation request.
type Runner interface {
	Run(ctx context.Context, req contentgen.Request, sel pipeline.Selection) (*pipeline.Result, error)
}

// Pinger reports whether the event database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler holds dependencies for the web surface.
type Handler struct {
	Catalog       *teks.Catalog
	Runner        Runner
	OutputDir     string
	ShowAlignment bool
	DB            Pinger
	Log           *zap.Logger

	notes *bluemonday.Policy
}

// NewHandler constructs a Handler. db may be nil.
func NewHandler(catalog *teks.Catalog, runner Runner, outputDir string, showAlignment bool, db Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Catalog:       catalog,
		Runner:        runner,
		OutputDir:     outputDir,
		ShowAlignment: showAlignment,
		DB:            db,
		Log:           logger,
		notes:         bluemonday.StrictPolicy(),
	}
}

type formVM struct {
	Grades    []string
	Subjects  []teks.Subject
	Types     []contentgen.QuestionType
	Standards []teks.Standard
	Form      formValues
	Error     string
}

type formValues struct {
	Grade       string
	Subject     string
	Code        string
	Kind        string
	Bilingual   bool
	StrictAlign bool
	Types       map[contentgen.QuestionType]bool
	Notes       string
	Attachments string
}

type resultVM struct {
	Code          string
	Files         []fileLink
	Notices       []string
	ShowAlignment bool
	Reviews       []reviewVM
}

type fileLink struct {
	Label string
	Run   string
	Name  string
}

type reviewVM struct {
	Kind      string
	Score     float64
	Threshold float64
	Revised   bool
	Repaired  bool
	Issues    []string
	Items     []string
}

func defaultForm() formValues {
	return formValues{
		Grade:       "3",
		Subject:     string(teks.Math),
		Kind:        string(pipeline.SelectBoth),
		Bilingual:   true,
		StrictAlign: true,
		Types:       map[contentgen.QuestionType]bool{contentgen.MultipleChoice: true},
	}
}

func (h *Handler) formVM(f formValues) formVM {
	subject, _ := teks.ParseSubject(f.Subject)
	return formVM{
		Grades:    []string{"K", "1", "2", "3", "4", "5", "6"},
		Subjects:  []teks.Subject{teks.Math, teks.Reading},
		Types:     []contentgen.QuestionType{contentgen.MultipleChoice, contentgen.ShortAnswer, contentgen.OpenResponse},
		Standards: h.Catalog.ListBy(teks.NormalizeGrade(f.Grade), subject),
		Form:      f,
	}
}

// ServeForm handles GET /.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	f := defaultForm()
	if g := r.URL.Query().Get("grade"); g != "" {
		f.Grade = string(teks.NormalizeGrade(g))
	}
	if s := r.URL.Query().Get("subject"); s != "" {
		f.Subject = s
	}
	h.render(w, http.StatusOK, "form", h.formVM(f))
}

// Generate handles POST /generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "form", h.formError(defaultForm(), "Could not read the form."))
		return
	}

	f := formValues{
		Grade:       string(teks.NormalizeGrade(r.PostFormValue("grade"))),
		Subject:     r.PostFormValue("subject"),
		Code:        strings.TrimSpace(r.PostFormValue("code")),
		Kind:        r.PostFormValue("kind"),
		Bilingual:   r.PostFormValue("bilingual") != "",
		StrictAlign: r.PostFormValue("strict_align") != "",
		Types:       map[contentgen.QuestionType]bool{},
		Notes:       h.sanitize(r.PostFormValue("notes")),
		Attachments: h.sanitize(r.PostFormValue("attachments")),
	}

	subject, err := teks.ParseSubject(f.Subject)
	if err != nil {
		h.render(w, http.StatusBadRequest, "form", h.formError(f, "Choose Math or Reading."))
		return
	}
	sel, err := pipeline.ParseSelection(f.Kind)
	if err != nil {
		h.render(w, http.StatusBadRequest, "form", h.formError(f, err.Error()))
		return
	}
	if f.Code == "" {
		h.render(w, http.StatusBadRequest, "form", h.formError(f, "Select or type a TEKS code."))
		return
	}
	var types []contentgen.QuestionType
	for _, v := range r.PostForm["types"] {
		qt, err := contentgen.ParseQuestionType(v)
		if err != nil {
			h.render(w, http.StatusBadRequest, "form", h.formError(f, err.Error()))
			return
		}
		f.Types[qt] = true
		types = append(types, qt)
	}

	grade := teks.NormalizeGrade(f.Grade)
	if grade == "" {
		grade = teks.GradeFromCode(f.Code)
	}
	req := contentgen.Request{
		Standard:        h.Catalog.Resolve(f.Code, grade, subject),
		Bilingual:       f.Bilingual,
		QuestionTypes:   types,
		TeacherNotes:    f.Notes,
		AttachmentsText: f.Attachments,
		StrictAlign:     f.StrictAlign,
	}

	res, err := h.Runner.Run(r.Context(), req, sel)
	if err != nil {
		status := http.StatusBadGateway
		if llm.IsUnavailable(err) {
			status = http.StatusServiceUnavailable
		}
		h.Log.Warn("generation failed", zap.String("teks", req.Standard.Code), zap.Error(err))
		h.render(w, status, "form", h.formError(f, llm.UserMessage(err)))
		return
	}

	h.render(w, http.StatusOK, "result", h.resultVM(req, res))
}

func (h *Handler) formError(f formValues, msg string) formVM {
	vm := h.formVM(f)
	vm.Error = msg
	return vm
}

func (h *Handler) resultVM(req contentgen.Request, res *pipeline.Result) resultVM {
	vm := resultVM{Code: req.Standard.Code, Notices: res.Notices, ShowAlignment: h.ShowAlignment}
	add := func(label, path string) {
		if path != "" {
			vm.Files = append(vm.Files, fileLink{Label: label, Run: res.RunID, Name: filepath.Base(path)})
		}
	}
	add("Lesson plan", res.Outputs.LessonPlanPath)
	add("Worksheet", res.Outputs.WorksheetPath)
	add("Answer key", res.Outputs.AnswerKeyPath)
	add("All documents (ZIP)", res.Outputs.ZipPath)

	for _, d := range []*pipeline.DocumentResult{res.Lesson, res.Worksheet} {
		if d == nil || d.Alignment == nil {
			continue
		}
		vm.Reviews = append(vm.Reviews, reviewVM{
			Kind:      string(d.Document.Kind),
			Score:     d.Alignment.Score,
			Threshold: d.Threshold,
			Revised:   d.Revised,
			Repaired:  d.Repaired,
			Issues:    d.Alignment.Issues,
			Items:     d.Alignment.NonAlignedItems,
		})
	}
	return vm
}

// sanitize strips markup from teacher-supplied text.
func (h *Handler) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(h.notes.Sanitize(s)))
}

var (
	downloadName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.(pdf|zip)$`)
	runName      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,63}$`)
)

// ServeFile handles GET /files/{run}/{name}. Each generation run has its
// own directory, so a link only reaches the files of that run.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request, run, name string) {
	if !runName.MatchString(run) || !downloadName.MatchString(name) || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, filepath.Join(h.OutputDir, run, name))
}

type standardJSON struct {
	Code          string `json:"code"`
	Grade         string `json:"grade"`
	Subject       string `json:"subject"`
	DescriptionEN string `json:"description_en,omitempty"`
	DescriptionES string `json:"description_es,omitempty"`
	Strand        string `json:"strand,omitempty"`
}

// ServeStandards handles GET /api/standards?grade=&subject=.
func (h *Handler) ServeStandards(w http.ResponseWriter, r *http.Request) {
	var subject teks.Subject
	if s := r.URL.Query().Get("subject"); s != "" {
		var err error
		if subject, err = teks.ParseSubject(s); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	grade := teks.NormalizeGrade(r.URL.Query().Get("grade"))

	out := []standardJSON{}
	for _, s := range h.Catalog.ListBy(grade, subject) {
		out = append(out, standardJSON{
			Code:          s.Code,
			Grade:         string(s.Grade),
			Subject:       string(s.Subject),
			DescriptionEN: s.DescriptionEN,
			DescriptionES: s.DescriptionES,
			Strand:        s.Strand,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ServeHealth handles GET /health.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			h.Log.Error("health-check: database ping failed", zap.Error(err))
			resp.Status = "error"
			resp.Database = "disconnected"
			resp.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "connected"
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		h.Log.Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}
