// Package pipeline runs one generation request end to end: content
// generation, structural repair, answer-key extraction, alignment review,
// and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/staarai/internal/alignment"
	"github.com/abhisek/staarai/internal/answerkey"
	"github.com/abhisek/staarai/internal/contentgen"
	"github.com/abhisek/staarai/internal/llm"
	"github.com/abhisek/staarai/internal/render"
	"github.com/abhisek/staarai/internal/store"
)

// Selection picks which documents a request produces.
type Selection string

const (
	SelectLesson    Selection = "lesson"
	SelectWorksheet Selection = "worksheet"
	SelectBoth      Selection = "both"
)

// ParseSelection accepts "lesson", "worksheet" or "both".
func ParseSelection(s string) (Selection, error) {
	switch sel := Selection(strings.ToLower(strings.TrimSpace(s))); sel {
	case SelectLesson, SelectWorksheet, SelectBoth:
		return sel, nil
	case "":
		return SelectBoth, nil
	}
	return "", fmt.Errorf("unknown document selection %q (want lesson, worksheet or both)", s)
}

func (s Selection) lesson() bool    { return s == SelectLesson || s == SelectBoth }
func (s Selection) worksheet() bool { return s == SelectWorksheet || s == SelectBoth }

// Options are operator settings for the pipeline.
type Options struct {
	// AllowFallback substitutes generic template content when the provider
	// is unavailable. Such documents are flagged.
	AllowFallback bool
	// LegacySymmetricItems keeps Spanish items on monolingual worksheets.
	LegacySymmetricItems bool
}

// DocumentResult describes one generated document. Calls counts generate,
// repair and revision calls; the judge call is counted in JudgeCalls.
// RepairSkipped marks a worksheet kept as drafted because the repair call
// found the provider unavailable.
type DocumentResult struct {
	Document      contentgen.Document
	Calls         int
	JudgeCalls    int
	Repaired      bool
	RepairSkipped bool
	Structure     contentgen.Result
	Alignment     *alignment.Report
	Threshold     float64
	Revised       bool
	Split         *answerkey.Split
	Path          string
	KeyPath       string
}

// Result is the outcome of one request.
type Result struct {
	RunID     string
	Lesson    *DocumentResult
	Worksheet *DocumentResult
	Outputs   render.Outputs
	// Notices are user-facing messages about degraded output.
	Notices []string
}

// Pipeline orchestrates generation. Each Run is sequential and holds no
// state between requests.
type Pipeline struct {
	gen      *contentgen.Generator
	genCfg   contentgen.Config
	judge    *alignment.Judge
	renderer *render.Renderer
	events   store.EventRepo
	model    string
	opts     Options
	log      *zap.Logger
}

// New creates a Pipeline. events and log may be nil.
func New(provider llm.Provider, renderer *render.Renderer, events store.EventRepo, opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := contentgen.DefaultConfig()
	cfg.LegacySymmetricItems = opts.LegacySymmetricItems
	return &Pipeline{
		gen:      contentgen.New(provider, cfg, log),
		genCfg:   cfg,
		judge:    alignment.NewJudge(provider, log),
		renderer: renderer,
		events:   events,
		model:    provider.ModelID(),
		opts:     opts,
		log:      log.Named("pipeline"),
	}
}

// Run generates the selected documents for req, lesson first.
func (p *Pipeline) Run(ctx context.Context, req contentgen.Request, sel Selection) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := p.log.With(zap.String("run_id", res.RunID), zap.String("teks", req.Standard.Code))
	meta := metaFor(req, res.RunID)

	if sel.lesson() {
		doc, err := p.lesson(ctx, req, meta)
		p.record(ctx, res.RunID, req, contentgen.Lesson, doc, err)
		if err != nil {
			return nil, err
		}
		res.Lesson = doc
		res.Outputs.LessonPlanPath = doc.Path
		if doc.Document.Fallback {
			res.Notices = append(res.Notices, "The lesson plan is generic template content because the AI provider was unavailable.")
		}
		log.Info("lesson plan ready", zap.String("path", doc.Path), zap.Int("calls", doc.Calls))
	}

	if sel.worksheet() {
		doc, err := p.worksheet(ctx, req, meta)
		p.record(ctx, res.RunID, req, contentgen.Worksheet, doc, err)
		if err != nil {
			return nil, err
		}
		res.Worksheet = doc
		res.Outputs.WorksheetPath = doc.Path
		res.Outputs.AnswerKeyPath = doc.KeyPath
		if doc.Document.Fallback {
			res.Notices = append(res.Notices, "The worksheet is generic template content because the AI provider was unavailable.")
		}
		if doc.RepairSkipped {
			res.Notices = append(res.Notices, "The worksheet could not be corrected because the AI provider became unavailable: "+doc.Structure.Summary())
		}
		if doc.KeyPath == "" {
			res.Notices = append(res.Notices, answerkey.NoKeyNotice)
		}
		log.Info("worksheet ready", zap.String("path", doc.Path), zap.Bool("answer_key", doc.KeyPath != ""), zap.Int("calls", doc.Calls))
	}

	zipPath, err := p.renderer.Bundle(meta, res.Outputs.PDFs()...)
	if err != nil && !errors.Is(err, render.ErrNothingToBundle) {
		return nil, fmt.Errorf("bundle documents: %w", err)
	}
	res.Outputs.ZipPath = zipPath
	return res, nil
}

func (p *Pipeline) lesson(ctx context.Context, req contentgen.Request, meta render.Meta) (*DocumentResult, error) {
	out := &DocumentResult{}

	doc, err := p.gen.Lesson(ctx, req)
	out.Calls++
	if err != nil {
		if !p.canFallBack(err) {
			return out, err
		}
		p.log.Warn("provider unavailable, using fallback lesson", zap.Error(err))
		doc = contentgen.FallbackLesson(req)
	}
	out.Document = doc

	if req.StrictAlign && !doc.Fallback {
		revised, err := p.review(ctx, req, out, doc.Text)
		if err != nil {
			return out, err
		}
		if revised != nil {
			out.Document = *revised
		}
	}

	path, err := p.renderer.Render(render.LessonPlan, out.Document.Text, meta)
	if err != nil {
		return out, fmt.Errorf("render lesson plan: %w", err)
	}
	out.Path = path
	return out, nil
}

func (p *Pipeline) worksheet(ctx context.Context, req contentgen.Request, meta render.Meta) (*DocumentResult, error) {
	out := &DocumentResult{}

	ws, err := p.gen.GenerateWorksheet(ctx, req)
	out.Calls = 1
	if ws != nil {
		out.Document = ws.Document
		out.Calls = ws.Calls
		out.Repaired = ws.Repaired
		out.Structure = ws.Structure
	}
	switch {
	case err == nil:
	case p.canFallBack(err) && ws != nil:
		// The draft exists but the repair could not reach the provider.
		p.log.Warn("provider unavailable, keeping unrepaired worksheet", zap.Error(err))
		out.RepairSkipped = true
	case p.canFallBack(err):
		p.log.Warn("provider unavailable, using fallback worksheet", zap.Error(err))
		out.Document = contentgen.FallbackWorksheet(req, p.genCfg)
	default:
		return out, err
	}

	split := answerkey.Extract(out.Document.Text)
	if req.StrictAlign && !out.Document.Fallback && !out.RepairSkipped {
		revised, err := p.review(ctx, req, out, split.QuestionsOnly)
		if err != nil {
			return out, err
		}
		if revised != nil {
			out.Document = *revised
			split = answerkey.Extract(revised.Text)
		}
	}
	out.Split = &split

	path, err := p.renderer.Render(render.Worksheet, split.QuestionsOnly, meta)
	if err != nil {
		return out, fmt.Errorf("render worksheet: %w", err)
	}
	out.Path = path

	if split.Found() {
		keyMeta := meta
		km := answerkey.Meta{Code: meta.Code, Grade: meta.Grade, Subject: meta.Subject, Bilingual: req.Bilingual}
		keyMeta.Title = km.Title()
		keyPath, err := p.renderer.Render(render.AnswerKey, answerkey.Markdown(split, km), keyMeta)
		if err != nil {
			return out, fmt.Errorf("render answer key: %w", err)
		}
		out.KeyPath = keyPath
	}
	return out, nil
}

// review judges text once and, when it falls short, revises the document
// once. The revision is accepted as returned.
func (p *Pipeline) review(ctx context.Context, req contentgen.Request, out *DocumentResult, text string) (*contentgen.Document, error) {
	desc := req.StandardDescription()
	out.Threshold = alignment.Threshold(desc)

	report, err := p.judge.Score(ctx, alignment.Input{
		Code:        req.Standard.Code,
		Description: desc,
		Kind:        string(out.Document.Kind),
		Content:     text,
	})
	out.JudgeCalls++
	if err != nil {
		return nil, err
	}
	out.Alignment = &report

	if !report.NeedsRevision(out.Threshold) {
		return nil, nil
	}
	p.log.Info("revising for alignment",
		zap.String("kind", string(out.Document.Kind)),
		zap.Float64("score", report.Score),
		zap.Float64("threshold", out.Threshold),
		zap.Strings("non_aligned", report.NonAlignedItems))

	revised, err := p.gen.Revise(ctx, req, out.Document, alignment.Feedback(report))
	out.Calls++
	if err != nil {
		return nil, err
	}
	out.Revised = true
	return &revised, nil
}

func (p *Pipeline) canFallBack(err error) bool {
	return p.opts.AllowFallback && llm.IsUnavailable(err)
}

func (p *Pipeline) record(ctx context.Context, runID string, req contentgen.Request, kind contentgen.DocKind, doc *DocumentResult, runErr error) {
	if p.events == nil || doc == nil {
		return
	}
	data := store.GenerationEventData{
		RunID:            runID,
		TEKSCode:         req.Standard.Code,
		Grade:            string(req.Standard.Grade),
		Subject:          string(req.Standard.Subject),
		DocKind:          string(kind),
		Model:            p.model,
		LLMCalls:         doc.Calls + doc.JudgeCalls,
		StructuralRepair: doc.Repaired,
		AlignmentRevised: doc.Revised,
		Fallback:         doc.Document.Fallback,
		OutputPath:       doc.Path,
		Success:          runErr == nil,
	}
	if doc.Alignment != nil {
		score := doc.Alignment.Score
		data.AlignmentScore = &score
	}
	if doc.Split != nil {
		data.AnswerKeyFound = doc.Split.Found()
	}
	if runErr != nil {
		data.ErrorMessage = runErr.Error()
	}
	if err := p.events.AppendGeneration(ctx, data); err != nil {
		p.log.Warn("failed to record generation", zap.Error(err))
	}
}

func metaFor(req contentgen.Request, runID string) render.Meta {
	return render.Meta{
		Code:    req.Standard.Code,
		Grade:   string(req.Standard.Grade),
		Subject: string(req.Standard.Subject),
		RunID:   runID,
	}
}
