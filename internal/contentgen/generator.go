// Package contentgen builds lesson and worksheet prompts, sends them to the
// completion provider and enforces the worksheet structure.
package contentgen

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/staarai/internal/llm"
)

// Generator produces lesson and worksheet Markdown.
type Generator struct {
	provider llm.Provider
	config   Config
	log      *zap.Logger
}

// New creates a Generator. A nil logger disables logging.
func New(provider llm.Provider, cfg Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{provider: provider, config: cfg, log: log.Named("contentgen")}
}

// WorksheetResult is a worksheet after structural validation and at most
// one repair.
type WorksheetResult struct {
	Document Document
	// Structure is the verdict on the first draft.
	Structure Result
	Repaired  bool
	Calls     int
}

// Spec returns the structural contract for req.
func (g *Generator) Spec(req Request) Spec {
	return specFor(req, g.config)
}

func specFor(req Request, cfg Config) Spec {
	n := cfg.ItemsPerLanguage
	if n <= 0 {
		n = 8
	}
	spec := Spec{Mode: req.Mode(), ENItems: n}
	if req.Bilingual || cfg.LegacySymmetricItems {
		spec.ESItems = n
	}
	if p, ok := PolicyFor(cfg.Policies, req.Standard); ok {
		spec.Policy = &p
	}
	return spec
}

// Check validates worksheet text against the contract for req.
func (g *Generator) Check(req Request, text string) Result {
	return Check(text, g.Spec(req), g.config.Validators)
}

// Lesson generates a lesson plan with one completion call.
func (g *Generator) Lesson(ctx context.Context, req Request) (Document, error) {
	text, err := g.complete(llm.WithPurpose(ctx, llm.PurposeLesson), lessonSystemPrompt,
		buildLessonMessage(req, g.config), g.config.LessonMaxTokens)
	if err != nil {
		return Document{}, fmt.Errorf("lesson generation failed: %w", err)
	}
	return Document{Kind: Lesson, Text: text}, nil
}

// Worksheet generates a worksheet draft with one completion call.
func (g *Generator) Worksheet(ctx context.Context, req Request) (Document, error) {
	text, err := g.complete(llm.WithPurpose(ctx, llm.PurposeWorksheet), worksheetSystemPrompt,
		buildWorksheetMessage(req, g.config), g.config.WorksheetMaxTokens)
	if err != nil {
		return Document{}, fmt.Errorf("worksheet generation failed: %w", err)
	}
	return Document{Kind: Worksheet, Text: text}, nil
}

// Repair asks once for a corrected worksheet. The result replaces doc
// wholesale and is not validated again.
func (g *Generator) Repair(ctx context.Context, req Request, doc Document, res Result) (Document, error) {
	text, err := g.complete(llm.WithPurpose(ctx, llm.PurposeStructuralFix), worksheetSystemPrompt,
		buildRepairMessage(req, g.config, doc.Text, res), g.config.WorksheetMaxTokens)
	if err != nil {
		return Document{}, fmt.Errorf("worksheet repair failed: %w", err)
	}
	return Document{Kind: Worksheet, Text: text}, nil
}

// GenerateWorksheet drafts a worksheet and, if the draft breaks its
// structure, repairs it once. It makes at most two completion calls. When
// the repair fails, the result still carries the draft and both calls.
func (g *Generator) GenerateWorksheet(ctx context.Context, req Request) (*WorksheetResult, error) {
	doc, err := g.Worksheet(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &WorksheetResult{Document: doc, Calls: 1}

	out.Structure = g.Check(req, doc.Text)
	if out.Structure.Valid() {
		return out, nil
	}
	g.log.Info("worksheet failed structural checks",
		zap.String("teks", req.Standard.Code),
		zap.String("result", out.Structure.Summary()),
		zap.Strings("corrections", out.Structure.Corrections()))

	fixed, err := g.Repair(ctx, req, doc, out.Structure)
	out.Calls++
	if err != nil {
		return out, err
	}
	out.Document = fixed
	out.Repaired = true
	return out, nil
}

// Revise rewrites doc once using reviewer feedback, keeping the document's
// required structure.
func (g *Generator) Revise(ctx context.Context, req Request, doc Document, feedback string) (Document, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeAlignmentRevise)

	var b strings.Builder
	system := worksheetSystemPrompt
	maxTokens := g.config.WorksheetMaxTokens
	if doc.Kind == Lesson {
		system = lessonSystemPrompt
		maxTokens = g.config.LessonMaxTokens
		b.WriteString(buildLessonMessage(req, g.config))
	} else {
		b.WriteString(buildWorksheetMessage(req, g.config))
	}
	b.WriteString("\nA reviewer found that the draft below does not fully match the standard. Rewrite the whole document so every part practices the standard, keeping the required structure.\n\n")
	b.WriteString(strings.TrimSpace(feedback))
	b.WriteString("\n\nCurrent draft:\n")
	b.WriteString(doc.Text)
	b.WriteString("\n")

	text, err := g.complete(ctx, system, b.String(), maxTokens)
	if err != nil {
		return Document{}, fmt.Errorf("%s revision failed: %w", doc.Kind, err)
	}
	return Document{Kind: doc.Kind, Text: text}, nil
}

func (g *Generator) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    llm.SingleTurn(user),
		MaxTokens:   maxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	text := stripFence(resp.Text())
	if text == "" {
		return "", &llm.ErrInvalidResponse{Content: resp.Content, Err: errors.New("empty completion")}
	}
	return text, nil
}

var fence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// stripFence unwraps a completion that arrived inside a single code fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
