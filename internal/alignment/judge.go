// Package alignment scores generated content against its standard with a
// second model call and decides whether it needs a revision.
package alignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/staarai/internal/llm"
)

const (
	// DescribedThreshold applies when the standard's description is known.
	DescribedThreshold = 0.90
	// UndescribedThreshold applies when only the code is known.
	UndescribedThreshold = 0.70
)

// ParseFailureIssue is the single issue of a degraded report.
const ParseFailureIssue = "could not parse judge output"

const systemPrompt = `You are a strict grader checking whether teaching material aligns with one Texas TEKS standard.

Rules:
- Judge only alignment with the standard given, not writing quality.
- Any section or item that practices a different skill is non-aligned, even if it is good content.
- Be conservative: award 0.9 or more only when every part of the material practices the standard.
- Reply with a single JSON object and nothing else:
  {"score": <number 0.0-1.0>, "issues": [<string>...], "non_aligned_items": [<item or section label>...]}`

// Report is the judge's verdict.
type Report struct {
	Score           float64  `json:"score"`
	Issues          []string `json:"issues"`
	NonAlignedItems []string `json:"non_aligned_items"`
	// ParseFailed marks a degraded report built when the judge output could
	// not be read.
	ParseFailed bool `json:"-"`
}

// Input is the material to judge.
type Input struct {
	Code        string
	Description string
	Kind        string // "lesson" or "worksheet"
	Content     string
}

// Threshold returns the passing score for a standard description.
func Threshold(description string) float64 {
	if strings.TrimSpace(description) != "" {
		return DescribedThreshold
	}
	return UndescribedThreshold
}

// NeedsRevision reports whether the content should be revised once.
func (r Report) NeedsRevision(threshold float64) bool {
	return r.Score < threshold || len(r.NonAlignedItems) > 0
}

// Judge asks the completion provider to grade content.
type Judge struct {
	provider  llm.Provider
	maxTokens int
	log       *zap.Logger
}

// NewJudge creates a Judge. A nil logger disables logging.
func NewJudge(provider llm.Provider, log *zap.Logger) *Judge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Judge{provider: provider, maxTokens: 600, log: log.Named("alignment")}
}

// Score makes one completion call constrained to ReportSchema. A reply the
// provider rejects against the schema is still read with Parse, so
// unreadable output yields a degraded report, not an error. Only provider
// failures are returned.
func (j *Judge) Score(ctx context.Context, in Input) (Report, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeAlignmentJudge)

	var text string
	resp, err := j.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.SingleTurn(buildJudgeMessage(in)),
		Schema:      ReportSchema,
		MaxTokens:   j.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		raw, ok := rejectedOutput(err)
		if !ok {
			return Report{}, fmt.Errorf("alignment judge failed: %w", err)
		}
		j.log.Debug("judge output failed schema", zap.String("teks", in.Code), zap.Error(err))
		text = raw
	} else {
		text = resp.Text()
	}

	report := Parse(text)
	if report.ParseFailed {
		j.log.Warn("judge output unreadable", zap.String("teks", in.Code), zap.String("kind", in.Kind))
	}
	return report, nil
}

// rejectedOutput returns the text the provider produced when it failed
// schema validation or ran out of tokens.
func rejectedOutput(err error) (string, bool) {
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return string(invalid.Content), true
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return string(truncated.Content), true
	}
	return "", false
}

func buildJudgeMessage(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TEKS: %s\n", in.Code)
	if d := strings.TrimSpace(in.Description); d != "" {
		fmt.Fprintf(&b, "Standard description:\n%s\n", d)
	} else {
		b.WriteString("Standard description: not available; judge against the code, grade and subject it implies.\n")
	}
	fmt.Fprintf(&b, "Material type: %s\n", in.Kind)
	b.WriteString("\nMaterial:\n")
	b.WriteString(in.Content)
	b.WriteString("\n")
	return b.String()
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// Parse reads judge output. It tries the whole text with any code fence
// removed, then the span between the first '{' and the last '}'. If neither
// yields a well-formed report, it returns the degraded report.
func Parse(raw string) Report {
	text := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if r, ok := decode(text); ok {
		return r
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if r, ok := decode(text[start : end+1]); ok {
			return r
		}
	}
	return Report{Issues: []string{ParseFailureIssue}, NonAlignedItems: []string{}, ParseFailed: true}
}

func decode(s string) (Report, bool) {
	if err := llm.ValidateJSON(reportShape, []byte(s)); err != nil {
		return Report{}, false
	}
	var r Report
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Report{}, false
	}
	return r, true
}

// Feedback is the reviewer block sent with a revision request.
func Feedback(r Report) string {
	var b strings.Builder
	b.WriteString("Reviewer issues:\n")
	if len(r.Issues) == 0 {
		b.WriteString("- Alignment score below the required level.\n")
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	if len(r.NonAlignedItems) > 0 {
		fmt.Fprintf(&b, "Rewrite these items or sections so they practice the standard: %s\n", strings.Join(r.NonAlignedItems, ", "))
	}
	return b.String()
}
