package contentgen

import (
	"fmt"
	"strings"
)

// Validator checks a generated worksheet against its structural contract.
// Implementations are stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier, e.g. "item-count".
	Name() string

	// Validate returns nil when text satisfies the rule.
	Validate(text string, spec Spec) *ValidationError
}

// ValidationError describes why a worksheet failed one rule.
type ValidationError struct {
	Validator string
	Message   string
	// Corrections are concrete edits that would satisfy the rule. They are
	// passed verbatim to the repair request.
	Corrections []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// Spec is the structural contract a worksheet is checked against.
type Spec struct {
	Mode    QuestionType
	ENItems int
	ESItems int
	// Policy is nil when the standard has no topic constraints.
	Policy *TopicPolicy
}

// Result is the conjunction of every validator's verdict.
type Result struct {
	Problems []*ValidationError
}

// Valid reports whether every rule passed.
func (r Result) Valid() bool { return len(r.Problems) == 0 }

// Corrections flattens the corrections of every failed rule.
func (r Result) Corrections() []string {
	var out []string
	for _, p := range r.Problems {
		if len(p.Corrections) == 0 {
			out = append(out, p.Message)
			continue
		}
		out = append(out, p.Corrections...)
	}
	return out
}

// Summary is a one-line description suitable for logs and UI notices.
func (r Result) Summary() string {
	if r.Valid() {
		return "ok"
	}
	names := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		names[i] = p.Validator
	}
	return "failed: " + strings.Join(names, ", ")
}

// Check runs all validators against text.
func Check(text string, spec Spec, validators []Validator) Result {
	var res Result
	for _, v := range validators {
		if verr := v.Validate(text, spec); verr != nil {
			res.Problems = append(res.Problems, verr)
		}
	}
	return res
}
