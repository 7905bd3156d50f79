package alignment

import "github.com/abhisek/staarai/internal/llm"

// ReportSchema is the shape the judge must return. It is sent with every
// judge request, so it carries no numeric bounds; Parse checks the range.
var ReportSchema = &llm.Schema{
	Name:        "alignment-report",
	Description: "A strict grade of how well content practices one curriculum standard",
	Definition:  reportDefinition(true),
}

// reportShape is what Parse accepts: extra keys are tolerated and the
// score must lie in [0, 1].
var reportShape = &llm.Schema{
	Name:       "alignment-report-text",
	Definition: reportDefinition(false),
}

func reportDefinition(sent bool) map[string]any {
	score := map[string]any{
		"type":        "number",
		"description": "Alignment score from 0.0 (unrelated) to 1.0 (fully aligned)",
	}
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": score,
			"issues": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific alignment problems",
			},
			"non_aligned_items": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Labels of sections or items that do not practice the standard, e.g. Q3",
			},
		},
		"required": []any{"score", "issues", "non_aligned_items"},
	}
	if sent {
		def["additionalProperties"] = false
	} else {
		score["minimum"] = 0
		score["maximum"] = 1
	}
	return def
}
