package contentgen

import (
	"fmt"
	"strings"
)

// Fallback content is generic template text used only when the operator has
// opted in and the provider is unavailable. It is marked Fallback so callers
// can flag it.

var fallbackVocabulary = []string{"attribute", "classify", "compare", "contrast", "justify", "evidence", "represent", "analyze"}

var fallbackMaterials = []string{"Whiteboard", "Printed worksheet", "Pencils", "Manipulatives or visuals"}

// FallbackLesson returns a generic lesson plan for req.
func FallbackLesson(req Request) Document {
	code := req.Standard.Code
	body := map[string]string{
		"Objective (EN)":           fmt.Sprintf("Students will demonstrate understanding of TEKS %s through modeling and practice.", code),
		"Objetivo (ES)":            fmt.Sprintf("El alumnado demostrará comprensión del TEKS %s mediante modelado y práctica.", code),
		"Success Criteria (EN)":    "- I can explain the skill in my own words.\n- I can solve a grade-level example independently.",
		"Criterios de éxito (ES)":  "- Puedo explicar la habilidad con mis propias palabras.\n- Puedo resolver un ejemplo de mi grado de forma independiente.",
		"Academic Vocabulary":      bullets(fallbackVocabulary),
		"Materials":                bullets(fallbackMaterials),
		"Passage (EN)":             "A brief, grade-appropriate passage tied to the TEKS skill.",
		"Pasaje (ES)":              "Un pasaje breve, apropiado para la edad, vinculado a la habilidad del TEKS.",
		"Mini Lesson":              "Review prior knowledge, model with a worked example.",
		"I Do":                     "Teacher models the solution process, thinking aloud.",
		"We Do":                    "Guided practice on 2-3 items with class participation.",
		"Checks for Understanding": "- Explain a step you used.\n- What mistake should we avoid?\n- How do we know our answer is reasonable?",
		"You Do":                   "Students complete the worksheet independently or in pairs.",
		"Exit Ticket":              "One quick item aligned to the objective.",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Lesson Plan — %s — Grade %s %s\n", code, req.Standard.Grade, req.Standard.Subject)
	for _, s := range LessonSections(req) {
		fmt.Fprintf(&b, "\n## %s\n%s\n", s, body[s])
	}
	return Document{Kind: Lesson, Text: b.String(), Fallback: true}
}

// FallbackWorksheet returns generic short-response items. It carries no
// answer key.
func FallbackWorksheet(req Request, cfg Config) Document {
	spec := specFor(req, cfg)
	code := req.Standard.Code

	var b strings.Builder
	fmt.Fprintf(&b, "# Worksheet / Hoja de trabajo — %s\n\n## English\n", code)
	for i := 1; i <= spec.ENItems; i++ {
		fmt.Fprintf(&b, "- Q%d. Short response tied to %s.\n", i, code)
	}
	if spec.ESItems > 0 {
		b.WriteString("\n## Español\n")
		for i := 1; i <= spec.ESItems; i++ {
			fmt.Fprintf(&b, "- P%d. Respuesta breve ligada a %s.\n", i, code)
		}
	}
	return Document{Kind: Worksheet, Text: b.String(), Fallback: true}
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}
