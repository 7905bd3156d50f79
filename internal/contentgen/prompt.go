package contentgen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const lessonSystemPrompt = `You are an expert K-6 instructional designer in Texas TEKS and STAAR preparation.

Rules:
- Write in GitHub-flavored Markdown. Use "# " for the title, "## " for section headings and "- " for bullets.
- Use the section headings exactly as listed, in the listed order. Do not add or rename sections.
- Stay strictly on the standard described. Every activity, example and question must practice it.
- Use grade-appropriate language and plain text math (no LaTeX).
- Do not wrap the answer in code fences.`

const worksheetSystemPrompt = `You are an expert K-6 assessment writer in Texas TEKS and STAAR preparation.

Rules:
- Write in GitHub-flavored Markdown with the exact structure you are given.
- Every item must practice the standard described. Do not drift to neighboring topics.
- Use grade-appropriate language and plain text math (no LaTeX).
- Never leave template placeholders such as [STEM], <stem>, {{ }} or lorem ipsum.
- Do not wrap the answer in code fences.`

// lessonSections lists lesson headings in required order. Spanish sections
// are kept only on bilingual lessons; passage sections only when requested.
var lessonSections = []struct {
	title   string
	spanish bool
	passage bool
}{
	{title: "Objective (EN)"},
	{title: "Objetivo (ES)", spanish: true},
	{title: "Success Criteria (EN)"},
	{title: "Criterios de éxito (ES)", spanish: true},
	{title: "Academic Vocabulary"},
	{title: "Materials"},
	{title: "Passage (EN)", passage: true},
	{title: "Pasaje (ES)", spanish: true, passage: true},
	{title: "Mini Lesson"},
	{title: "I Do"},
	{title: "We Do"},
	{title: "Checks for Understanding"},
	{title: "You Do"},
	{title: "Exit Ticket"},
}

// LessonSections returns the section headings a lesson for req must contain.
func LessonSections(req Request) []string {
	var out []string
	for _, s := range lessonSections {
		if s.spanish && !req.Bilingual {
			continue
		}
		if s.passage && !req.WantsPassage() {
			continue
		}
		out = append(out, s.title)
	}
	return out
}

// buildLessonMessage constructs the user message for a lesson plan.
func buildLessonMessage(req Request, cfg Config) string {
	var b strings.Builder
	writeContext(&b, req, cfg)

	b.WriteString("\nWrite a lesson plan.\n")
	fmt.Fprintf(&b, "Title line: # Lesson Plan — %s — Grade %s %s\n", req.Standard.Code, req.Standard.Grade, req.Standard.Subject)
	b.WriteString("Sections, in this order, each as a \"## \" heading:\n")
	for i, s := range LessonSections(req) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	if req.WantsPassage() {
		b.WriteString("\nThe passage sections hold one short grade-level passage of at most 300 words that the lesson activities use.\n")
	}
	if req.Bilingual {
		b.WriteString("Spanish sections are faithful translations of their English counterparts.\n")
	}
	b.WriteString("Academic Vocabulary and Materials are bullet lists. Exit Ticket has 2 or 3 quick items.\n")

	writePolicy(&b, req, cfg)
	return b.String()
}

// buildWorksheetMessage constructs the user message for a worksheet.
func buildWorksheetMessage(req Request, cfg Config) string {
	var b strings.Builder
	writeContext(&b, req, cfg)
	b.WriteString("\n")
	writeWorksheetContract(&b, req, cfg)
	writePolicy(&b, req, cfg)
	return b.String()
}

// buildRepairMessage restates the contract and lists the corrections the
// current worksheet needs.
func buildRepairMessage(req Request, cfg Config, current string, res Result) string {
	var b strings.Builder
	writeContext(&b, req, cfg)
	b.WriteString("\nThe worksheet below breaks its required structure. Rewrite the whole worksheet.\n\n")
	writeWorksheetContract(&b, req, cfg)
	writePolicy(&b, req, cfg)

	b.WriteString("\nMake exactly these corrections and change nothing else:\n")
	for i, c := range res.Corrections() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	b.WriteString("\nCurrent worksheet:\n")
	b.WriteString(current)
	b.WriteString("\n")
	return b.String()
}

func writeContext(b *strings.Builder, req Request, cfg Config) {
	std := req.Standard
	fmt.Fprintf(b, "TEKS: %s\n", std.Code)
	fmt.Fprintf(b, "Grade: %s\n", std.Grade)
	fmt.Fprintf(b, "Subject: %s\n", std.Subject)
	if desc := req.StandardDescription(); desc != "" {
		fmt.Fprintf(b, "Standard description:\n%s\n", desc)
	} else {
		b.WriteString("Standard description: not available; infer it from the code, grade and subject.\n")
	}
	fmt.Fprintf(b, "Bilingual (English and Spanish): %t\n", req.Bilingual)

	b.WriteString("\nTeacher notes:\n")
	if notes := strings.TrimSpace(req.TeacherNotes); notes != "" {
		b.WriteString(notes)
		b.WriteString("\n")
	} else {
		b.WriteString("None\n")
	}

	if excerpt := truncateRunes(strings.TrimSpace(req.AttachmentsText), cfg.AttachmentLimit); excerpt != "" {
		b.WriteString("\nAttachment excerpt:\n")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}
}

func writeWorksheetContract(b *strings.Builder, req Request, cfg Config) {
	spec := specFor(req, cfg)
	mode := spec.Mode

	fmt.Fprintf(b, "Write a %s worksheet with this exact structure:\n\n", mode.Label())
	fmt.Fprintf(b, "# Worksheet / Hoja de trabajo — %s\n", req.Standard.Code)
	b.WriteString("## English\n")
	writeItemShape(b, "Q", mode)
	if spec.ESItems > 0 {
		b.WriteString("## Español\n")
		writeItemShape(b, "P", mode)
	}
	if mode == MultipleChoice {
		b.WriteString("**Answer Key (EN)**\n")
		b.WriteString(keyShape("Q", spec.ENItems))
		if spec.ESItems > 0 {
			b.WriteString("**Clave de respuestas (ES)**\n")
			b.WriteString(keyShape("P", spec.ESItems))
		}
	}

	b.WriteString("\nRequirements:\n")
	fmt.Fprintf(b, "- Exactly %d English items, marked - Q1. through - Q%d.\n", spec.ENItems, spec.ENItems)
	if spec.ESItems > 0 {
		fmt.Fprintf(b, "- Exactly %d Spanish items, marked - P1. through - P%d.", spec.ESItems, spec.ESItems)
		if req.Bilingual {
			b.WriteString(" Each P item is the Spanish version of the matching Q item.")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("- No Spanish items.\n")
	}
	switch mode {
	case MultipleChoice:
		b.WriteString("- Every item has exactly four distinct options on their own lines: - A. - B. - C. - D.\n")
		b.WriteString("- Exactly one option is correct. Distractors reflect common mistakes.\n")
		b.WriteString("- Put the answers only in the answer key sections at the end, as pairs like Q1: B; Q2: D.\n")
	case OpenResponse:
		b.WriteString("- Items ask students to explain or justify in complete sentences.\n")
		b.WriteString("- No answer choices, no lines starting with - A. through - D., and no ___ blanks.\n")
	default:
		b.WriteString("- Items take a short written or numeric answer.\n")
		b.WriteString("- No answer choices and no lines starting with - A. through - D.\n")
	}
	if strings.TrimSpace(req.AttachmentsText) != "" {
		b.WriteString("- Model at least one item on the attachment excerpt.\n")
	}
}

// Slot tokens in the worksheet format skeleton. A completion that still
// carries one of them echoed the template.
const (
	slotQuestion = "<question text>"
	slotChoice   = "<choice>"
	slotLetter   = "<letter>"
)

func writeItemShape(b *strings.Builder, prefix string, mode QuestionType) {
	fmt.Fprintf(b, "- %s1. %s\n", prefix, slotQuestion)
	if mode == MultipleChoice {
		for _, l := range "ABCD" {
			fmt.Fprintf(b, "  - %c. %s\n", l, slotChoice)
		}
	}
	fmt.Fprintf(b, "- %s2. ...\n", prefix)
}

func keyShape(prefix string, n int) string {
	pairs := make([]string, n)
	for i := range pairs {
		pairs[i] = fmt.Sprintf("%s%d: %s", prefix, i+1, slotLetter)
	}
	return strings.Join(pairs, "; ") + "\n"
}

func writePolicy(b *strings.Builder, req Request, cfg Config) {
	p, ok := PolicyFor(cfg.Policies, req.Standard)
	if !ok {
		return
	}
	b.WriteString("\nHard content constraints:\n")
	if len(p.BannedTerms) > 0 {
		fmt.Fprintf(b, "- Never use these words: %s\n", strings.Join(p.BannedTerms, ", "))
	}
	if p.MinRequiredHits > 0 {
		fmt.Fprintf(b, "- Use at least %d of these words: %s\n", p.MinRequiredHits, strings.Join(p.RequiredTerms, ", "))
	}
}

// truncateRunes cuts s to at most limit characters. A non-positive limit
// disables truncation.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
