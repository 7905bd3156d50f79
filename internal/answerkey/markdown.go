package answerkey

import (
	"fmt"
	"strings"
)

// Meta describes the worksheet an answer key belongs to.
type Meta struct {
	Code      string
	Grade     string
	Subject   string
	Bilingual bool
}

// Title is the answer-key document title.
func (m Meta) Title() string {
	label := "Answer Key"
	if m.Bilingual {
		label = "Answer Key / Clave de respuestas"
	}
	return fmt.Sprintf("%s — %s %s — %s", label, m.Subject, m.Grade, m.Code)
}

// Markdown renders the separate answer-key document. Missing answers are
// shown as a dash so item numbering stays aligned with the worksheet.
func Markdown(s Split, meta Meta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", meta.Title())

	b.WriteString("\n## English\n")
	writeKeys(&b, "Q", s.ENKeys)

	if meta.Bilingual || hasAny(s.ESKeys) {
		b.WriteString("\n## Español\n")
		writeKeys(&b, "P", s.ESKeys)
	}
	return b.String()
}

func writeKeys(b *strings.Builder, prefix string, keys [Slots]string) {
	for i, k := range keys {
		if k == "" {
			k = "—"
		}
		fmt.Fprintf(b, "- **%s%d.** %s\n", prefix, i+1, k)
	}
}

func hasAny(keys [Slots]string) bool {
	for _, k := range keys {
		if k != "" {
			return true
		}
	}
	return false
}
