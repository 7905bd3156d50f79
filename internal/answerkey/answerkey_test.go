package answerkey

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(prefix string, inline []string) string {
	var b strings.Builder
	for i := 1; i <= Slots; i++ {
		fmt.Fprintf(&b, "- %s%d. Which solid has %d faces?\n  - A. cube\n  - B. cone\n  - C. sphere\n  - D. cylinder\n", prefix, i, i)
		if inline != nil {
			label := "Answer Key"
			if prefix == "P" {
				label = "Clave de respuestas"
			}
			fmt.Fprintf(&b, "  %s: %s\n", label, inline[i-1])
		}
	}
	return b.String()
}

func consolidatedWorksheet() string {
	return "# Worksheet / Hoja de trabajo — 3.6A\n\n## English\n" + items("Q", nil) +
		"\n## Español\n" + items("P", nil) +
		"\n**Answer Key (EN)**\nQ1: A; Q2: B; Q3: C; Q4: D; Q5: A; Q6: B; Q7: C; Q8: D\n\n" +
		"**Clave de respuestas (ES)**\nP1: D, P2: C, P3: B, P4: A\nP5: D, P6: C, P7: B, P8: A\n"
}

var inlineKeyLine = regexp.MustCompile(`(?im)^\s*(answer\s+key|clave\s+de\s+respuestas)\s*:\s*[A-D]`)

func assertNoLeak(t *testing.T, text string) {
	t.Helper()
	assert.NotContains(t, strings.ToLower(text), "answer key")
	assert.NotContains(t, strings.ToLower(text), "clave de respuestas")
	assert.False(t, inlineKeyLine.MatchString(text), "inline key line survived:\n%s", text)
}

func TestExtract_Consolidated(t *testing.T) {
	s := Extract(consolidatedWorksheet())

	assert.Equal(t, [Slots]string{"A", "B", "C", "D", "A", "B", "C", "D"}, s.ENKeys)
	assert.Equal(t, [Slots]string{"D", "C", "B", "A", "D", "C", "B", "A"}, s.ESKeys)
	assert.True(t, s.Found())
	assert.Equal(t, 16, s.Count())

	assertNoLeak(t, s.QuestionsOnly)
	assert.NotContains(t, s.QuestionsOnly, "Q1: A")
	assert.Equal(t, Slots, strings.Count(s.QuestionsOnly, "  - D. cylinder")/2)
	assert.Contains(t, s.QuestionsOnly, "- P8. Which solid has 8 faces?")
}

func TestExtract_InlineFallback(t *testing.T) {
	en := []string{"A", "B", "C", "D", "A", "B", "C", "D"}
	es := []string{"B", "B", "B", "B", "C", "C", "C", "C"}
	text := "## English\n" + items("Q", en) + "\n## Español\n" + items("P", es)

	s := Extract(text)
	for i := 0; i < Slots; i++ {
		assert.Equal(t, en[i], s.ENKeys[i], "Q%d", i+1)
		assert.Equal(t, es[i], s.ESKeys[i], "P%d", i+1)
	}
	assertNoLeak(t, s.QuestionsOnly)
}

func TestExtract_ConsolidatedWinsOverInline(t *testing.T) {
	inline := []string{"D", "D", "D", "D", "D", "D", "D", "D"}
	text := items("Q", inline) + "\n**Answer Key (EN)**\nQ1: A; Q2: A\n"

	s := Extract(text)
	assert.Equal(t, "A", s.ENKeys[0])
	assert.Equal(t, "A", s.ENKeys[1])
	assert.Equal(t, "", s.ENKeys[2], "inline answers are ignored once a section was found")
	assertNoLeak(t, s.QuestionsOnly)
}

func TestExtract_HeaderVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		en   string
		es   string
	}{
		{"same line", "- Q1. x\nAnswer Key (EN): 1-B, 2-C", "B", ""},
		{"bold colon", "- Q1. x\n**Answer Key:**\n1. C\n2) D", "C", ""},
		{"heading", "- Q1. x\n## Answer Key\n- Q1: D\n- P1: A", "D", "A"},
		{"spanish untagged", "- P1. x\n**Clave de respuestas**\n1: B", "", "B"},
		{"lowercase letters", "- Q1. x\nanswer key (en)\nq1: a; q2: b", "A", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Extract(tt.text)
			assert.Equal(t, tt.en, s.ENKeys[0])
			assert.Equal(t, tt.es, s.ESKeys[0])
			assertNoLeak(t, s.QuestionsOnly)
			assert.Equal(t, tt.text[:7], s.QuestionsOnly)
		})
	}
}

func TestExtract_PairsWithTrailingText(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"trailing period", "Q1: A; Q2: B; Q3: C; Q4: D; Q5: A; Q6: B; Q7: C; Q8: D."},
		{"explained pairs", "Q1: A (a cube has 6 faces)\nQ2: B because a cone has 1 vertex\n\nQ3: C.\nQ4: D\nQ5: A\nQ6: B\nQ7: C\nQ8: D - it rolls"},
		{"bold numbers", "- **Q1.** A\n- **Q2.** B\n- **Q3.** C\n- **Q4.** D\n- **Q5.** A\n- **Q6.** B\n- **Q7.** C\n- **Q8.** D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "## English\n" + items("Q", nil) + "\n**Answer Key (EN)**\n" + tt.key + "\n\nGood luck!"

			s := Extract(text)
			assert.Equal(t, [Slots]string{"A", "B", "C", "D", "A", "B", "C", "D"}, s.ENKeys)
			assertNoLeak(t, s.QuestionsOnly)
			assert.NotContains(t, s.QuestionsOnly, "Q1: A")
			assert.NotContains(t, s.QuestionsOnly, "Q8: D")
			assert.NotContains(t, s.QuestionsOnly, "**Q1.**")
			assert.NotContains(t, s.QuestionsOnly, "cube has 6 faces")
			assert.Contains(t, s.QuestionsOnly, "- Q8. Which solid has 8 faces?")
			assert.True(t, strings.HasSuffix(s.QuestionsOnly, "\n\nGood luck!"), s.QuestionsOnly)
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	inputs := []string{
		consolidatedWorksheet(),
		items("Q", []string{"A", "B", "C", "D", "A", "B", "C", "D"}),
		"\n\n# Title\n\n\n\n- Q1. x   \n\n\n**Answer Key (EN)**\nQ1: A\n\n\nTrailing line\n\n",
	}
	for i, in := range inputs {
		first := Extract(in)
		second := Extract(first.QuestionsOnly)
		assert.Equal(t, first.QuestionsOnly, second.QuestionsOnly, "input %d", i)
		assert.False(t, second.Found(), "input %d: keys left after first pass", i)
	}
}

func TestExtract_BlankLinesCollapsed(t *testing.T) {
	s := Extract("# Title\n\n\n\n- Q1. x\n\n**Answer Key (EN)**\nQ1: A\n\nTrailing line")
	assert.Equal(t, "# Title\n\n- Q1. x\n\nTrailing line", s.QuestionsOnly)
}

func TestExtract_NoKeys(t *testing.T) {
	text := "## English\n- Q1. Name a solid with 6 faces.\n- Q2. Name a solid with no vertices."
	s := Extract(text)
	assert.False(t, s.Found())
	assert.Equal(t, [Slots]string{}, s.ENKeys)
	assert.Equal(t, text, s.QuestionsOnly)
}

func TestExtract_OutOfRangeIgnored(t *testing.T) {
	s := Extract("**Answer Key (EN)**\nQ1: A; Q9: B; Q12: C")
	assert.Equal(t, "A", s.ENKeys[0])
	assert.Equal(t, 1, s.Count())
	assert.Empty(t, s.QuestionsOnly)
}

func TestMarkdown(t *testing.T) {
	s := Extract(consolidatedWorksheet())
	md := Markdown(s, Meta{Code: "3.6A", Grade: "3", Subject: "Math", Bilingual: true})

	require.True(t, strings.HasPrefix(md, "# Answer Key / Clave de respuestas — Math 3 — 3.6A\n"))
	assert.Contains(t, md, "- **Q1.** A\n")
	assert.Contains(t, md, "- **P8.** A\n")

	partial := Split{ENKeys: [Slots]string{"B"}}
	md = Markdown(partial, Meta{Code: "3.6A", Grade: "3", Subject: "Math"})
	assert.Contains(t, md, "- **Q2.** —\n")
	assert.NotContains(t, md, "Español")
}
