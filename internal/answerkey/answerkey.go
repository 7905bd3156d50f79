// Package answerkey separates multiple-choice answers from a generated
// worksheet so the student copy never carries them.
package answerkey

import (
	"regexp"
	"strconv"
	"strings"
)

// Slots is the number of items per language a key covers.
const Slots = 8

// NoKeyNotice is shown when a worksheet yields no answers.
const NoKeyNotice = "No separate answer key was produced for this worksheet."

// Split is a worksheet with its answer key removed. An empty slot means no
// answer was found for that item.
type Split struct {
	QuestionsOnly string
	ENKeys        [Slots]string
	ESKeys        [Slots]string
}

// Found reports whether any answer was extracted.
func (s Split) Found() bool {
	return s.Count() > 0
}

// Count returns the number of populated slots across both languages.
func (s Split) Count() int {
	n := 0
	for i := 0; i < Slots; i++ {
		if s.ENKeys[i] != "" {
			n++
		}
		if s.ESKeys[i] != "" {
			n++
		}
	}
	return n
}

var (
	// keyLine matches a consolidated header or an inline key line. The
	// remainder after the label is captured for classification.
	keyLine = regexp.MustCompile(`(?i)^[\s>*_#\-•]*(answer\s+key|clave\s+de\s+respuestas)\s*(?:\(\s*(en|es)\s*\))?[\s*_]*:?[\s*_]*(.*)$`)

	inlineAnswer = regexp.MustCompile(`(?i)^\(?([A-D])\)?[.)]?(?:\s.*)?$`)

	pair = regexp.MustCompile(`(?i)\b([QP])?\s*(\d{1,2})[*_]*\s*[:.)=\-][*_]*\s*\(?([A-D])\b\)?`)

	lineLead = regexp.MustCompile(`^[\s>*_#\-•]*`)

	pairSeparators = regexp.MustCompile(`[\s,;|*_\-•]+`)

	itemMarker = regexp.MustCompile(`^\s*-\s*([QP])(\d+)\.`)

	anyKeyText = regexp.MustCompile(`(?i)answer\s+key|clave\s+de\s+respuestas`)
)

type lang int

const (
	english lang = iota
	spanish
)

// Extract removes every consolidated key section and inline key line from
// text. Consolidated sections take precedence; inline answers are used only
// when no consolidated section yielded a key. Extract is idempotent on its
// own output.
func Extract(text string) Split {
	var s Split
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	lines = s.stripConsolidated(lines)
	useInline := !s.Found()
	lines = s.stripInline(lines, useInline)

	// Anything still naming a key is dropped so no answer survives in an
	// unexpected shape.
	kept := lines[:0]
	for _, line := range lines {
		if !anyKeyText.MatchString(line) {
			kept = append(kept, line)
		}
	}

	s.QuestionsOnly = normalize(kept)
	return s
}

// stripConsolidated removes key sections: a header line followed by lines
// holding only number-letter pairs.
func (s *Split) stripConsolidated(lines []string) []string {
	var out []string
	for i := 0; i < len(lines); i++ {
		m := keyLine.FindStringSubmatch(lines[i])
		if m == nil || inlineAnswer.MatchString(strings.TrimSpace(m[3])) {
			out = append(out, lines[i])
			continue
		}
		section := sectionLang(m[1], m[2])
		s.recordPairs(m[3], section)
		for i+1 < len(lines) {
			next := lines[i+1]
			if strings.TrimSpace(next) == "" {
				// A blank run stays inside the section only when more
				// pairs follow it.
				j := i + 1
				for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
					j++
				}
				if j == len(lines) || !isKeyEntry(lines[j]) {
					break
				}
				i = j - 1
				continue
			}
			if !isKeyEntry(next) {
				break
			}
			i++
			s.recordPairs(next, section)
		}
	}
	return out
}

// stripInline removes "Answer Key: X" lines, recording the letter against
// the enclosing item when record is set.
func (s *Split) stripInline(lines []string, record bool) []string {
	var out []string
	var prefix string
	var number int
	for _, line := range lines {
		if m := itemMarker.FindStringSubmatch(line); m != nil {
			prefix = strings.ToUpper(m[1])
			number, _ = strconv.Atoi(m[2])
			out = append(out, line)
			continue
		}
		m := keyLine.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		a := inlineAnswer.FindStringSubmatch(strings.TrimSpace(m[3]))
		if record && a != nil && prefix != "" {
			l := english
			if prefix == "P" {
				l = spanish
			}
			s.set(l, number, a[1])
		}
	}
	return out
}

func (s *Split) recordPairs(line string, section lang) {
	for _, m := range pair.FindAllStringSubmatch(line, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		l := section
		switch strings.ToUpper(m[1]) {
		case "Q":
			l = english
		case "P":
			l = spanish
		}
		s.set(l, n, m[3])
	}
}

func (s *Split) set(l lang, n int, letter string) {
	if n < 1 || n > Slots {
		return
	}
	letter = strings.ToUpper(letter)
	if l == spanish {
		s.ESKeys[n-1] = letter
	} else {
		s.ENKeys[n-1] = letter
	}
}

func sectionLang(label, tag string) lang {
	if strings.EqualFold(tag, "es") {
		return spanish
	}
	if strings.EqualFold(tag, "en") {
		return english
	}
	if strings.HasPrefix(strings.ToLower(label), "clave") {
		return spanish
	}
	return english
}

// isKeyEntry reports whether line belongs to a key section: it opens with a
// number-letter pair, whatever text trails it. Item lines end the section
// unless they hold nothing but pairs.
func isKeyEntry(line string) bool {
	if isPairLine(line) {
		return true
	}
	if itemMarker.MatchString(line) || keyLine.MatchString(line) {
		return false
	}
	rest := lineLead.ReplaceAllString(line, "")
	loc := pair.FindStringIndex(rest)
	return loc != nil && loc[0] == 0
}

// isPairLine reports whether line holds number-letter pairs and nothing else.
func isPairLine(line string) bool {
	if !pair.MatchString(line) {
		return false
	}
	rest := pair.ReplaceAllString(line, "")
	return pairSeparators.ReplaceAllString(rest, "") == ""
}

// normalize trims trailing space and collapses runs of blank lines.
func normalize(lines []string) string {
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, line)
			continue
		}
		blank = false
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
