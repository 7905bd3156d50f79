// Package teks holds the catalog of curriculum standards that generation
// requests are built from.
package teks

import (
	"fmt"
	"regexp"
	"strings"
)

// Subject is the content area a standard belongs to.
type Subject string

const (
	Math    Subject = "Math"
	Reading Subject = "Reading"
)

// ParseSubject accepts the spellings found in catalogs and forms.
func ParseSubject(s string) (Subject, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "math", "mathematics", "matemáticas", "matematicas":
		return Math, nil
	case "reading", "ela", "elar", "rla", "english", "lectura":
		return Reading, nil
	}
	return "", fmt.Errorf("unknown subject %q", s)
}

// Grade is a normalized grade label: "K" or a bare number ("3").
type Grade string

var ordinalSuffix = regexp.MustCompile(`(?i)^(\d{1,2})(st|nd|rd|th)?$`)

// NormalizeGrade maps labels such as "3rd", "Grade 3", "kinder" to their
// canonical form. Unrecognized input is returned trimmed.
func NormalizeGrade(s string) Grade {
	g := strings.TrimSpace(s)
	lower := strings.ToLower(g)
	lower = strings.TrimPrefix(lower, "grade")
	lower = strings.TrimSpace(lower)

	switch lower {
	case "k", "kinder", "kindergarten":
		return "K"
	}
	if m := ordinalSuffix.FindStringSubmatch(lower); m != nil {
		return Grade(strings.TrimLeft(m[1], "0"))
	}
	return Grade(g)
}

// GradeFromCode returns the grade prefix of a code such as "3.6A".
func GradeFromCode(code string) Grade {
	prefix, _, ok := strings.Cut(strings.TrimSpace(code), ".")
	if !ok {
		return ""
	}
	return NormalizeGrade(prefix)
}

// Standard is one catalog entry. It is identified by (Code, Grade, Subject);
// the same code may appear under more than one subject.
type Standard struct {
	Code          string
	Grade         Grade
	Subject       Subject
	DescriptionEN string
	DescriptionES string
	Strand        string
	Type          string
}

// Key is the catalog identity of a Standard.
type Key struct {
	Code    string
	Grade   Grade
	Subject Subject
}

// Key returns the catalog identity of s.
func (s Standard) Key() Key {
	return Key{Code: normalizeCode(s.Code), Grade: s.Grade, Subject: s.Subject}
}

// Description returns the English description, falling back to Spanish.
func (s Standard) Description() string {
	if d := strings.TrimSpace(s.DescriptionEN); d != "" {
		return d
	}
	return strings.TrimSpace(s.DescriptionES)
}

// String renders the standard the way pickers display it.
func (s Standard) String() string {
	if d := s.Description(); d != "" {
		return s.Code + " — " + d
	}
	return s.Code
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// defaultDescriptions backs standards whose catalog row has no text. Codes
// repeat across subjects, so entries are keyed by the full identity.
var defaultDescriptions = map[Key][2]string{
	{Code: "3.6A", Grade: "3", Subject: Math}: {
		"Classify and sort two- and three-dimensional figures, including cones, cylinders, spheres, triangular and rectangular prisms, and cubes, based on attributes using formal geometric language.",
		"Clasificar y ordenar figuras bidimensionales y tridimensionales, incluidas los conos, cilindros, esferas, prismas triangulares y prismas rectangulares, y cubos, según atributos usando lenguaje geométrico formal.",
	},
	{Code: "3.6C", Grade: "3", Subject: Math}: {
		"Determine the area of rectangles with whole number side lengths using multiplication related to rows and columns.",
		"Determinar el área de rectángulos con longitudes de lado en números enteros usando multiplicación relacionada con filas y columnas.",
	},
}

// DefaultDescription returns the built-in English and Spanish text for a
// standard, or empty strings. An empty grade is derived from the code.
func DefaultDescription(code string, grade Grade, subject Subject) (en, es string) {
	if grade == "" {
		grade = GradeFromCode(code)
	}
	d := defaultDescriptions[Key{Code: normalizeCode(code), Grade: NormalizeGrade(string(grade)), Subject: subject}]
	return d[0], d[1]
}

// withDefaults fills empty descriptions from the built-in table.
func (s Standard) withDefaults() Standard {
	en, es := DefaultDescription(s.Code, s.Grade, s.Subject)
	if strings.TrimSpace(s.DescriptionEN) == "" {
		s.DescriptionEN = en
	}
	if strings.TrimSpace(s.DescriptionES) == "" {
		s.DescriptionES = es
	}
	return s
}
