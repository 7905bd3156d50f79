package teks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Header aliases accepted for each logical column, in priority order.
var (
	codeAliases = []string{"code", "teks", "teks_code", "standard", "standard_code", "id"}
	enAliases   = []string{
		"description_en", "desc_en", "english", "english_description",
		"en_description", "description (en)", "descriptionen",
	}
	esAliases = []string{
		"description_es", "desc_es", "spanish", "spanish_description", "es_description",
		"descripcion", "descripcion_es", "descripción", "descripción_es",
		"description (es)", "descripciones",
	}
	genericAliases = []string{
		"description", "desc", "teks_description", "standard_description",
		"student_expectation", "se", "text", "statement", "learning_objective",
	}
	gradeAliases   = []string{"grade", "grade_level", "grado"}
	subjectAliases = []string{"subject", "content_area", "materia"}
	strandAliases  = []string{"strand", "reporting_category"}
	typeAliases    = []string{"type", "standard_type"}
)

// columns maps logical fields to CSV column indexes (-1 when absent).
type columns struct {
	code, en, es, generic, grade, subject, strand, kind int
}

func resolveColumns(header []string) columns {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	find := func(aliases []string) int {
		for _, a := range aliases {
			if i, ok := idx[a]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		code:    find(codeAliases),
		en:      find(enAliases),
		es:      find(esAliases),
		generic: find(genericAliases),
		grade:   find(gradeAliases),
		subject: find(subjectAliases),
		strand:  find(strandAliases),
		kind:    find(typeAliases),
	}
	// Without a recognizable code column the first column is the code.
	if cols.code < 0 {
		cols.code = 0
	}
	return cols
}

// LoadCSV parses a standards CSV. Headers are matched case-insensitively
// against known aliases; a generic description column stands in for the
// English one. Rows without a subject column use defaultSubject; rows
// without a grade column take the grade from the code prefix. Rows with an
// empty code are skipped.
func LoadCSV(r io.Reader, defaultSubject Subject) ([]Standard, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := resolveColumns(header)

	var out []Standard
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		code := field(cols.code)
		if code == "" {
			continue
		}

		s := Standard{
			Code:          code,
			DescriptionEN: field(cols.en),
			DescriptionES: field(cols.es),
			Strand:        field(cols.strand),
			Type:          field(cols.kind),
			Subject:       defaultSubject,
			Grade:         GradeFromCode(code),
		}
		if s.DescriptionEN == "" {
			s.DescriptionEN = field(cols.generic)
		}
		if g := field(cols.grade); g != "" {
			s.Grade = NormalizeGrade(g)
		}
		if subj := field(cols.subject); subj != "" {
			parsed, err := ParseSubject(subj)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			s.Subject = parsed
		}
		out = append(out, s)
	}
	return out, nil
}
