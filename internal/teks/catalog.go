package teks

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when no standard matches a lookup.
var ErrNotFound = errors.New("standard not found")

//go:embed data/teks_sample.csv
var sampleCSV string

// Catalog is a read-only-after-load set of standards keyed by
// (code, grade, subject). It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	byKey map[Key]Standard
	order []Key
}

// NewCatalog builds a catalog from standards. Later duplicates replace
// earlier ones.
func NewCatalog(standards ...Standard) *Catalog {
	c := &Catalog{byKey: make(map[Key]Standard)}
	c.Add(standards...)
	return c
}

// Embedded returns the catalog shipped with the binary.
func Embedded() (*Catalog, error) {
	stds, err := LoadCSV(strings.NewReader(sampleCSV), Math)
	if err != nil {
		return nil, fmt.Errorf("load embedded catalog: %w", err)
	}
	return NewCatalog(stds...), nil
}

// Open returns the embedded catalog extended with the standards in the CSV
// file at path. An empty path returns the embedded catalog.
func Open(path string) (*Catalog, error) {
	c, err := Embedded()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	stds, err := LoadCSV(f, Math)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	c.Add(stds...)
	return c, nil
}

// Add inserts or replaces standards.
func (c *Catalog) Add(standards ...Standard) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range standards {
		s.Code = strings.TrimSpace(s.Code)
		if s.Grade == "" {
			s.Grade = GradeFromCode(s.Code)
		} else {
			s.Grade = NormalizeGrade(string(s.Grade))
		}
		k := s.Key()
		if _, exists := c.byKey[k]; !exists {
			c.order = append(c.order, k)
		}
		c.byKey[k] = s
	}
}

// Len reports the number of standards.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Lookup finds the standard identified by (code, grade, subject). An empty
// grade is derived from the code prefix. Missing descriptions are filled
// from the built-in defaults.
func (c *Catalog) Lookup(code string, grade Grade, subject Subject) (Standard, error) {
	if grade == "" {
		grade = GradeFromCode(code)
	}
	k := Key{Code: normalizeCode(code), Grade: NormalizeGrade(string(grade)), Subject: subject}

	c.mu.RLock()
	s, ok := c.byKey[k]
	c.mu.RUnlock()
	if !ok {
		return Standard{}, fmt.Errorf("%s (grade %s, %s): %w", code, k.Grade, subject, ErrNotFound)
	}
	return s.withDefaults(), nil
}

// Resolve is Lookup that never fails: a code missing from the catalog
// yields an ad-hoc standard carrying any built-in default description.
// Teachers may type codes the catalog does not know.
func (c *Catalog) Resolve(code string, grade Grade, subject Subject) Standard {
	if s, err := c.Lookup(code, grade, subject); err == nil {
		return s
	}
	if grade == "" {
		grade = GradeFromCode(code)
	}
	return Standard{
		Code:    strings.TrimSpace(code),
		Grade:   NormalizeGrade(string(grade)),
		Subject: subject,
	}.withDefaults()
}

// ListBy returns the standards for grade and subject in code order. An
// empty grade or subject matches all.
func (c *Catalog) ListBy(grade Grade, subject Subject) []Standard {
	if grade != "" {
		grade = NormalizeGrade(string(grade))
	}

	c.mu.RLock()
	var out []Standard
	for _, k := range c.order {
		if grade != "" && k.Grade != grade {
			continue
		}
		if subject != "" && k.Subject != subject {
			continue
		}
		out = append(out, c.byKey[k].withDefaults())
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return lessCode(out[i].Code, out[j].Code)
	})
	return out
}

// WriteTemplate writes a CSV header and example rows teachers can fill in.
func WriteTemplate(w io.Writer) error {
	const tmpl = "subject,grade,code,description_en,description_es,strand,type\n" +
		"math,3,3.6A,\"Classify and sort two- and three-dimensional figures …\",\"Clasificar y ordenar figuras bidimensionales y tridimensionales …\",Geometry,readiness\n" +
		"math,3,3.6C,\"Determine the area of rectangles with whole number side lengths…\",\"Determinar el área de rectángulos con longitudes de lado en números enteros…\",Geometry,readiness\n"
	_, err := io.WriteString(w, tmpl)
	return err
}

// lessCode orders "3.10A" after "3.9B".
func lessCode(a, b string) bool {
	pa, pb := codeParts(a), codeParts(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] == pb[i] {
			continue
		}
		na, errA := atoiPrefix(pa[i])
		nb, errB := atoiPrefix(pb[i])
		if errA == nil && errB == nil && na != nb {
			return na < nb
		}
		return pa[i] < pb[i]
	}
	return len(pa) < len(pb)
}

func codeParts(code string) []string {
	return strings.Split(normalizeCode(code), ".")
}

func atoiPrefix(s string) (int, error) {
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return 0, errors.New("no digits")
	}
	return n, nil
}
