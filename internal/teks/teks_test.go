package teks

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGrade(t *testing.T) {
	tests := map[string]Grade{
		"3rd":          "3",
		"1st":          "1",
		"Grade 4":      "4",
		"05":           "5",
		"k":            "K",
		"Kinder":       "K",
		"kindergarten": "K",
		" 2nd ":        "2",
		"Algebra I":    "Algebra I",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeGrade(in), "NormalizeGrade(%q)", in)
	}
}

func TestParseSubject(t *testing.T) {
	s, err := ParseSubject("MATH")
	require.NoError(t, err)
	assert.Equal(t, Math, s)

	s, err = ParseSubject("ELAR")
	require.NoError(t, err)
	assert.Equal(t, Reading, s)

	_, err = ParseSubject("science")
	assert.Error(t, err)
}

func TestEmbeddedCatalogKeysBySubject(t *testing.T) {
	c, err := Embedded()
	require.NoError(t, err)

	m, err := c.Lookup("2.6A", "2", Math)
	require.NoError(t, err)
	r, err := c.Lookup("2.6A", "2", Reading)
	require.NoError(t, err)

	assert.Equal(t, Math, m.Subject)
	assert.Equal(t, Reading, r.Subject)
	assert.NotEqual(t, m.DescriptionEN, r.DescriptionEN, "same code under two subjects must stay distinct")
}

func TestLookupFillsDefaultDescriptions(t *testing.T) {
	c, err := Embedded()
	require.NoError(t, err)

	s, err := c.Lookup("3.6a", "", Math)
	require.NoError(t, err)
	assert.Contains(t, s.DescriptionEN, "Classify and sort two- and three-dimensional figures")
	assert.Contains(t, s.DescriptionES, "Clasificar y ordenar")
	assert.Equal(t, Grade("3"), s.Grade)
}

func TestDefaultDescriptionsKeyedBySubject(t *testing.T) {
	c, err := Embedded()
	require.NoError(t, err)

	r := c.Resolve("3.6A", "3", Reading)
	assert.Empty(t, r.DescriptionEN, "a reading standard must not borrow the math text")
	assert.Empty(t, r.DescriptionES)

	en, _ := DefaultDescription("3.6a", "", Math)
	assert.Contains(t, en, "Classify and sort")
	en, _ = DefaultDescription("3.6A", "4", Math)
	assert.Empty(t, en)
}

func TestLookupNotFound(t *testing.T) {
	c := NewCatalog()
	_, err := c.Lookup("9.9Z", "9", Math)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolveUnknownCode(t *testing.T) {
	c := NewCatalog()

	s := c.Resolve("3.6C", "3rd", Math)
	assert.Equal(t, "3.6C", s.Code)
	assert.Equal(t, Grade("3"), s.Grade)
	assert.Contains(t, s.DescriptionEN, "area of rectangles")

	blank := c.Resolve("4.1A", "", Reading)
	assert.Equal(t, Grade("4"), blank.Grade)
	assert.Empty(t, blank.Description())
}

func TestListByFiltersAndOrders(t *testing.T) {
	c := NewCatalog(
		Standard{Code: "3.10A", Subject: Math},
		Standard{Code: "3.9B", Subject: Math},
		Standard{Code: "3.2A", Subject: Math},
		Standard{Code: "4.2A", Subject: Math},
		Standard{Code: "3.6F", Subject: Reading},
	)

	got := c.ListBy("3rd", Math)
	var codes []string
	for _, s := range got {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"3.2A", "3.9B", "3.10A"}, codes)

	assert.Len(t, c.ListBy("", ""), 5)
	assert.Len(t, c.ListBy("3", ""), 4)
}

func TestLoadCSVHeaderAliases(t *testing.T) {
	in := "TEKS,English,Descripción\n" +
		"3.4K,Solve one-step problems,Resolver problemas\n" +
		",ignored,ignored\n"

	stds, err := LoadCSV(strings.NewReader(in), Math)
	require.NoError(t, err)
	require.Len(t, stds, 1)

	s := stds[0]
	assert.Equal(t, "3.4K", s.Code)
	assert.Equal(t, Grade("3"), s.Grade)
	assert.Equal(t, Math, s.Subject)
	assert.Equal(t, "Solve one-step problems", s.DescriptionEN)
	assert.Equal(t, "Resolver problemas", s.DescriptionES)
}

func TestLoadCSVGenericDescription(t *testing.T) {
	in := "standard_code,student_expectation,subject,grade\n" +
		"2.6A,Establish purpose for reading,reading,2nd\n"

	stds, err := LoadCSV(strings.NewReader(in), Math)
	require.NoError(t, err)
	require.Len(t, stds, 1)
	assert.Equal(t, "Establish purpose for reading", stds[0].DescriptionEN)
	assert.Equal(t, Reading, stds[0].Subject)
	assert.Equal(t, Grade("2"), stds[0].Grade)
}

func TestLoadCSVFirstColumnFallback(t *testing.T) {
	stds, err := LoadCSV(strings.NewReader("whatever,desc\n5.4H,Volume problems\n"), Math)
	require.NoError(t, err)
	require.Len(t, stds, 1)
	assert.Equal(t, "5.4H", stds[0].Code)
	assert.Equal(t, "Volume problems", stds[0].DescriptionEN)
}

func TestLoadCSVBadSubject(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("code,subject\n3.1A,art\n"), Math)
	assert.ErrorContains(t, err, "line 2")
}

func TestOpenMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.csv")
	require.NoError(t, os.WriteFile(path, []byte("code,description_en\n3.99Z,Custom standard\n"), 0o600))

	c, err := Open(path)
	require.NoError(t, err)

	s, err := c.Lookup("3.99Z", "3", Math)
	require.NoError(t, err)
	assert.Equal(t, "Custom standard", s.DescriptionEN)

	_, err = c.Lookup("3.6A", "3", Math)
	assert.NoError(t, err, "embedded standards remain available")
}

func TestWriteTemplateRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf))

	stds, err := LoadCSV(&buf, Reading)
	require.NoError(t, err)
	require.Len(t, stds, 2)
	assert.Equal(t, Math, stds[0].Subject)
	assert.Equal(t, "Geometry", stds[0].Strand)
	assert.Equal(t, "readiness", stds[0].Type)
}
