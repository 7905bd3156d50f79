package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := New(t.TempDir())
	r.Now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	return r
}

func TestFileNames(t *testing.T) {
	r := fixedRenderer(t)
	meta := Meta{Code: "3.6A", Grade: "3"}

	assert.Equal(t, "G3-3.6A_261015", r.Base(meta))
	assert.Equal(t, "G3-3.6A_261015_LP.pdf", r.FileName(LessonPlan, meta))
	assert.Equal(t, "G3-3.6A_261015_WS.pdf", r.FileName(Worksheet, meta))
	assert.Equal(t, "G3-3.6A_261015_AK.pdf", r.FileName(AnswerKey, meta))

	assert.Equal(t, "GK-K.2A-B_261015", r.Base(Meta{Code: "K.2A / B", Grade: "K"}))
}

func TestParse(t *testing.T) {
	md := "# Worksheet\n\n\n## English\n- Q1. How many **faces**?\n  - A. 4\n**Answer Key (EN)**\nPlain text\n### Deep\n\n"
	got := Parse(md)

	want := []Line{
		{Style: Heading1, Text: "Worksheet"},
		{Style: Blank},
		{Style: Heading2, Text: "English"},
		{Style: Bullet, Text: "Q1. How many faces?"},
		{Style: Bullet, Text: "A. 4", Level: 1},
		{Style: Bold, Text: "Answer Key (EN)"},
		{Style: Body, Text: "Plain text"},
		{Style: Heading2, Text: "Deep"},
	}
	assert.Equal(t, want, got)
}

func TestRender_WritesPDF(t *testing.T) {
	r := fixedRenderer(t)
	meta := Meta{Code: "3.6A", Grade: "3", Subject: "Math"}

	md := "# Hoja de trabajo — 3.6A\n## Español\n- P1. ¿Cuántas caras tiene un cubo?\n  - A. 4\n  - B. 6\n"
	path, err := r.Render(Worksheet, md, meta)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Dir, "G3-3.6A_261015_WS.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "not a PDF")
}

func TestRender_TitleOverride(t *testing.T) {
	lines := replaceTitle(Parse("# Original\nbody"), "Answer Key — Math 3 — 3.6A")
	require.Len(t, lines, 2)
	assert.Equal(t, Line{Style: Heading1, Text: "Answer Key — Math 3 — 3.6A"}, lines[0])
	assert.Equal(t, "body", lines[1].Text)
}

func TestBundle(t *testing.T) {
	r := fixedRenderer(t)
	meta := Meta{Code: "3.6A", Grade: "3"}

	lp, err := r.Render(LessonPlan, "# Lesson\nbody", meta)
	require.NoError(t, err)
	ws, err := r.Render(Worksheet, "# Worksheet\n- Q1. x", meta)
	require.NoError(t, err)

	zipPath, err := r.Bundle(meta, lp, ws, "", filepath.Join(r.Dir, "missing_AK.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "G3-3.6A_261015.zip", filepath.Base(zipPath))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"G3-3.6A_261015_LP.pdf", "G3-3.6A_261015_WS.pdf"}, names)
}

func TestRunDirsKeepRequestsApart(t *testing.T) {
	r := fixedRenderer(t)
	math := Meta{Code: "2.6A", Grade: "2", Subject: "Math", RunID: "run-math"}
	reading := Meta{Code: "2.6A", Grade: "2", Subject: "Reading", RunID: "run-reading"}

	mp, err := r.Render(AnswerKey, "# Key\n- **Q1.** A", math)
	require.NoError(t, err)
	rp, err := r.Render(AnswerKey, "# Key\n- **Q1.** B", reading)
	require.NoError(t, err)

	assert.NotEqual(t, mp, rp)
	assert.Equal(t, filepath.Join(r.Dir, "run-math", "G2-2.6A_261015_AK.pdf"), mp)
	assert.Equal(t, filepath.Join(r.Dir, "run-reading", "G2-2.6A_261015_AK.pdf"), rp)

	zipPath, err := r.Bundle(math, mp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Dir, "run-math", "G2-2.6A_261015.zip"), zipPath)

	assert.Equal(t, r.Dir, r.RunDir(Meta{Code: "2.6A"}))
	assert.Equal(t, filepath.Join(r.Dir, "etc"), r.RunDir(Meta{RunID: "../etc"}))
}

func TestBundle_Nothing(t *testing.T) {
	r := fixedRenderer(t)
	_, err := r.Bundle(Meta{Code: "3.6A", Grade: "3"}, "", filepath.Join(r.Dir, "nope.pdf"))
	assert.True(t, errors.Is(err, ErrNothingToBundle))
}

func TestOutputs_PDFs(t *testing.T) {
	o := Outputs{LessonPlanPath: "a.pdf", AnswerKeyPath: "c.pdf"}
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, o.PDFs())
}
