package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/staarai/internal/contentgen"
	"github.com/abhisek/staarai/internal/pipeline"
	"github.com/abhisek/staarai/internal/teks"
)

func TestReadAttachments(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "shapes.txt")
	b := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(a, []byte("  A cube has 6 faces.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("Use pattern blocks."), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readAttachments([]string{a, b})
	if err != nil {
		t.Fatalf("readAttachments: %v", err)
	}
	want := "[shapes.txt]\nA cube has 6 faces.\n\n[notes.txt]\nUse pattern blocks."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := readAttachments([]string{filepath.Join(dir, "missing.txt")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGenerateRequest_FromFlags(t *testing.T) {
	err := generateCmd.ParseFlags([]string{
		"--code", "3.6A",
		"--subject", "math",
		"--kind", "worksheet",
		"--types", "sa,mc",
		"--bilingual",
		"--strict=false",
		"--notes", "  cubes  ",
	})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	req, sel, err := generateRequest(generateCmd)
	if err != nil {
		t.Fatalf("generateRequest: %v", err)
	}
	if sel != pipeline.SelectWorksheet {
		t.Errorf("selection = %q", sel)
	}
	if req.Standard.Code != "3.6A" || req.Standard.Grade != "3" || req.Standard.Subject != teks.Math {
		t.Errorf("standard = %+v", req.Standard)
	}
	if req.Standard.DescriptionEN == "" {
		t.Error("expected a description for 3.6A")
	}
	if req.Mode() != contentgen.MultipleChoice {
		t.Errorf("mode = %q", req.Mode())
	}
	if !req.Bilingual || req.StrictAlign {
		t.Errorf("bilingual=%v strict=%v", req.Bilingual, req.StrictAlign)
	}
	if req.TeacherNotes != "cubes" {
		t.Errorf("notes = %q", req.TeacherNotes)
	}
}

func TestPrintResult(t *testing.T) {
	appCfg.ShowAlignment = false
	var out bytes.Buffer
	generateCmd.SetOut(&out)
	defer generateCmd.SetOut(nil)

	printResult(generateCmd, &pipeline.Result{
		RunID: "run-1",
		Worksheet: &pipeline.DocumentResult{
			Document: contentgen.Document{Kind: contentgen.Worksheet},
			Calls:    2,
			Path:     "out/G3-3.6A_261015_WS.pdf",
			KeyPath:  "out/G3-3.6A_261015_AK.pdf",
			Repaired: true,
		},
		Notices: []string{"No separate answer key was produced for this worksheet."},
	})

	got := out.String()
	for _, want := range []string{"Run run-1", "Worksheet: out/G3-3.6A_261015_WS.pdf", "Answer key: out/G3-3.6A_261015_AK.pdf", "repaired: true", "Note: No separate"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Lesson plan") {
		t.Errorf("lesson should be omitted:\n%s", got)
	}
}
