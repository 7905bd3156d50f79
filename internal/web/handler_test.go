package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/staarai/internal/alignment"
	"github.com/abhisek/staarai/internal/contentgen"
	"github.com/abhisek/staarai/internal/llm"
	"github.com/abhisek/staarai/internal/pipeline"
	"github.com/abhisek/staarai/internal/render"
	"github.com/abhisek/staarai/internal/teks"
)

type fakeRunner struct {
	req    contentgen.Request
	sel    pipeline.Selection
	result *pipeline.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, req contentgen.Request, sel pipeline.Selection) (*pipeline.Result, error) {
	f.req = req
	f.sel = sel
	return f.result, f.err
}

type fakeDB struct{ err error }

func (f fakeDB) PingContext(context.Context) error { return f.err }

func newTestServer(t *testing.T, runner *fakeRunner, showAlignment bool) (http.Handler, string) {
	t.Helper()
	catalog, err := teks.Embedded()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	dir := t.TempDir()
	h := NewHandler(catalog, runner, dir, showAlignment, fakeDB{}, nil)
	return Routes(h), dir
}

func postForm(t *testing.T, srv http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func sampleResult(dir string) *pipeline.Result {
	return &pipeline.Result{
		RunID: "run-1",
		Worksheet: &pipeline.DocumentResult{
			Document:  contentgen.Document{Kind: contentgen.Worksheet},
			Alignment: &alignment.Report{Score: 0.82, Issues: []string{"Q4 drifts to area"}, NonAlignedItems: []string{"Q4"}},
			Threshold: 0.9,
			Revised:   true,
		},
		Outputs: render.Outputs{
			WorksheetPath: filepath.Join(dir, "run-1", "G3-3.6A_261015_WS.pdf"),
			AnswerKeyPath: filepath.Join(dir, "run-1", "G3-3.6A_261015_AK.pdf"),
			ZipPath:       filepath.Join(dir, "run-1", "G3-3.6A_261015.zip"),
		},
	}
}

func TestServeForm(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{}, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?grade=3rd&subject=math", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`<option value="3.6A">`, `name="types" value="multiple_choice" checked`, `name="strict_align" value="1" checked`} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
}

func TestGenerate_BuildsRequest(t *testing.T) {
	runner := &fakeRunner{}
	srv, dir := newTestServer(t, runner, false)
	runner.result = sampleResult(dir)

	rec := postForm(t, srv, url.Values{
		"grade":        {"3"},
		"subject":      {"Math"},
		"code":         {" 3.6a "},
		"kind":         {"worksheet"},
		"types":        {"mc", "sa"},
		"bilingual":    {"1"},
		"strict_align": {"1"},
		"notes":        {"<b>Use</b> a toy shop <script>alert(1)</script>story & shapes"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	req := runner.req
	if req.Standard.Code != "3.6A" || req.Standard.DescriptionEN == "" {
		t.Errorf("standard not resolved: %+v", req.Standard)
	}
	if runner.sel != pipeline.SelectWorksheet {
		t.Errorf("selection = %q", runner.sel)
	}
	if !req.Bilingual || !req.StrictAlign || req.Mode() != contentgen.MultipleChoice {
		t.Errorf("unexpected flags: %+v", req)
	}
	if req.TeacherNotes != "Use a toy shop story & shapes" {
		t.Errorf("notes not sanitized: %q", req.TeacherNotes)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `href="/files/run-1/G3-3.6A_261015_AK.pdf"`) {
		t.Error("missing answer key link")
	}
	if strings.Contains(body, "Alignment review") {
		t.Error("alignment report should be hidden by default")
	}
}

func TestGenerate_ShowsAlignmentWhenEnabled(t *testing.T) {
	runner := &fakeRunner{}
	srv, dir := newTestServer(t, runner, true)
	runner.result = sampleResult(dir)

	rec := postForm(t, srv, url.Values{"grade": {"3"}, "subject": {"math"}, "code": {"3.6A"}, "kind": {"both"}})
	body := rec.Body.String()
	for _, want := range []string{"Alignment review: worksheet", "Score 0.82", "threshold 0.90", "Q4 drifts to area"} {
		if !strings.Contains(body, want) {
			t.Errorf("result missing %q", want)
		}
	}
}

func TestGenerate_ProviderUnavailable(t *testing.T) {
	runner := &fakeRunner{err: &llm.ErrProviderUnavailable{Setting: "STAAR_OPENAI_API_KEY"}}
	srv, _ := newTestServer(t, runner, false)

	rec := postForm(t, srv, url.Values{"grade": {"3"}, "subject": {"math"}, "code": {"3.6A"}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "STAAR_OPENAI_API_KEY") {
		t.Error("expected actionable message naming the setting")
	}
}

func TestGenerate_Validation(t *testing.T) {
	runner := &fakeRunner{err: errors.New("should not run")}
	srv, _ := newTestServer(t, runner, false)

	cases := []url.Values{
		{"grade": {"3"}, "subject": {"science"}, "code": {"3.6A"}},
		{"grade": {"3"}, "subject": {"math"}, "code": {""}},
		{"grade": {"3"}, "subject": {"math"}, "code": {"3.6A"}, "types": {"essay"}},
		{"grade": {"3"}, "subject": {"math"}, "code": {"3.6A"}, "kind": {"quiz"}},
	}
	for i, form := range cases {
		rec := postForm(t, srv, form)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want 400", i, rec.Code)
		}
	}
}

func TestServeFile(t *testing.T) {
	srv, dir := newTestServer(t, &fakeRunner{}, false)
	for run, body := range map[string]string{"run-a": "%PDF-1.3 a", "run-b": "%PDF-1.3 b"} {
		if err := os.MkdirAll(filepath.Join(dir, run), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, run, "G3-3.6A_261015_WS.pdf"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for run, want := range map[string]string{"run-a": "%PDF-1.3 a", "run-b": "%PDF-1.3 b"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+run+"/G3-3.6A_261015_WS.pdf", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Errorf("%s: status = %d body = %q", run, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
			t.Error("expected attachment disposition")
		}
	}

	for _, path := range []string{
		"/files/G3-3.6A_261015_WS.pdf",
		"/files/run-a/..%2Fsecrets.pdf",
		"/files/run-a/notes.txt",
		"/files/run-a/.hidden.pdf",
		"/files/..%2Frun-b/G3-3.6A_261015_WS.pdf",
		"/files/run.a/G3-3.6A_261015_WS.pdf",
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestServeStandards(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{}, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/standards?grade=2&subject=reading", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []standardJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected grade 2 reading standards")
	}
	for _, s := range got {
		if s.Grade != "2" || s.Subject != string(teks.Reading) {
			t.Errorf("unexpected standard %+v", s)
		}
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/standards?subject=art", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServeHealth(t *testing.T) {
	catalog := teks.NewCatalog()
	for _, tt := range []struct {
		db   Pinger
		code int
	}{
		{fakeDB{}, http.StatusOK},
		{fakeDB{err: errors.New("disk I/O error")}, http.StatusServiceUnavailable},
		{nil, http.StatusOK},
	} {
		srv := Routes(NewHandler(catalog, &fakeRunner{}, t.TempDir(), false, tt.db, nil))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != tt.code {
			t.Errorf("status = %d, want %d", rec.Code, tt.code)
		}
	}
}
