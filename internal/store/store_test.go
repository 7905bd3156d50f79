package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is checked in TestOpenFileDatabase.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "staarai.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"llm_request_events", "generation_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestLLMEventsAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "lesson", InputTokens: 100, OutputTokens: 400, LatencyMs: 900, Success: true, RequestBody: "[user]\nlesson", ResponseBody: "## Objective_EN"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "worksheet", InputTokens: 120, OutputTokens: 500, LatencyMs: 1100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "alignment-judge", InputTokens: 80, OutputTokens: 40, LatencyMs: 300, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[0].Purpose != "alignment-judge" {
		t.Errorf("newest purpose = %q, want alignment-judge", got[0].Purpose)
	}
	if got[0].Success || got[0].ErrorMessage != "rate limited" {
		t.Errorf("failure not recorded: %+v", got[0])
	}
	if time.Since(got[0].Timestamp) > time.Minute {
		t.Errorf("timestamp too old: %v", got[0].Timestamp)
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d, want 2", len(limited))
	}

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: got[1].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 1 || after[0].ID != got[0].ID {
		t.Errorf("after filter returned %+v", after)
	}

	first, err := repo.GetLLMEvent(ctx, got[2].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first == nil || first.RequestBody != "[user]\nlesson" || first.ResponseBody != "## Objective_EN" {
		t.Errorf("bodies not round-tripped: %+v", first)
	}
}

func TestGetLLMEventMissing(t *testing.T) {
	s := openTestStore(t)
	e, err := s.EventRepo().GetLLMEvent(context.Background(), 999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e != nil {
		t.Fatalf("expected nil for missing event, got %+v", e)
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, e := range []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "worksheet", InputTokens: 100, OutputTokens: 200, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "worksheet", InputTokens: 50, OutputTokens: 60, LatencyMs: 300, Success: true},
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "lesson", InputTokens: 10, OutputTokens: 20, LatencyMs: 50, Success: true},
	} {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	ws := byPurpose[0]
	if ws.Purpose != "worksheet" || ws.Calls != 2 || ws.InputTokens != 150 || ws.OutputTokens != 260 || ws.AvgLatencyMs != 200 {
		t.Errorf("worksheet usage = %+v", ws)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o-mini" {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestGenerationEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	score := 0.92
	err := repo.AppendGeneration(ctx, GenerationEventData{
		RunID: "run-1", TEKSCode: "3.6A", Grade: "3", Subject: "Math", DocKind: "worksheet",
		Model: "gpt-4o-mini", LLMCalls: 3, StructuralRepair: true, AlignmentScore: &score,
		AnswerKeyFound: true, OutputPath: "out/G3-3.6A_261015_WS.pdf", Success: true,
	})
	if err != nil {
		t.Fatalf("append worksheet: %v", err)
	}
	err = repo.AppendGeneration(ctx, GenerationEventData{
		RunID: "run-1", TEKSCode: "3.6A", Grade: "3", Subject: "Math", DocKind: "lesson",
		Success: false, ErrorMessage: "provider unavailable",
	})
	if err != nil {
		t.Fatalf("append lesson: %v", err)
	}

	got, err := repo.QueryGenerations(ctx, QueryOpts{Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].DocKind != "lesson" || got[0].AlignmentScore != nil || got[0].Success {
		t.Errorf("lesson record = %+v", got[0])
	}
	ws := got[1]
	if ws.AlignmentScore == nil || *ws.AlignmentScore != 0.92 {
		t.Errorf("alignment score = %v, want 0.92", ws.AlignmentScore)
	}
	if !ws.StructuralRepair || !ws.AnswerKeyFound || ws.LLMCalls != 3 {
		t.Errorf("worksheet flags = %+v", ws)
	}
}

func TestDefaultDBPathFromEnv(t *testing.T) {
	want := filepath.Join(t.TempDir(), "db", "custom.db")
	t.Setenv("STAAR_DB", want)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestDefaultDBPathXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STAAR_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := filepath.Join(dir, "staarai", "staarai.db"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}
