package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const generationEventsTable = "generation_events"

var generationColumns = []string{
	"id", "sequence", "timestamp", "run_id", "teks_code", "grade", "subject",
	"doc_kind", "model", "llm_calls", "structural_repair", "alignment_score",
	"alignment_revised", "answer_key_found", "fallback", "output_path",
	"success", "error_message",
}

func (r *eventRepo) AppendGeneration(ctx context.Context, data GenerationEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	var score any
	if data.AlignmentScore != nil {
		score = *data.AlignmentScore
	}

	query, args := builder().Insert(generationEventsTable).
		Columns(generationColumns[1:]...).
		Values(
			seqNum, time.Now().UnixMilli(), data.RunID, data.TEKSCode, data.Grade, data.Subject,
			data.DocKind, data.Model, data.LLMCalls, data.StructuralRepair, score,
			data.AlignmentRevised, data.AnswerKeyFound, data.Fallback, data.OutputPath,
			data.Success, data.ErrorMessage,
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save generation event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryGenerations(ctx context.Context, opts QueryOpts) ([]GenerationRecord, error) {
	sel := builder().Select(generationColumns...).
		From(entsql.Table(generationEventsTable)).
		OrderBy(entsql.Desc("sequence"))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generation events: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var (
			rec   GenerationRecord
			ts    int64
			score sql.NullFloat64
		)
		err := rows.Scan(
			&rec.ID, &rec.Sequence, &ts, &rec.RunID, &rec.TEKSCode, &rec.Grade, &rec.Subject,
			&rec.DocKind, &rec.Model, &rec.LLMCalls, &rec.StructuralRepair, &score,
			&rec.AlignmentRevised, &rec.AnswerKeyFound, &rec.Fallback, &rec.OutputPath,
			&rec.Success, &rec.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan generation event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		if score.Valid {
			v := score.Float64
			rec.AlignmentScore = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation events: %w", err)
	}
	return records, nil
}
