package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates calls and tokens for one purpose or model.
type LLMUsageStats struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// GenerationEventData captures the outcome of generating one document.
type GenerationEventData struct {
	RunID            string
	TEKSCode         string
	Grade            string
	Subject          string
	DocKind          string
	Model            string
	LLMCalls         int
	StructuralRepair bool
	// AlignmentScore is nil when the judge did not run.
	AlignmentScore   *float64
	AlignmentRevised bool
	AnswerKeyFound   bool
	Fallback         bool
	OutputPath       string
	Success          bool
	ErrorMessage     string
}

// GenerationRecord is a stored generation event.
type GenerationRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	GenerationEventData
}

// EventRepo provides append and query access to stored events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns a single event by ID, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)

	// AppendGeneration records a finished document generation.
	AppendGeneration(ctx context.Context, data GenerationEventData) error

	// QueryGenerations returns generation events, newest first.
	QueryGenerations(ctx context.Context, opts QueryOpts) ([]GenerationRecord, error)
}
