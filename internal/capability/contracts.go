package capability

import (
	"context"

	"github.com/supportai/triage-pipeline/internal/ticket"
)

// IntentJudgement is the raw classification wire shape for intent detection.
// Enum fields stay as strings here; stages normalize them into ticket types
// and log anything out of range.
type IntentJudgement struct {
	ProblemType string  `json:"problem_type"`
	Sentiment   string  `json:"sentiment"`
	Confidence  float64 `json:"confidence"`
}

// TriageJudgement is the raw classification wire shape for triage routing.
type TriageJudgement struct {
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory"`
	Priority      string  `json:"priority"`
	SLAHours      int     `json:"sla_hours"`
	SuggestedTeam string  `json:"suggested_team"`
	Confidence    float64 `json:"confidence"`
}

// PolicyJudgement is the raw semantic policy verdict for a rendered draft.
type PolicyJudgement struct {
	RefundPromise    bool     `json:"refund_promise"`
	SLAMentioned     bool     `json:"sla_mentioned"`
	EscalationNeeded bool     `json:"escalation_needed"`
	Compliance       string   `json:"compliance"`
	Violations       []string `json:"violations"`
}

// Classifier requests structured judgements from an external model. Any
// response that deviates from the requested shape surfaces as a
// *ticket.ParseError, never a panic.
type Classifier interface {
	ClassifyIntent(ctx context.Context, message string) (IntentJudgement, error)
	ClassifyTriage(ctx context.Context, intent ticket.IntentResult, message string) (TriageJudgement, error)
	CheckPolicy(ctx context.Context, draftText string) (PolicyJudgement, error)
}

// QueryContext is the input to search-query generation.
type QueryContext struct {
	Message     string
	ProblemType ticket.ProblemType
	Category    string
}

// DraftContext is the input to response-draft generation.
type DraftContext struct {
	Message       string
	CustomerName  string
	Category      string
	Priority      ticket.Priority
	Sentiment     ticket.Sentiment
	SuggestedTeam string
	Documents     []ticket.CandidateDocument
}

// DraftJudgement is the raw generation wire shape for a response draft.
type DraftJudgement struct {
	Greeting string `json:"greeting"`
	Body     string `json:"body"`
	Closing  string `json:"closing"`
	Tone     string `json:"tone"`
}

// Generator produces free-form structured text: diversified search queries and
// customer-facing drafts.
type Generator interface {
	GenerateQueries(ctx context.Context, qc QueryContext) ([]string, error)
	GenerateDraft(ctx context.Context, dc DraftContext) (DraftJudgement, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher returns the topK nearest knowledge-base chunks for a query
// vector. Results must be deterministic for identical input vectors.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]ticket.CandidateDocument, error)
}

// IndexedChunk is a knowledge-base chunk paired with its embedding, ready for
// upsert into a vector store.
type IndexedChunk struct {
	Document  ticket.CandidateDocument
	Embedding []float32
}

// VectorIndexer is the write side of a vector store. The pipeline itself never
// uses it; only the indexing command does.
type VectorIndexer interface {
	Upsert(ctx context.Context, chunks []IndexedChunk) error
}

// Reranker rescores candidates by relevance to the query and returns at most
// topK of them.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []ticket.CandidateDocument, topK int) ([]ticket.CandidateDocument, error)
}

// Escalator hands a ticket to the human-escalation collaborator. The handoff
// is fire-and-forget: implementations must not block on human action.
type Escalator interface {
	Escalate(ctx context.Context, esc ticket.Escalation) error
}
