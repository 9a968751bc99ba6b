package ticket

import (
	"strings"
	"time"
)

// Ticket is a single inbound support request. Immutable once accepted.
type Ticket struct {
	TicketID      string `json:"ticket_id"`
	Message       string `json:"message"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Channel       string `json:"channel,omitempty"`
}

// ProblemType is the coarse classification of what a ticket is about.
type ProblemType string

const (
	ProblemBilling        ProblemType = "billing"
	ProblemTechnical      ProblemType = "technical"
	ProblemAccount        ProblemType = "account"
	ProblemFeatureRequest ProblemType = "feature_request"
	ProblemOther          ProblemType = "other"
)

// NormalizeProblemType maps arbitrary model output onto a known problem type.
// Unknown values collapse to ProblemOther.
func NormalizeProblemType(raw string) ProblemType {
	switch ProblemType(strings.ToLower(strings.TrimSpace(raw))) {
	case ProblemBilling:
		return ProblemBilling
	case ProblemTechnical:
		return ProblemTechnical
	case ProblemAccount:
		return ProblemAccount
	case ProblemFeatureRequest:
		return ProblemFeatureRequest
	default:
		return ProblemOther
	}
}

// Sentiment is the customer's mood as read from the ticket text.
type Sentiment string

const (
	SentimentFrustrated Sentiment = "frustrated"
	SentimentNeutral    Sentiment = "neutral"
	SentimentSatisfied  Sentiment = "satisfied"
)

// NormalizeSentiment maps arbitrary model output onto a known sentiment.
// Unknown values collapse to SentimentNeutral.
func NormalizeSentiment(raw string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case SentimentFrustrated:
		return SentimentFrustrated
	case SentimentSatisfied:
		return SentimentSatisfied
	default:
		return SentimentNeutral
	}
}

// Priority is the triage priority band.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// NormalizePriority coerces invalid priorities to P2 per the triage contract.
func NormalizePriority(raw string) Priority {
	switch Priority(strings.ToUpper(strings.TrimSpace(raw))) {
	case PriorityP1:
		return PriorityP1
	case PriorityP3:
		return PriorityP3
	default:
		return PriorityP2
	}
}

// IntentResult is the output of the intent classification stage.
type IntentResult struct {
	ProblemType ProblemType `json:"problem_type"`
	Sentiment   Sentiment   `json:"sentiment"`
	Confidence  float64     `json:"confidence"`
}

// TriageResult is the output of the triage classification stage.
type TriageResult struct {
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Priority      Priority `json:"priority"`
	SLAHours      int      `json:"sla_hours"`
	SuggestedTeam string   `json:"suggested_team"`
	Confidence    float64  `json:"confidence"`
}

// CandidateDocument is a knowledge-base chunk retrieved for a query. Score is
// the provisional similarity score after search, replaced by the reranker's
// relevance score when reranking succeeds.
type CandidateDocument struct {
	DocID    string  `json:"doc_id"`
	ChunkID  string  `json:"chunk_id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	URL      string  `json:"url"`
	Category string  `json:"category"`
}

// Citation is the projection of a CandidateDocument referenced by a draft.
type Citation struct {
	DocID   string  `json:"doc_id"`
	ChunkID string  `json:"chunk_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	URL     string  `json:"url"`
}

// CitationOf projects a candidate document into a citation.
func CitationOf(d CandidateDocument) Citation {
	return Citation{
		DocID:   d.DocID,
		ChunkID: d.ChunkID,
		Title:   d.Title,
		Score:   d.Score,
		URL:     d.URL,
	}
}

// Draft is the structured customer-facing response. All four fields are always
// populated; missing model output is filled with hard defaults.
type Draft struct {
	Greeting string `json:"greeting"`
	Body     string `json:"body"`
	Closing  string `json:"closing"`
	Tone     string `json:"tone"`
}

// Hard defaults for draft fields the generator failed to produce.
const (
	DefaultGreeting = "Dear Customer,"
	DefaultBody     = "Thank you for your inquiry. We're reviewing your request and will get back to you soon."
	DefaultClosing  = "Best regards,\nSupport Team"
	DefaultTone     = "professional"
)

// Compliance is the overall policy verdict for a draft.
type Compliance string

const (
	CompliancePassed Compliance = "passed"
	ComplianceFailed Compliance = "failed"
)

// PolicyCheckResult combines the rule-based and semantic policy checks.
type PolicyCheckResult struct {
	RefundPromise    bool       `json:"refund_promise"`
	SLAMentioned     bool       `json:"sla_mentioned"`
	EscalationNeeded bool       `json:"escalation_needed"`
	Compliance       Compliance `json:"compliance"`
	Violations       []string   `json:"violations"`
}

// FinalOutput is emitted on the finalize path only.
type FinalOutput struct {
	TicketID    string            `json:"ticket_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Triage      TriageResult      `json:"triage"`
	AnswerDraft Draft             `json:"answer_draft"`
	Citations   []Citation        `json:"citations"`
	PolicyCheck PolicyCheckResult `json:"policy_check"`
}

// Escalation is the handoff record for the human-escalation collaborator.
type Escalation struct {
	TicketID string         `json:"ticket_id"`
	Reason   string         `json:"reason"`
	Snapshot *WorkflowState `json:"workflow_state_snapshot"`
}

// WorkflowState is the single mutable accumulator for one pipeline run. It is
// exclusively owned by its run from creation to terminal state; no stage keeps
// a reference after returning.
type WorkflowState struct {
	Ticket Ticket `json:"ticket"`

	Intent        *IntentResult       `json:"intent,omitempty"`
	Triage        *TriageResult       `json:"triage,omitempty"`
	SearchQueries []string            `json:"search_queries,omitempty"`
	RetrievedDocs []CandidateDocument `json:"retrieved_docs,omitempty"`
	RerankedDocs  []CandidateDocument `json:"reranked_docs,omitempty"`
	Draft         *Draft              `json:"draft,omitempty"`
	PolicyCheck   *PolicyCheckResult  `json:"policy_check,omitempty"`

	// Errors accumulates non-fatal stage diagnostics. Any entry forces the
	// escalation gate to hand the ticket to a human.
	Errors []string `json:"errors"`
}

// NewWorkflowState starts a run for the given ticket.
func NewWorkflowState(t Ticket) *WorkflowState {
	return &WorkflowState{Ticket: t, Errors: []string{}}
}

// RecordError appends a stage diagnostic.
func (s *WorkflowState) RecordError(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	s.Errors = append(s.Errors, msg)
}
