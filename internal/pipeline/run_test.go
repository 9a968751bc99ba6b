package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/capability/capfake"
	"github.com/supportai/triage-pipeline/internal/ticket"
)

func testTicket() ticket.Ticket {
	return ticket.Ticket{
		TicketID:      "T-100",
		Message:       "I was charged twice for my subscription this month",
		CustomerEmail: "jane.doe@example.com",
		Subject:       "Double charge",
		Channel:       "email",
	}
}

func newTestPipeline(caps *capfake.Capabilities) *Pipeline {
	return New(Capabilities{
		Classifier: caps,
		Generator:  caps,
		Embedder:   caps,
		Searcher:   caps,
		Reranker:   caps,
		Escalator:  caps,
	}, Options{Retry: capability.RetryOptions{JitterFrac: -1}})
}

// healthyCaps scripts every capability to succeed with plausible values.
func healthyCaps() *capfake.Capabilities {
	doc := ticket.CandidateDocument{
		DocID:   "KB-1",
		ChunkID: "c-0",
		Title:   "Duplicate charges",
		Content: "If you see a duplicate charge, our finance team reviews it within one business day.",
		Score:   0.9,
		URL:     "https://kb.example.com/billing/duplicate",
	}
	return &capfake.Capabilities{
		IntentFn: func(ctx context.Context, message string) (capability.IntentJudgement, error) {
			return capability.IntentJudgement{ProblemType: "billing", Sentiment: "neutral", Confidence: 0.92}, nil
		},
		TriageFn: func(ctx context.Context, intent ticket.IntentResult, message string) (capability.TriageJudgement, error) {
			return capability.TriageJudgement{
				Category:      "Billing - Refund",
				Subcategory:   "Duplicate Charge",
				Priority:      "P2",
				SLAHours:      24,
				SuggestedTeam: "Finance Team",
				Confidence:    0.88,
			}, nil
		},
		QueriesFn: func(ctx context.Context, qc capability.QueryContext) ([]string, error) {
			return []string{"duplicate subscription charge refund", "billing charged twice same month"}, nil
		},
		EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{0.1, 0.2, 0.3}, nil
		},
		SearchFn: func(ctx context.Context, vector []float32, topK int) ([]ticket.CandidateDocument, error) {
			return []ticket.CandidateDocument{doc}, nil
		},
		RerankFn: func(ctx context.Context, query string, docs []ticket.CandidateDocument, topK int) ([]ticket.CandidateDocument, error) {
			return docs, nil
		},
		DraftFn: func(ctx context.Context, dc capability.DraftContext) (capability.DraftJudgement, error) {
			return capability.DraftJudgement{
				Greeting: "Dear " + dc.CustomerName + ",",
				Body:     "Thank you for flagging the duplicate charge. Our Finance team will review your transactions and follow up by email.",
				Closing:  "Best regards,\nSupport Team",
				Tone:     "empathetic_professional",
			}, nil
		},
		PolicyFn: func(ctx context.Context, draftText string) (capability.PolicyJudgement, error) {
			return capability.PolicyJudgement{Compliance: "passed"}, nil
		},
	}
}

func TestRunHappyPathFinalizes(t *testing.T) {
	caps := healthyCaps()
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Decision != DecisionFinalize {
		t.Fatalf("decision = %s (%s), want finalize", res.Decision, res.Reason)
	}
	if res.Output == nil || res.Escalation != nil {
		t.Fatalf("finalize must set Output and not Escalation: %+v", res)
	}
	out := res.Output
	if out.TicketID != "T-100" {
		t.Fatalf("ticket_id = %q", out.TicketID)
	}
	if out.Triage.Category != "Billing - Refund" || out.Triage.Priority != ticket.PriorityP2 {
		t.Fatalf("triage = %+v", out.Triage)
	}
	if out.AnswerDraft.Greeting != "Dear Jane Doe," {
		t.Fatalf("greeting = %q", out.AnswerDraft.Greeting)
	}
	if len(out.Citations) != 1 || out.Citations[0].DocID != "KB-1" {
		t.Fatalf("citations = %+v", out.Citations)
	}
	if out.PolicyCheck.Compliance != ticket.CompliancePassed {
		t.Fatalf("policy = %+v", out.PolicyCheck)
	}
	if out.Timestamp.Location() != out.Timestamp.UTC().Location() {
		t.Fatalf("timestamp not UTC: %v", out.Timestamp)
	}
	if len(caps.Escalations()) != 0 {
		t.Fatalf("unexpected escalation handoff")
	}
}

func TestRunFullDegradationStillTerminates(t *testing.T) {
	caps := capfake.Down()
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Decision != DecisionEscalate {
		t.Fatalf("decision = %s, want escalate", res.Decision)
	}
	if res.Escalation == nil || res.Escalation.Snapshot == nil {
		t.Fatalf("escalation missing snapshot: %+v", res.Escalation)
	}

	st := res.State
	// Intent, triage, expand, search and draft each record one error; rerank is
	// skipped with no candidates and the semantic policy check fails open.
	if len(st.Errors) != 5 {
		t.Fatalf("errors = %v, want 5", st.Errors)
	}
	if st.Intent.ProblemType != ticket.ProblemOther || st.Intent.Sentiment != ticket.SentimentNeutral {
		t.Fatalf("fallback intent = %+v", st.Intent)
	}
	if st.Triage.Category != "General Inquiry" || st.Triage.Priority != ticket.PriorityP2 || st.Triage.SLAHours != 24 {
		t.Fatalf("fallback triage = %+v", st.Triage)
	}
	if len(st.SearchQueries) == 0 {
		t.Fatalf("fallback queries missing")
	}
	if st.Draft == nil || st.Draft.Greeting == "" || st.Draft.Body == "" || st.Draft.Closing == "" {
		t.Fatalf("fallback draft unpopulated: %+v", st.Draft)
	}
	if st.PolicyCheck.Compliance != ticket.CompliancePassed {
		t.Fatalf("fail-open policy = %+v", st.PolicyCheck)
	}
	if len(caps.Escalations()) != 1 {
		t.Fatalf("escalation handoff count = %d", len(caps.Escalations()))
	}
}

func TestRunIdempotentUnderFullDegradation(t *testing.T) {
	run := func() *ticket.WorkflowState {
		res, err := newTestPipeline(capfake.Down()).Run(context.Background(), testTicket())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res.State
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a.Triage, b.Triage) {
		t.Fatalf("triage differs across runs:\n%+v\n%+v", a.Triage, b.Triage)
	}
	if !reflect.DeepEqual(a.Draft, b.Draft) {
		t.Fatalf("draft differs across runs:\n%+v\n%+v", a.Draft, b.Draft)
	}
	if !reflect.DeepEqual(a.SearchQueries, b.SearchQueries) {
		t.Fatalf("queries differ across runs:\n%v\n%v", a.SearchQueries, b.SearchQueries)
	}
}

func TestRunEscalatesOnLowConfidence(t *testing.T) {
	caps := healthyCaps()
	caps.TriageFn = func(ctx context.Context, intent ticket.IntentResult, message string) (capability.TriageJudgement, error) {
		return capability.TriageJudgement{
			Category: "Billing - Refund", Priority: "P2", SLAHours: 24,
			SuggestedTeam: "Finance Team", Confidence: 0.3,
		}, nil
	}
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Decision != DecisionEscalate {
		t.Fatalf("decision = %s, want escalate", res.Decision)
	}
	if !strings.Contains(res.Reason, "confidence") {
		t.Fatalf("reason = %q", res.Reason)
	}
}

func TestRunEscalatesOnPolicyFailure(t *testing.T) {
	caps := healthyCaps()
	caps.DraftFn = func(ctx context.Context, dc capability.DraftContext) (capability.DraftJudgement, error) {
		return capability.DraftJudgement{
			Greeting: "Dear Jane Doe,",
			Body:     "Don't worry, we will refund you immediately.",
			Closing:  "Best regards,\nSupport Team",
			Tone:     "professional",
		}, nil
	}
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Decision != DecisionEscalate {
		t.Fatalf("decision = %s, want escalate", res.Decision)
	}
	if res.Reason != "policy compliance failed" {
		t.Fatalf("reason = %q", res.Reason)
	}
	if !res.State.PolicyCheck.RefundPromise {
		t.Fatalf("refund promise not flagged: %+v", res.State.PolicyCheck)
	}
}

func TestRunSentimentOverrideOnFallbackTriage(t *testing.T) {
	caps := capfake.Down()
	caps.IntentFn = func(ctx context.Context, message string) (capability.IntentJudgement, error) {
		return capability.IntentJudgement{ProblemType: "billing", Sentiment: "frustrated", Confidence: 0.9}, nil
	}
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tri := res.State.Triage
	if tri.Priority != ticket.PriorityP1 || tri.SLAHours != 4 {
		t.Fatalf("frustrated override not applied: %+v", tri)
	}
	if tri.Category != "Billing - Invoice Issue" || tri.SuggestedTeam != "Finance Team" {
		t.Fatalf("billing fallback routing = %+v", tri)
	}
}

func TestRunRerankFailureRetainsSearchScores(t *testing.T) {
	caps := healthyCaps()
	caps.RerankFn = nil // unscripted: rerank fails
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := res.State
	if len(st.RerankedDocs) != 1 || st.RerankedDocs[0].Score != 0.9 {
		t.Fatalf("search scores not retained: %+v", st.RerankedDocs)
	}
	// The failure still counts toward the escalation gate.
	if res.Decision != DecisionEscalate {
		t.Fatalf("decision = %s, want escalate", res.Decision)
	}
}

func TestRunEscalationPublishFailureIsNonFatal(t *testing.T) {
	caps := capfake.Down()
	caps.EscalateFn = func(ctx context.Context, esc ticket.Escalation) error {
		return errors.New("broker unavailable")
	}
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Decision != DecisionEscalate || res.Escalation == nil {
		t.Fatalf("escalation result missing: %+v", res)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	caps := capfake.Down()
	_, err := newTestPipeline(caps).Run(context.Background(), ticket.Ticket{Message: "help"})
	if err == nil {
		t.Fatal("expected input validation error")
	}
	var verr *ticket.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T: %v", err, err)
	}
	if len(caps.Calls()) != 0 {
		t.Fatalf("stages ran on invalid input: %v", caps.Calls())
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestPipeline(healthyCaps()).Run(ctx, testTicket())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
