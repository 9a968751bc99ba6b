package pipeline

import (
	"context"
	"testing"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/capability/capfake"
	"github.com/supportai/triage-pipeline/internal/ticket"
)

func TestFallbackTriageTable(t *testing.T) {
	cases := []struct {
		problemType ticket.ProblemType
		category    string
		team        string
		priority    ticket.Priority
		slaHours    int
	}{
		{ticket.ProblemBilling, "Billing - Invoice Issue", "Finance Team", ticket.PriorityP2, 24},
		{ticket.ProblemTechnical, "Technical - General", "Technical Team", ticket.PriorityP2, 24},
		{ticket.ProblemAccount, "Account - Access", "Account Team", ticket.PriorityP2, 24},
		{ticket.ProblemFeatureRequest, "Feature Request", "Product Team", ticket.PriorityP3, 48},
		{ticket.ProblemOther, "General Inquiry", "Support Team", ticket.PriorityP2, 24},
	}
	for _, tc := range cases {
		got := FallbackTriage(tc.problemType, ticket.SentimentNeutral)
		if got.Category != tc.category || got.SuggestedTeam != tc.team ||
			got.Priority != tc.priority || got.SLAHours != tc.slaHours {
			t.Errorf("%s: got %+v", tc.problemType, got)
		}
		if got.Confidence != 0.5 {
			t.Errorf("%s: confidence = %v, want 0.5", tc.problemType, got.Confidence)
		}
	}
}

func TestFallbackTriageFrustratedOverride(t *testing.T) {
	got := FallbackTriage(ticket.ProblemFeatureRequest, ticket.SentimentFrustrated)
	if got.Priority != ticket.PriorityP1 || got.SLAHours != 4 {
		t.Fatalf("override not applied: %+v", got)
	}
	// Routing is untouched by the override.
	if got.SuggestedTeam != "Product Team" {
		t.Fatalf("team changed: %+v", got)
	}
}

func TestFallbackTriageUnknownType(t *testing.T) {
	got := FallbackTriage(ticket.ProblemType("weird"), ticket.SentimentNeutral)
	if got.Category != "General Inquiry" {
		t.Fatalf("unknown type should route as other: %+v", got)
	}
}

func TestTriageCoercesInvalidFields(t *testing.T) {
	caps := healthyCaps()
	caps.TriageFn = func(ctx context.Context, intent ticket.IntentResult, message string) (capability.TriageJudgement, error) {
		return capability.TriageJudgement{
			Category:      "Billing - Refund",
			Priority:      "P9",
			SLAHours:      0,
			SuggestedTeam: "Finance Team",
			Confidence:    0.9,
		}, nil
	}
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tri := res.State.Triage
	if tri.Priority != ticket.PriorityP2 {
		t.Fatalf("priority = %s, want coerced P2", tri.Priority)
	}
	if tri.SLAHours != 24 {
		t.Fatalf("sla_hours = %d, want defaulted 24", tri.SLAHours)
	}
	// Coercion is not an error condition.
	if len(res.State.Errors) != 0 {
		t.Fatalf("coercion recorded errors: %v", res.State.Errors)
	}
}

func TestTriageFailureUsesIntentForFallback(t *testing.T) {
	caps := capfake.Down()
	caps.IntentFn = func(ctx context.Context, message string) (capability.IntentJudgement, error) {
		return capability.IntentJudgement{ProblemType: "technical", Sentiment: "neutral", Confidence: 0.8}, nil
	}
	res, err := newTestPipeline(caps).Run(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State.Triage.Category != "Technical - General" {
		t.Fatalf("fallback triage did not use intent: %+v", res.State.Triage)
	}
}
