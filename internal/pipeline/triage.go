package pipeline

import (
	"context"
	"fmt"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"github.com/supportai/triage-pipeline/internal/util"
)

// fallbackTriage is the deterministic routing table used when the
// classification capability is unavailable, keyed by problem type.
var fallbackTriage = map[ticket.ProblemType]ticket.TriageResult{
	ticket.ProblemBilling: {
		Category:      "Billing - Invoice Issue",
		Subcategory:   "General Billing",
		SuggestedTeam: "Finance Team",
		Priority:      ticket.PriorityP2,
		SLAHours:      24,
	},
	ticket.ProblemTechnical: {
		Category:      "Technical - General",
		Subcategory:   "Technical Issue",
		SuggestedTeam: "Technical Team",
		Priority:      ticket.PriorityP2,
		SLAHours:      24,
	},
	ticket.ProblemAccount: {
		Category:      "Account - Access",
		Subcategory:   "Account Issue",
		SuggestedTeam: "Account Team",
		Priority:      ticket.PriorityP2,
		SLAHours:      24,
	},
	ticket.ProblemFeatureRequest: {
		Category:      "Feature Request",
		Subcategory:   "New Feature",
		SuggestedTeam: "Product Team",
		Priority:      ticket.PriorityP3,
		SLAHours:      48,
	},
	ticket.ProblemOther: {
		Category:      "General Inquiry",
		Subcategory:   "General Question",
		SuggestedTeam: "Support Team",
		Priority:      ticket.PriorityP2,
		SLAHours:      24,
	},
}

// FallbackTriage returns the lookup-table triage for a problem type, with the
// sentiment override applied: a frustrated customer forces P1 and a 4 hour
// SLA regardless of the table's base value. Confidence is fixed at 0.5.
func FallbackTriage(problemType ticket.ProblemType, sentiment ticket.Sentiment) ticket.TriageResult {
	base, ok := fallbackTriage[problemType]
	if !ok {
		base = fallbackTriage[ticket.ProblemOther]
	}
	if sentiment == ticket.SentimentFrustrated {
		base.Priority = ticket.PriorityP1
		base.SLAHours = 4
	}
	base.Confidence = 0.5
	return base
}

// runTriage derives category, priority, SLA and team routing. Requires
// runIntent to have populated st.Intent.
func (p *Pipeline) runTriage(ctx context.Context, st *ticket.WorkflowState) {
	intent := *st.Intent

	judgement, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) (capability.TriageJudgement, error) {
		return p.caps.Classifier.ClassifyTriage(ctx, intent, st.Ticket.Message)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "triage classification failed, using lookup table: %s", util.RedactSecrets(err.Error()))
		st.RecordError(fmt.Sprintf("triage classification error: %s", util.RedactSecrets(err.Error())))
		result := FallbackTriage(intent.ProblemType, intent.Sentiment)
		st.Triage = &result
		return
	}

	priority := ticket.NormalizePriority(judgement.Priority)
	if string(priority) != judgement.Priority {
		p.logf(st.Ticket.TicketID, "invalid priority %q coerced to %q", judgement.Priority, priority)
	}
	slaHours := judgement.SLAHours
	if slaHours < 1 {
		p.logf(st.Ticket.TicketID, "invalid sla_hours %d defaulted to 24", judgement.SLAHours)
		slaHours = 24
	}

	st.Triage = &ticket.TriageResult{
		Category:      orDefault(judgement.Category, "General Inquiry"),
		Subcategory:   orDefault(judgement.Subcategory, "General Question"),
		Priority:      priority,
		SLAHours:      slaHours,
		SuggestedTeam: orDefault(judgement.SuggestedTeam, "Support Team"),
		Confidence:    clamp01(judgement.Confidence),
	}
	p.logf(st.Ticket.TicketID, "triage: category=%q priority=%s sla=%dh team=%q confidence=%.2f",
		st.Triage.Category, st.Triage.Priority, st.Triage.SLAHours, st.Triage.SuggestedTeam, st.Triage.Confidence)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
