package pipeline

import (
	"context"
	"fmt"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"github.com/supportai/triage-pipeline/internal/util"
)

// runIntent classifies problem type and sentiment. Never fails the run: on any
// capability error it substitutes the neutral fallback and records a
// diagnostic.
func (p *Pipeline) runIntent(ctx context.Context, st *ticket.WorkflowState) {
	judgement, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) (capability.IntentJudgement, error) {
		return p.caps.Classifier.ClassifyIntent(ctx, st.Ticket.Message)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "intent classification failed, using fallback: %s", util.RedactSecrets(err.Error()))
		st.RecordError(fmt.Sprintf("intent detection error: %s", util.RedactSecrets(err.Error())))
		st.Intent = &ticket.IntentResult{
			ProblemType: ticket.ProblemOther,
			Sentiment:   ticket.SentimentNeutral,
			Confidence:  0,
		}
		return
	}

	problemType := ticket.NormalizeProblemType(judgement.ProblemType)
	if string(problemType) != judgement.ProblemType {
		p.logf(st.Ticket.TicketID, "unknown problem_type %q normalized to %q", judgement.ProblemType, problemType)
	}
	sentiment := ticket.NormalizeSentiment(judgement.Sentiment)
	if string(sentiment) != judgement.Sentiment {
		p.logf(st.Ticket.TicketID, "unknown sentiment %q normalized to %q", judgement.Sentiment, sentiment)
	}

	st.Intent = &ticket.IntentResult{
		ProblemType: problemType,
		Sentiment:   sentiment,
		Confidence:  clamp01(judgement.Confidence),
	}
	p.logf(st.Ticket.TicketID, "intent: problem_type=%s sentiment=%s confidence=%.2f",
		st.Intent.ProblemType, st.Intent.Sentiment, st.Intent.Confidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
