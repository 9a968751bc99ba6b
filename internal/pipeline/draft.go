package pipeline

import (
	"context"
	"strings"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"github.com/supportai/triage-pipeline/internal/util"
)

// maxDraftContextDocs caps how many reranked documents reach the generator.
const maxDraftContextDocs = 5

// runDraft produces the structured response draft. Missing fields from the
// generator are filled with hard defaults; a failed generation falls back to
// the deterministic template engine.
func (p *Pipeline) runDraft(ctx context.Context, st *ticket.WorkflowState) {
	customerName := CustomerName(st.Ticket.CustomerEmail)
	docs := st.RerankedDocs
	if len(docs) > maxDraftContextDocs {
		docs = docs[:maxDraftContextDocs]
	}

	dc := capability.DraftContext{
		Message:       st.Ticket.Message,
		CustomerName:  customerName,
		Category:      st.Triage.Category,
		Priority:      st.Triage.Priority,
		Sentiment:     st.Intent.Sentiment,
		SuggestedTeam: st.Triage.SuggestedTeam,
		Documents:     docs,
	}

	judgement, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) (capability.DraftJudgement, error) {
		return p.caps.Generator.GenerateDraft(ctx, dc)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "draft generation failed, using template: %s", util.RedactSecrets(err.Error()))
		st.RecordError("draft generation error: " + util.RedactSecrets(err.Error()))
		draft := TemplateDraft(st.Triage.Category, st.Intent.Sentiment, customerName, citationsOf(docs))
		st.Draft = &draft
		return
	}

	draft := ticket.Draft{
		Greeting: strings.TrimSpace(judgement.Greeting),
		Body:     strings.TrimSpace(judgement.Body),
		Closing:  strings.TrimSpace(judgement.Closing),
		Tone:     strings.TrimSpace(judgement.Tone),
	}
	if draft.Greeting == "" {
		draft.Greeting = ticket.DefaultGreeting
	}
	if draft.Body == "" {
		draft.Body = ticket.DefaultBody
	}
	if draft.Closing == "" {
		draft.Closing = ticket.DefaultClosing
	}
	if draft.Tone == "" {
		draft.Tone = ticket.DefaultTone
	}
	st.Draft = &draft
	p.logf(st.Ticket.TicketID, "draft generated with tone %q", draft.Tone)
}

func citationsOf(docs []ticket.CandidateDocument) []ticket.Citation {
	if len(docs) == 0 {
		return nil
	}
	out := make([]ticket.Citation, 0, len(docs))
	for _, d := range docs {
		out = append(out, ticket.CitationOf(d))
	}
	return out
}

// RenderDraft joins the draft parts into the text the policy validator sees.
func RenderDraft(d ticket.Draft) string {
	return d.Greeting + "\n\n" + d.Body + "\n\n" + d.Closing
}
