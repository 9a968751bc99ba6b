package pipeline

import (
	"context"
	"time"

	"github.com/supportai/triage-pipeline/internal/ticket"
	"github.com/supportai/triage-pipeline/internal/util"
)

// Stage names the workflow states, in execution order.
type Stage string

const (
	StageIntent   Stage = "intent"
	StageTriage   Stage = "triage"
	StageExpand   Stage = "expand"
	StageSearch   Stage = "search"
	StageRerank   Stage = "rerank"
	StageDraft    Stage = "draft"
	StagePolicy   Stage = "policy"
	StageFinalize Stage = "finalize"
	StageEscalate Stage = "escalate"
)

// Result is the terminal outcome of one run. Exactly one of Output and
// Escalation is set.
type Result struct {
	Decision   Decision
	Reason     string
	Output     *ticket.FinalOutput
	Escalation *ticket.Escalation
	State      *ticket.WorkflowState
}

// Run takes a ticket through the full workflow to a terminal state. The only
// error it returns is cancellation or an input-contract violation; every
// capability failure inside the run degrades to a fallback and, at worst, an
// escalation.
func (p *Pipeline) Run(ctx context.Context, t ticket.Ticket) (Result, error) {
	t, err := ticket.ValidateInput(t)
	if err != nil {
		return Result{}, err
	}

	st := ticket.NewWorkflowState(t)
	runStart := time.Now()
	p.logf(t.TicketID, "run start: channel=%s", t.Channel)

	stages := []struct {
		name Stage
		fn   func(context.Context, *ticket.WorkflowState)
	}{
		{StageIntent, p.runIntent},
		{StageTriage, p.runTriage},
		{StageExpand, p.runExpand},
		{StageSearch, p.runSearch},
		{StageRerank, p.runRerank},
		{StageDraft, p.runDraft},
		{StagePolicy, p.runPolicy},
	}

	for _, stage := range stages {
		// Cooperative cancellation at every stage boundary.
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()
		stage.fn(ctx, st)
		p.logf(t.TicketID, "stage %s done in %s", stage.name, time.Since(start).Round(time.Millisecond))
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	decision, reason := Decide(st)
	if decision == DecisionFinalize {
		out, err := AssembleOutput(st, time.Now())
		if err != nil {
			// Never emit malformed output; a contract violation at the last
			// step becomes an escalation.
			p.logf(t.TicketID, "output assembly failed: %s", util.RedactSecrets(err.Error()))
			return p.escalate(ctx, st, runStart, "output schema validation failed: "+util.RedactSecrets(err.Error())), nil
		}
		p.logf(t.TicketID, "finalized in %s", time.Since(runStart).Round(time.Millisecond))
		return Result{Decision: DecisionFinalize, Output: &out, State: st}, nil
	}
	return p.escalate(ctx, st, runStart, reason), nil
}

func (p *Pipeline) escalate(ctx context.Context, st *ticket.WorkflowState, runStart time.Time, reason string) Result {
	esc := ticket.Escalation{
		TicketID: st.Ticket.TicketID,
		Reason:   reason,
		Snapshot: st,
	}
	if p.caps.Escalator != nil {
		// Fire-and-forget handoff: a failed publish is logged, never fatal.
		// Delivery is at-least-once and keyed by ticket_id downstream.
		if err := p.caps.Escalator.Escalate(ctx, esc); err != nil {
			p.logf(st.Ticket.TicketID, "escalation handoff failed: %s", util.RedactSecrets(err.Error()))
		}
	}
	p.logf(st.Ticket.TicketID, "escalated in %s: %s", time.Since(runStart).Round(time.Millisecond), reason)
	return Result{Decision: DecisionEscalate, Reason: reason, Escalation: &esc, State: st}
}
