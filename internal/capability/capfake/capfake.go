// Package capfake provides scripted capability implementations for tests.
//
// A zero-value Capabilities fails every call, which exercises the pipeline's
// fallback paths; tests override individual functions to script behavior and
// inspect recorded calls afterwards.
package capfake

import (
	"context"
	"errors"
	"sync"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
)

// ErrDown is returned by any unscripted capability call. It is deliberately
// non-transient so tests fall back without burning retry attempts.
var ErrDown = errors.New("capability unavailable")

type Capabilities struct {
	IntentFn   func(ctx context.Context, message string) (capability.IntentJudgement, error)
	TriageFn   func(ctx context.Context, intent ticket.IntentResult, message string) (capability.TriageJudgement, error)
	PolicyFn   func(ctx context.Context, draftText string) (capability.PolicyJudgement, error)
	QueriesFn  func(ctx context.Context, qc capability.QueryContext) ([]string, error)
	DraftFn    func(ctx context.Context, dc capability.DraftContext) (capability.DraftJudgement, error)
	EmbedFn    func(ctx context.Context, text string) ([]float32, error)
	SearchFn   func(ctx context.Context, vector []float32, topK int) ([]ticket.CandidateDocument, error)
	RerankFn   func(ctx context.Context, query string, docs []ticket.CandidateDocument, topK int) ([]ticket.CandidateDocument, error)
	EscalateFn func(ctx context.Context, esc ticket.Escalation) error

	mu          sync.Mutex
	calls       []string
	escalations []ticket.Escalation
}

// Down returns capabilities with every call unscripted, i.e. failing.
func Down() *Capabilities {
	return &Capabilities{}
}

func (c *Capabilities) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

// Calls returns the capability call names in invocation order.
func (c *Capabilities) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// Escalations returns every recorded handoff.
func (c *Capabilities) Escalations() []ticket.Escalation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ticket.Escalation, len(c.escalations))
	copy(out, c.escalations)
	return out
}

func (c *Capabilities) ClassifyIntent(ctx context.Context, message string) (capability.IntentJudgement, error) {
	c.record("intent")
	if c.IntentFn == nil {
		return capability.IntentJudgement{}, ErrDown
	}
	return c.IntentFn(ctx, message)
}

func (c *Capabilities) ClassifyTriage(ctx context.Context, intent ticket.IntentResult, message string) (capability.TriageJudgement, error) {
	c.record("triage")
	if c.TriageFn == nil {
		return capability.TriageJudgement{}, ErrDown
	}
	return c.TriageFn(ctx, intent, message)
}

func (c *Capabilities) CheckPolicy(ctx context.Context, draftText string) (capability.PolicyJudgement, error) {
	c.record("policy")
	if c.PolicyFn == nil {
		return capability.PolicyJudgement{}, ErrDown
	}
	return c.PolicyFn(ctx, draftText)
}

func (c *Capabilities) GenerateQueries(ctx context.Context, qc capability.QueryContext) ([]string, error) {
	c.record("queries")
	if c.QueriesFn == nil {
		return nil, ErrDown
	}
	return c.QueriesFn(ctx, qc)
}

func (c *Capabilities) GenerateDraft(ctx context.Context, dc capability.DraftContext) (capability.DraftJudgement, error) {
	c.record("draft")
	if c.DraftFn == nil {
		return capability.DraftJudgement{}, ErrDown
	}
	return c.DraftFn(ctx, dc)
}

func (c *Capabilities) Embed(ctx context.Context, text string) ([]float32, error) {
	c.record("embed")
	if c.EmbedFn == nil {
		return nil, ErrDown
	}
	return c.EmbedFn(ctx, text)
}

func (c *Capabilities) Search(ctx context.Context, vector []float32, topK int) ([]ticket.CandidateDocument, error) {
	c.record("search")
	if c.SearchFn == nil {
		return nil, ErrDown
	}
	return c.SearchFn(ctx, vector, topK)
}

func (c *Capabilities) Rerank(ctx context.Context, query string, docs []ticket.CandidateDocument, topK int) ([]ticket.CandidateDocument, error) {
	c.record("rerank")
	if c.RerankFn == nil {
		return nil, ErrDown
	}
	return c.RerankFn(ctx, query, docs, topK)
}

func (c *Capabilities) Escalate(ctx context.Context, esc ticket.Escalation) error {
	c.record("escalate")
	c.mu.Lock()
	c.escalations = append(c.escalations, esc)
	c.mu.Unlock()
	if c.EscalateFn == nil {
		return nil
	}
	return c.EscalateFn(ctx, esc)
}
