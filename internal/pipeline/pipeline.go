// Package pipeline implements the staged triage-and-response workflow: a
// linear sequence of classification, retrieval and drafting stages over one
// exclusively-owned workflow state, ending in an escalation-gate decision.
package pipeline

import (
	"io"
	"log"

	"github.com/supportai/triage-pipeline/internal/capability"
)

// Capabilities bundles the external collaborators a pipeline needs. Selected
// at construction time; stages never build their own clients.
type Capabilities struct {
	Classifier capability.Classifier
	Generator  capability.Generator
	Embedder   capability.Embedder
	Searcher   capability.VectorSearcher
	Reranker   capability.Reranker
	Escalator  capability.Escalator
}

type Options struct {
	// SearchTopK is the candidate count requested from the vector store.
	SearchTopK int
	// RerankTopK caps the documents surviving rerank.
	RerankTopK int
	// Retry bounds every capability call.
	Retry capability.RetryOptions

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.SearchTopK <= 0 {
		o.SearchTopK = 10
	}
	if o.RerankTopK <= 0 {
		o.RerankTopK = 3
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

// Pipeline runs tickets through the staged workflow. Safe for concurrent use;
// all per-run state lives in the WorkflowState.
type Pipeline struct {
	caps   Capabilities
	opts   Options
	logger *log.Logger
}

func New(caps Capabilities, opts Options) *Pipeline {
	opts = opts.withDefaults()
	return &Pipeline{caps: caps, opts: opts, logger: opts.Logger}
}

func (p *Pipeline) logf(ticketID, format string, args ...any) {
	prefix := make([]any, 0, len(args)+1)
	prefix = append(prefix, ticketID)
	prefix = append(prefix, args...)
	p.logger.Printf("ticket=%s "+format, prefix...)
}
