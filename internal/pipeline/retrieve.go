package pipeline

import (
	"context"
	"sort"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"github.com/supportai/triage-pipeline/internal/util"
)

// rerankFloor is the minimum relevance score a document needs to reach the
// draft stage.
const rerankFloor = 0.3

// runSearch embeds the first expanded query and retrieves nearest candidates
// from the vector store. A failed embed or search degrades to an empty
// candidate set.
func (p *Pipeline) runSearch(ctx context.Context, st *ticket.WorkflowState) {
	if len(st.SearchQueries) == 0 {
		st.RetrievedDocs = nil
		return
	}
	query := st.SearchQueries[0]

	vector, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) ([]float32, error) {
		return p.caps.Embedder.Embed(ctx, query)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "query embedding failed: %s", util.RedactSecrets(err.Error()))
		st.RecordError("vector search error: " + util.RedactSecrets(err.Error()))
		st.RetrievedDocs = nil
		return
	}

	docs, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) ([]ticket.CandidateDocument, error) {
		return p.caps.Searcher.Search(ctx, vector, p.opts.SearchTopK)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "vector search failed: %s", util.RedactSecrets(err.Error()))
		st.RecordError("vector search error: " + util.RedactSecrets(err.Error()))
		st.RetrievedDocs = nil
		return
	}

	st.RetrievedDocs = docs
	p.logf(st.Ticket.TicketID, "retrieved %d candidate documents for %q", len(docs), query)
}

// runRerank rescores candidates against the query. On capability failure the
// search-stage scores are retained. Either way the result is filtered to the
// score floor, ordered by descending score (stable; ties keep retrieval
// order), and truncated to the rerank topK.
func (p *Pipeline) runRerank(ctx context.Context, st *ticket.WorkflowState) {
	if len(st.RetrievedDocs) == 0 || len(st.SearchQueries) == 0 {
		st.RerankedDocs = nil
		return
	}
	query := st.SearchQueries[0]

	docs, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) ([]ticket.CandidateDocument, error) {
		return p.caps.Reranker.Rerank(ctx, query, st.RetrievedDocs, p.opts.RerankTopK)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "rerank failed, retaining search scores: %s", util.RedactSecrets(err.Error()))
		st.RecordError("rerank error: " + util.RedactSecrets(err.Error()))
		docs = st.RetrievedDocs
	}

	st.RerankedDocs = FilterRanked(docs, p.opts.RerankTopK)
	p.logf(st.Ticket.TicketID, "reranked to %d documents", len(st.RerankedDocs))
}

// FilterRanked drops candidates below the score floor, stable-sorts the rest
// by descending score, and truncates to topK.
func FilterRanked(docs []ticket.CandidateDocument, topK int) []ticket.CandidateDocument {
	if topK <= 0 {
		topK = 3
	}
	kept := make([]ticket.CandidateDocument, 0, len(docs))
	for _, d := range docs {
		if d.Score >= rerankFloor {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}
