package kb

import (
	"context"
	"fmt"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"golang.org/x/sync/errgroup"
)

type IndexOptions struct {
	ChunkSize   int
	Overlap     int
	Concurrency int
}

func (o IndexOptions) withDefaults() IndexOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.Overlap <= 0 {
		o.Overlap = 100
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// Index chunks every article, embeds the chunks concurrently, and upserts
// them into the vector store. Returns the number of chunks written.
func Index(ctx context.Context, corpus Corpus, embedder capability.Embedder, indexer capability.VectorIndexer, opts IndexOptions) (int, error) {
	opts = opts.withDefaults()

	var chunks []capability.IndexedChunk
	for _, a := range corpus.Articles {
		for i, content := range ChunkText(a.Content, opts.ChunkSize, opts.Overlap) {
			chunks = append(chunks, capability.IndexedChunk{
				Document: ticket.CandidateDocument{
					DocID:    a.DocID,
					ChunkID:  fmt.Sprintf("c-%d", i),
					Title:    a.Title,
					Content:  content,
					URL:      a.URL,
					Category: a.Category,
				},
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range chunks {
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, chunks[i].Document.Content)
			if err != nil {
				return fmt.Errorf("embed %s/%s: %w", chunks[i].Document.DocID, chunks[i].Document.ChunkID, err)
			}
			chunks[i].Embedding = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := indexer.Upsert(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
