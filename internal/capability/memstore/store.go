// Package memstore is an in-memory vector store for local runs and tests.
package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
)

// Store holds indexed chunks in memory and searches them by cosine
// similarity. Search results are deterministic: equal similarities tie-break
// on insertion order.
type Store struct {
	mu     sync.RWMutex
	chunks []capability.IndexedChunk
}

func New() *Store {
	return &Store{}
}

func (s *Store) Upsert(_ context.Context, chunks []capability.IndexedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		replaced := false
		for i, existing := range s.chunks {
			if existing.Document.ChunkID == c.Document.ChunkID && existing.Document.DocID == c.Document.DocID {
				s.chunks[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			s.chunks = append(s.chunks, c)
		}
	}
	return nil
}

// Len reports the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]ticket.CandidateDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   ticket.CandidateDocument
		score float64
		order int
	}
	results := make([]scored, 0, len(s.chunks))
	for i, c := range s.chunks {
		doc := c.Document
		doc.Score = cosine(vector, c.Embedding)
		results = append(results, scored{doc: doc, score: doc.Score, order: i})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].order < results[j].order
	})

	if len(results) > topK {
		results = results[:topK]
	}
	out := make([]ticket.CandidateDocument, 0, len(results))
	for _, r := range results {
		out = append(out, r.doc)
	}
	return out, nil
}

// cosine maps similarity onto [0,1] so scores line up with the rerank floor.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (sim + 1) / 2
}
