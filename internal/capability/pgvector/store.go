// Package pgvector backs the vector store capability with Postgres + the
// pgvector extension.
package pgvector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
)

// Store searches and upserts knowledge-base chunks in a single table with a
// pgvector embedding column. Cosine distance ordering, with (doc_id, chunk_id)
// as a deterministic tie break.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

func New(pool *pgxpool.Pool, table string) *Store {
	if strings.TrimSpace(table) == "" {
		table = "support_kb"
	}
	return &Store{pool: pool, table: table}
}

func NewFromConnString(ctx context.Context, connString, table string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return New(pool, table), nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the extension and table if missing. Dimensions must
// match the embedding model in use.
func (s *Store) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("embedding dimensions required")
	}
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		doc_id    text NOT NULL,
		chunk_id  text NOT NULL,
		title     text NOT NULL DEFAULT '',
		content   text NOT NULL DEFAULT '',
		url       text NOT NULL DEFAULT '',
		category  text NOT NULL DEFAULT '',
		embedding vector(%d) NOT NULL,
		PRIMARY KEY (doc_id, chunk_id)
	)`, s.table, dimensions)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, chunks []capability.IndexedChunk) error {
	for _, c := range chunks {
		sql := fmt.Sprintf(`INSERT INTO %s (doc_id, chunk_id, title, content, url, category, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
			ON CONFLICT (doc_id, chunk_id) DO UPDATE SET
				title = EXCLUDED.title,
				content = EXCLUDED.content,
				url = EXCLUDED.url,
				category = EXCLUDED.category,
				embedding = EXCLUDED.embedding`, s.table)
		_, err := s.pool.Exec(ctx, sql,
			c.Document.DocID,
			c.Document.ChunkID,
			c.Document.Title,
			c.Document.Content,
			c.Document.URL,
			c.Document.Category,
			vectorLiteral(c.Embedding),
		)
		if err != nil {
			return fmt.Errorf("upsert %s/%s: %w", c.Document.DocID, c.Document.ChunkID, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]ticket.CandidateDocument, error) {
	if topK <= 0 {
		topK = 10
	}
	sql := fmt.Sprintf(`SELECT doc_id, chunk_id, title, content, url, category,
			embedding <=> $1::vector AS distance
		FROM %s
		ORDER BY distance, doc_id, chunk_id
		LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, sql, vectorLiteral(vector), topK)
	if err != nil {
		return nil, &capability.TransientError{Err: fmt.Errorf("vector search: %w", err)}
	}
	defer rows.Close()

	var out []ticket.CandidateDocument
	for rows.Next() {
		var d ticket.CandidateDocument
		var distance float64
		if err := rows.Scan(&d.DocID, &d.ChunkID, &d.Title, &d.Content, &d.URL, &d.Category, &distance); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		// Cosine distance is in [0,2]; fold it onto a [0,1] similarity score.
		d.Score = 1 - distance/2
		if d.Score < 0 {
			d.Score = 0
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &capability.TransientError{Err: fmt.Errorf("vector search: %w", err)}
	}
	return out, nil
}

func vectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
