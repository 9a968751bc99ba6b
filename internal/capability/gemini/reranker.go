package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supportai/triage-pipeline/internal/ticket"
	"google.golang.org/genai"
)

var rerankSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"chunk_id": {Type: genai.TypeString},
			"score":    {Type: genai.TypeNumber},
		},
		Required: []string{"chunk_id", "score"},
	},
}

type rerankEntry struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}

// Rerank scores each candidate's relevance to the query with a structured
// model call. Candidates the model omits are dropped; ordering and truncation
// are left to the caller.
func (c *Client) Rerank(ctx context.Context, query string, docs []ticket.CandidateDocument, topK int) ([]ticket.CandidateDocument, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	for _, d := range docs {
		content := d.Content
		if len(content) > 1000 {
			content = content[:1000] + "..."
		}
		fmt.Fprintf(&sb, "chunk_id=%s title=%s\n%s\n\n", d.ChunkID, d.Title, content)
	}

	prompt := fmt.Sprintf(`Score each document's relevance to the query on [0,1].
Only well-matched documents should score 0.7 or above; off-topic documents
should score below 0.3. Return one entry per document, keyed by chunk_id.

Query: %s

Documents:
%s`, query, sb.String())

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
			ResponseSchema:   rerankSchema,
		},
	)
	if err != nil {
		return nil, classifyErr(err)
	}

	var entries []rerankEntry
	if err := json.Unmarshal([]byte(resp.Text()), &entries); err != nil {
		return nil, &ticket.ParseError{Stage: "rerank", Err: err}
	}

	scores := make(map[string]float64, len(entries))
	for _, e := range entries {
		s := e.Score
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		scores[strings.TrimSpace(e.ChunkID)] = s
	}

	out := make([]ticket.CandidateDocument, 0, len(docs))
	for _, d := range docs {
		score, ok := scores[d.ChunkID]
		if !ok {
			continue
		}
		d.Score = score
		out = append(out, d)
	}
	return out, nil
}
