package gemini

import (
	"context"
	"errors"

	"github.com/supportai/triage-pipeline/internal/ticket"
	"google.golang.org/genai"
)

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, classifyErr(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, &ticket.ParseError{Stage: "embed", Err: errors.New("empty embedding response")}
	}
	return resp.Embeddings[0].Values, nil
}
