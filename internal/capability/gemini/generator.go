package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"google.golang.org/genai"
)

var queriesSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

var draftSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"greeting": {Type: genai.TypeString},
		"body":     {Type: genai.TypeString},
		"closing":  {Type: genai.TypeString},
		"tone":     {Type: genai.TypeString},
	},
	Required: []string{"greeting", "body", "closing", "tone"},
}

func (c *Client) GenerateQueries(ctx context.Context, qc capability.QueryContext) ([]string, error) {
	prompt := fmt.Sprintf(`Generate 3 to 5 semantically diverse knowledge-base search phrases for this
support ticket. Each phrase must be 3 to 10 words, lowercase, no punctuation.
Cover different phrasings of the same underlying problem.

Problem type: %s
Category: %s

Ticket:
%s`, qc.ProblemType, qc.Category, qc.Message)

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			Temperature:      genai.Ptr[float32](0.3),
			ResponseMIMEType: "application/json",
			ResponseSchema:   queriesSchema,
		},
	)
	if err != nil {
		return nil, classifyErr(err)
	}

	var queries []string
	if err := json.Unmarshal([]byte(resp.Text()), &queries); err != nil {
		return nil, &ticket.ParseError{Stage: "expand", Err: err}
	}
	return queries, nil
}

func (c *Client) GenerateDraft(ctx context.Context, dc capability.DraftContext) (capability.DraftJudgement, error) {
	prompt := fmt.Sprintf(`Write a customer support response draft.

Customer name: %s
Category: %s
Priority: %s
Customer sentiment: %s
Handling team: %s

Knowledge base articles:
%s

Rules:
- Reference articles by their bracketed doc id, e.g. [KB-1234], where relevant.
- Never promise a refund; say the matter will be reviewed.
- Never guarantee a resolution time.
- Match the tone to the customer's sentiment.

Ticket:
%s`, dc.CustomerName, dc.Category, dc.Priority, dc.Sentiment, dc.SuggestedTeam,
		formatArticles(dc.Documents), dc.Message)

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			Temperature:      genai.Ptr[float32](0.2),
			ResponseMIMEType: "application/json",
			ResponseSchema:   draftSchema,
		},
	)
	if err != nil {
		return capability.DraftJudgement{}, classifyErr(err)
	}

	var out capability.DraftJudgement
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return capability.DraftJudgement{}, &ticket.ParseError{Stage: "draft", Err: err}
	}
	return out, nil
}

// formatArticles renders at most five documents for prompt context, with
// content truncated so a long article cannot crowd out the ticket.
func formatArticles(docs []ticket.CandidateDocument) string {
	if len(docs) == 0 {
		return "No relevant knowledge base articles found."
	}
	if len(docs) > 5 {
		docs = docs[:5]
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		content := d.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		parts = append(parts, fmt.Sprintf("[%s] %s (relevance: %.2f)\n%s", d.DocID, d.Title, d.Score, content))
	}
	return strings.Join(parts, "\n\n")
}
