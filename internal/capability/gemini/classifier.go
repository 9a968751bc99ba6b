package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"google.golang.org/genai"
)

var intentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"problem_type": {Type: genai.TypeString, Enum: []string{"billing", "technical", "account", "feature_request", "other"}},
		"sentiment":    {Type: genai.TypeString, Enum: []string{"frustrated", "neutral", "satisfied"}},
		"confidence":   {Type: genai.TypeNumber},
	},
	Required: []string{"problem_type", "sentiment", "confidence"},
}

var triageSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category":       {Type: genai.TypeString},
		"subcategory":    {Type: genai.TypeString},
		"priority":       {Type: genai.TypeString, Enum: []string{"P1", "P2", "P3"}},
		"sla_hours":      {Type: genai.TypeInteger},
		"suggested_team": {Type: genai.TypeString},
		"confidence":     {Type: genai.TypeNumber},
	},
	Required: []string{"category", "subcategory", "priority", "sla_hours", "suggested_team", "confidence"},
}

var policySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"refund_promise":    {Type: genai.TypeBoolean},
		"sla_mentioned":     {Type: genai.TypeBoolean},
		"escalation_needed": {Type: genai.TypeBoolean},
		"compliance":        {Type: genai.TypeString, Enum: []string{"passed", "failed"}},
		"violations":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"refund_promise", "sla_mentioned", "escalation_needed", "compliance", "violations"},
}

func (c *Client) ClassifyIntent(ctx context.Context, message string) (capability.IntentJudgement, error) {
	prompt := fmt.Sprintf(`Analyze the following customer support ticket.

Classify the problem type as one of: billing, technical, account, feature_request, other.
Classify the customer sentiment as one of: frustrated, neutral, satisfied.
Report your confidence in [0,1].

Ticket:
%s`, message)

	var out capability.IntentJudgement
	if err := c.classifyJSON(ctx, "intent", prompt, intentSchema, &out); err != nil {
		return capability.IntentJudgement{}, err
	}
	return out, nil
}

func (c *Client) ClassifyTriage(ctx context.Context, intent ticket.IntentResult, message string) (capability.TriageJudgement, error) {
	prompt := fmt.Sprintf(`Classify this support ticket for routing and prioritization.

Known context:
- problem type: %s
- customer sentiment: %s

Choose a category and subcategory (e.g. "Billing - Invoice Issue" / "Duplicate Charge"),
a priority (P1 = urgent, P2 = normal, P3 = low), an SLA in whole hours, and the team
that should handle it (Finance Team, Technical Team, Account Team, Product Team or
Support Team). Report your confidence in [0,1].

Ticket:
%s`, intent.ProblemType, intent.Sentiment, message)

	var out capability.TriageJudgement
	if err := c.classifyJSON(ctx, "triage", prompt, triageSchema, &out); err != nil {
		return capability.TriageJudgement{}, err
	}
	return out, nil
}

func (c *Client) CheckPolicy(ctx context.Context, draftText string) (capability.PolicyJudgement, error) {
	prompt := fmt.Sprintf(`Review this customer support draft against company policy.

Flag:
- refund_promise: the draft commits to issuing a refund
- sla_mentioned: the draft promises a resolution time or guarantee
- escalation_needed: the draft touches legal threats or account cancellation

Set compliance to "failed" if any flagged behavior makes the draft unsafe to send
without human review, otherwise "passed". List each violation as a short phrase.

Draft:
%s`, draftText)

	var out capability.PolicyJudgement
	if err := c.classifyJSON(ctx, "policy", prompt, policySchema, &out); err != nil {
		return capability.PolicyJudgement{}, err
	}
	return out, nil
}

// classifyJSON runs one structured-output classification request. Temperature
// is pinned low so identical tickets classify consistently.
func (c *Client) classifyJSON(ctx context.Context, stage, prompt string, schema *genai.Schema, out any) error {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			Temperature:      genai.Ptr[float32](0.1),
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	)
	if err != nil {
		return classifyErr(err)
	}
	if err := json.Unmarshal([]byte(resp.Text()), out); err != nil {
		return &ticket.ParseError{Stage: stage, Err: err}
	}
	return nil
}
