package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"github.com/supportai/triage-pipeline/internal/util"
)

var refundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)we will refund`),
	regexp.MustCompile(`(?i)refund you`),
	regexp.MustCompile(`(?i)process your refund`),
	regexp.MustCompile(`(?i)refund will be issued`),
}

var slaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)within \d+ hours`),
	regexp.MustCompile(`(?i)fixed in \d+ days`),
	regexp.MustCompile(`(?i)resolved by`),
	regexp.MustCompile(`(?i)guaranteed`),
}

var escalationKeywords = []string{
	"legal action",
	"lawyer",
	"court",
	"cancel account",
	"close account",
	"delete account",
}

// RuleCheck is the deterministic policy check. It always runs and can never
// be bypassed by the semantic check's availability.
func RuleCheck(draftText string) capability.PolicyJudgement {
	var out capability.PolicyJudgement

	for _, re := range refundPatterns {
		if re.MatchString(draftText) {
			out.RefundPromise = true
			break
		}
	}
	for _, re := range slaPatterns {
		if re.MatchString(draftText) {
			out.SLAMentioned = true
			break
		}
	}
	lower := strings.ToLower(draftText)
	for _, kw := range escalationKeywords {
		if strings.Contains(lower, kw) {
			out.EscalationNeeded = true
			out.Violations = append(out.Violations, kw)
		}
	}
	return out
}

// runPolicy validates the rendered draft. Two independent checks merge by OR
// per flag: the regex rules above, and a semantic model check that fails open
// (all clear) when the capability is unavailable.
func (p *Pipeline) runPolicy(ctx context.Context, st *ticket.WorkflowState) {
	draftText := RenderDraft(*st.Draft)

	ruleBased := RuleCheck(draftText)

	semantic, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) (capability.PolicyJudgement, error) {
		return p.caps.Classifier.CheckPolicy(ctx, draftText)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "semantic policy check unavailable, relying on rules: %s", util.RedactSecrets(err.Error()))
		semantic = capability.PolicyJudgement{Compliance: string(ticket.CompliancePassed)}
	}

	result := ticket.PolicyCheckResult{
		RefundPromise:    ruleBased.RefundPromise || semantic.RefundPromise,
		SLAMentioned:     ruleBased.SLAMentioned || semantic.SLAMentioned,
		EscalationNeeded: ruleBased.EscalationNeeded || semantic.EscalationNeeded,
		Compliance:       ticket.CompliancePassed,
		Violations:       append(append([]string{}, ruleBased.Violations...), semantic.Violations...),
	}
	if result.RefundPromise || result.EscalationNeeded || semantic.Compliance == string(ticket.ComplianceFailed) {
		result.Compliance = ticket.ComplianceFailed
	}

	st.PolicyCheck = &result
	p.logf(st.Ticket.TicketID, "policy check: compliance=%s refund=%t sla=%t escalation=%t violations=%d",
		result.Compliance, result.RefundPromise, result.SLAMentioned, result.EscalationNeeded, len(result.Violations))
}
