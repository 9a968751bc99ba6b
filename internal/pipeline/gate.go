package pipeline

import (
	"fmt"

	"github.com/supportai/triage-pipeline/internal/ticket"
)

// Decision is the terminal outcome of a pipeline run.
type Decision string

const (
	DecisionFinalize Decision = "finalize"
	DecisionEscalate Decision = "escalate"
)

// minAutoConfidence is the triage confidence below which a ticket always goes
// to a human.
const minAutoConfidence = 0.5

// Decide is the escalation gate: a pure function of the workflow state. It
// returns the decision and, for escalations, the triggering reason.
func Decide(st *ticket.WorkflowState) (Decision, string) {
	if st.PolicyCheck != nil && st.PolicyCheck.Compliance == ticket.ComplianceFailed {
		return DecisionEscalate, "policy compliance failed"
	}
	if n := len(st.Errors); n > 0 {
		return DecisionEscalate, fmt.Sprintf("%d stage errors recorded", n)
	}
	if st.Triage == nil || st.Triage.Confidence < minAutoConfidence {
		return DecisionEscalate, "triage confidence below threshold"
	}
	return DecisionFinalize, ""
}
