package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/supportai/triage-pipeline/internal/ticket"
)

// SchemaAssemblyError reports that the final output failed its own contract.
// The orchestrator downgrades it to an escalation: malformed output is never
// emitted.
type SchemaAssemblyError struct {
	Field string
	Err   error
}

func (e *SchemaAssemblyError) Error() string {
	if e == nil || e.Err == nil {
		return "schema assembly error"
	}
	return fmt.Sprintf("final output %s: %v", e.Field, e.Err)
}

func (e *SchemaAssemblyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AssembleOutput builds and validates the finalize-path output. Malformed
// citations are dropped (coerced to absent); structural violations return a
// SchemaAssemblyError.
func AssembleOutput(st *ticket.WorkflowState, now time.Time) (ticket.FinalOutput, error) {
	var out ticket.FinalOutput

	if strings.TrimSpace(st.Ticket.TicketID) == "" {
		return out, &SchemaAssemblyError{Field: "ticket_id", Err: fmt.Errorf("empty")}
	}
	if st.Triage == nil {
		return out, &SchemaAssemblyError{Field: "triage", Err: fmt.Errorf("missing")}
	}
	if st.Draft == nil {
		return out, &SchemaAssemblyError{Field: "answer_draft", Err: fmt.Errorf("missing")}
	}
	if st.PolicyCheck == nil {
		return out, &SchemaAssemblyError{Field: "policy_check", Err: fmt.Errorf("missing")}
	}

	triage := *st.Triage
	switch triage.Priority {
	case ticket.PriorityP1, ticket.PriorityP2, ticket.PriorityP3:
	default:
		return out, &SchemaAssemblyError{Field: "triage.priority", Err: fmt.Errorf("invalid %q", triage.Priority)}
	}
	if triage.SLAHours < 1 {
		return out, &SchemaAssemblyError{Field: "triage.sla_hours", Err: fmt.Errorf("non-positive %d", triage.SLAHours)}
	}

	draft := *st.Draft
	if draft.Greeting == "" || draft.Body == "" || draft.Closing == "" || draft.Tone == "" {
		return out, &SchemaAssemblyError{Field: "answer_draft", Err: fmt.Errorf("unpopulated field")}
	}

	citations := make([]ticket.Citation, 0, len(st.RerankedDocs))
	for _, d := range st.RerankedDocs {
		c := ticket.CitationOf(d)
		if !validCitation(c) {
			continue
		}
		citations = append(citations, c)
	}

	return ticket.FinalOutput{
		TicketID:    st.Ticket.TicketID,
		Timestamp:   now.UTC(),
		Triage:      triage,
		AnswerDraft: draft,
		Citations:   citations,
		PolicyCheck: *st.PolicyCheck,
	}, nil
}

func validCitation(c ticket.Citation) bool {
	if strings.TrimSpace(c.DocID) == "" {
		return false
	}
	if c.Score < 0 || c.Score > 1 {
		return false
	}
	if c.URL != "" && !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return false
	}
	return true
}
