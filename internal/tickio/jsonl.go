package tickio

import (
	"encoding/json"
	"io"

	"github.com/supportai/triage-pipeline/internal/pipeline"
	"github.com/supportai/triage-pipeline/internal/ticket"
)

// Record is one terminal result on the JSONL output stream.
type Record struct {
	TicketID   string               `json:"ticket_id"`
	Status     string               `json:"status"`
	Reason     string               `json:"reason,omitempty"`
	Output     *ticket.FinalOutput  `json:"output,omitempty"`
	Escalation *ticket.Escalation   `json:"escalation,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// ResultWriter streams one JSON object per line.
type ResultWriter struct {
	enc *json.Encoder
}

func NewResultWriter(w io.Writer) *ResultWriter {
	return &ResultWriter{enc: json.NewEncoder(w)}
}

// WriteResult records a completed run. runErr is the hard failure path
// (cancellation, invalid input) where no terminal state exists.
func (w *ResultWriter) WriteResult(ticketID string, res pipeline.Result, runErr error) error {
	rec := Record{TicketID: ticketID}
	switch {
	case runErr != nil:
		rec.Status = "error"
		rec.Error = runErr.Error()
	case res.Decision == pipeline.DecisionEscalate:
		rec.Status = "escalated"
		rec.Reason = res.Reason
		rec.Escalation = res.Escalation
	default:
		rec.Status = "resolved"
		rec.Output = res.Output
	}
	return w.enc.Encode(rec)
}
