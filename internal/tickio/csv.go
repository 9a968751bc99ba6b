// Package tickio reads ticket batches from CSV and writes terminal results as
// JSON Lines.
package tickio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/supportai/triage-pipeline/internal/ticket"
)

// ReadTicketsCSV reads tickets from a CSV stream. The header must contain
// "ticket_id" and "message"; "customer_email", "subject", and "channel" are
// optional and matched case-insensitively.
func ReadTicketsCSV(r io.Reader) ([]ticket.Ticket, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"ticket_id", "message"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var tickets []ticket.Ticket
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		tickets = append(tickets, ticket.Ticket{
			TicketID:      field(rec, "ticket_id"),
			Message:       field(rec, "message"),
			CustomerEmail: field(rec, "customer_email"),
			Subject:       field(rec, "subject"),
			Channel:       field(rec, "channel"),
		})
	}
	return tickets, nil
}
