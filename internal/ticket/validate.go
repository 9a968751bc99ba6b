package ticket

import (
	"errors"
	"regexp"
	"strings"
)

// maxMessageLen bounds accepted ticket text. Longer messages are rejected
// rather than truncated so the submitter knows the content never entered the
// pipeline.
const maxMessageLen = 10000

var whitespaceRe = regexp.MustCompile(`\s+`)

// ValidateInput checks the ticket submission contract and returns a sanitized
// copy. A malformed optional field is cleared, not fatal; a missing required
// field is an error.
func ValidateInput(t Ticket) (Ticket, error) {
	t.TicketID = strings.TrimSpace(t.TicketID)
	if t.TicketID == "" {
		return t, &ValidationError{Field: "ticket_id", Err: errors.New("required")}
	}

	msg := whitespaceRe.ReplaceAllString(strings.TrimSpace(t.Message), " ")
	if msg == "" {
		return t, &ValidationError{Field: "message", Err: errors.New("required")}
	}
	if len(msg) > maxMessageLen {
		return t, &ValidationError{Field: "message", Err: errors.New("exceeds maximum length")}
	}
	t.Message = msg

	email := strings.TrimSpace(t.CustomerEmail)
	if email != "" && !strings.Contains(email, "@") {
		email = ""
	}
	t.CustomerEmail = email

	t.Subject = strings.TrimSpace(t.Subject)
	t.Channel = strings.TrimSpace(t.Channel)
	if t.Channel == "" {
		t.Channel = "email"
	}
	return t, nil
}
