package escalate

import (
	"context"
	"log"

	"github.com/supportai/triage-pipeline/internal/ticket"
)

// LogSink records escalations to a logger. Used in local mode where no review
// queue exists.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Escalate(_ context.Context, esc ticket.Escalation) error {
	s.logger.Printf("ticket=%s escalation queued for human review: %s", esc.TicketID, esc.Reason)
	return nil
}
