// Package escalate implements the human-escalation collaborator boundary.
package escalate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/supportai/triage-pipeline/internal/ticket"
)

// KafkaPublisher hands escalations to the human review queue as JSON messages
// keyed by ticket_id. Keying makes redelivery idempotent for consumers that
// dedupe on key.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) Escalate(ctx context.Context, esc ticket.Escalation) error {
	data, err := json.Marshal(esc)
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(esc.TicketID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish escalation for %s: %w", esc.TicketID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
