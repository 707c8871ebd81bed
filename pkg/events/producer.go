package events

// Decision and escalation event streams. Messages are keyed by customer id
// so one customer's events land on one partition in order.

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"triaged/pkg/logger"
	"triaged/pkg/models"
)

// Producer publishes engine outcomes to the decision, escalation and DLQ
// topics. A nil Producer is valid and drops everything, so the engine runs
// unchanged without Kafka.
type Producer struct {
	decisions   *kafka.Writer
	escalations *kafka.Writer
	dlq         *kafka.Writer
}

// NewProducer builds writers for the three outbound topics.
func NewProducer(brokers []string, decisionsTopic, escalationsTopic, dlqTopic string) *Producer {
	w := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		}
	}
	return &Producer{
		decisions:   w(decisionsTopic),
		escalations: w(escalationsTopic),
		dlq:         w(dlqTopic),
	}
}

func (p *Producer) send(ctx context.Context, w *kafka.Writer, key string, v any) error {
	if p == nil || w == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		logger.Warn("kafka_publish_failed", "topic", w.Topic, "key", key, "error", err)
		return err
	}
	return nil
}

// Decision publishes the output record for a processed interaction.
func (p *Producer) Decision(ctx context.Context, out models.OutputRecord) error {
	if p == nil {
		return nil
	}
	return p.send(ctx, p.decisions, out.CustomerID, out)
}

// Escalation publishes the handoff payload for an escalated decision.
func (p *Producer) Escalation(ctx context.Context, h models.HandoffPayload) error {
	if p == nil {
		return nil
	}
	return p.send(ctx, p.escalations, h.CustomerID, h)
}

// DeadLetter publishes a record the engine rejected, with the rejection
// reason attached.
func (p *Producer) DeadLetter(ctx context.Context, rec models.InboundRecord, reason string) error {
	if p == nil {
		return nil
	}
	return p.send(ctx, p.dlq, rec.InteractionID, struct {
		Record models.InboundRecord `json:"record"`
		Error  string               `json:"error"`
	}{rec, reason})
}

// Close closes the writers.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	for _, w := range []*kafka.Writer{p.decisions, p.escalations, p.dlq} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}
