package ingest

// Stream ingestion: a consumer group reading normalized inbound records and
// feeding them into the lanes. Offsets are committed only after the record
// is accepted by a lane (or dead-lettered), so a crash replays instead of
// losing interactions; the engine's replay short-circuit makes that safe.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"triaged/pkg/events"
	"triaged/pkg/logger"
	"triaged/pkg/models"
	"triaged/pkg/validation"
)

// Consumer pulls inbound interaction records from Kafka.
type Consumer struct {
	reader   *kafka.Reader
	lanes    *Lanes
	producer *events.Producer
}

// NewConsumer builds a group consumer on the interactions topic.
func NewConsumer(brokers []string, topic, groupID string, lanes *Lanes, producer *events.Producer) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		lanes:    lanes,
		producer: producer,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	logger.Info("kafka_consumer_started", "topic", c.reader.Config().Topic)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.consume(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Warn("kafka_commit_failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) consume(ctx context.Context, msg kafka.Message) {
	var rec models.InboundRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		logger.Warn("kafka_bad_record", "offset", msg.Offset, "error", err)
		_ = c.producer.DeadLetter(ctx, rec, "unparseable record: "+err.Error())
		return
	}
	if err := validation.CheckInbound(&rec); err != nil {
		logger.Warn("kafka_invalid_record", "interaction", rec.InteractionID, "error", err)
		_ = c.producer.DeadLetter(ctx, rec, err.Error())
		return
	}

	// Backpressure: block with a short retry loop rather than dropping. The
	// broker holds the backlog; dead-lettering on a full lane would turn a
	// burst into data loss.
	for {
		err := c.lanes.Submit(rec)
		if err == nil {
			return
		}
		if err == ErrClosed {
			return
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts the reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
