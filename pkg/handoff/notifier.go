package handoff

// Human-handoff notification. Delivery is retried with exponential backoff
// inside a fixed budget; exhaustion never blocks or reverses the decision,
// it only marks the record pending for the sweeper to redeliver.

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"triaged/pkg/logger"
	"triaged/pkg/models"
)

// Notifier delivers an escalation handoff to the human support system.
type Notifier interface {
	Notify(ctx context.Context, p models.HandoffPayload) error
}

// Options bounds the retry budget around a Notifier.
type Options struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Deliver calls the notifier with retries. It returns the delivery status
// that should be persisted with the decision; the error carries the last
// failure when delivery ends pending.
func Deliver(ctx context.Context, n Notifier, p models.HandoffPayload, o Options) (models.DeliveryStatus, error) {
	if n == nil {
		return models.DeliveryPending, fmt.Errorf("no notifier configured")
	}
	attempts := o.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	if o.InitialBackoff > 0 {
		bo.InitialInterval = o.InitialBackoff
	}
	if o.MaxBackoff > 0 {
		bo.MaxInterval = o.MaxBackoff
	}
	bo.Reset()

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return models.DeliveryPending, err
		}
		if lastErr = n.Notify(ctx, p); lastErr == nil {
			return models.DeliveryDelivered, nil
		}
		logger.Warn("handoff_notify_failed", "customer", p.CustomerID,
			"reason", string(p.Reason), "attempt", i+1, "error", lastErr)
		if i < attempts-1 {
			select {
			case <-time.After(bo.NextBackOff()):
			case <-ctx.Done():
				return models.DeliveryPending, ctx.Err()
			}
		}
	}
	return models.DeliveryPending, fmt.Errorf("handoff delivery exhausted after %d attempts (%v): %w",
		attempts, lastErr, models.ErrDownstreamUnavailable)
}

// LogNotifier is the default notifier when no external system is wired: it
// records the handoff on the audit sink. Useful for local runs and tests.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, p models.HandoffPayload) error {
	logger.AuditEvent("handoff",
		"customer", p.CustomerID,
		"channel", string(p.Channel),
		"reason", string(p.Reason),
		"priority", string(p.Priority),
		"summary", p.Summary)
	return nil
}
