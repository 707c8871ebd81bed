package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"triaged/pkg/classify"
	"triaged/pkg/config"
	"triaged/pkg/events"
	"triaged/pkg/handoff"
	"triaged/pkg/identity"
	"triaged/pkg/logger"
	"triaged/pkg/memory"
	"triaged/pkg/models"
	"triaged/pkg/signals"
	"triaged/pkg/store"
	"triaged/pkg/telemetry"
)

// Engine ties extraction, classification, memory and the escalation rules
// into one processing path. Lanes keep a customer's interactions ordered;
// conversation mutation itself happens under the customer stripe lock,
// shared with the lifecycle endpoints and the sweeper.
type Engine struct {
	cfg      *config.Config
	notifier handoff.Notifier
	producer *events.Producer
}

// New builds an engine. producer may be nil (no event streams); a nil
// notifier falls back to the audit-log notifier.
func New(cfg *config.Config, n handoff.Notifier, p *events.Producer) *Engine {
	if n == nil {
		n = handoff.LogNotifier{}
	}
	return &Engine{cfg: cfg, notifier: n, producer: p}
}

// Process runs one inbound record through the full triage path and returns
// the output record. The same interaction id always returns the original
// decision; replays never touch conversation state.
func (e *Engine) Process(ctx context.Context, rec models.InboundRecord) (models.OutputRecord, error) {
	start := time.Now()

	if prev, ok, err := store.GetDecision(rec.InteractionID); err != nil {
		return models.OutputRecord{}, err
	} else if ok {
		telemetry.RecordReplay()
		logger.Info("interaction_replayed", "interaction", rec.InteractionID)
		out := prev.Output
		out.Replayed = true
		return out, nil
	}

	cust, err := identity.Resolve(rec)
	if err != nil {
		if errors.Is(err, models.ErrIdentityConflict) {
			telemetry.RecordIdentityConflict()
			logger.AuditEvent("identity_conflict",
				"interaction", rec.InteractionID, "error", err.Error())
			if e.producer != nil {
				_ = e.producer.DeadLetter(ctx, rec, err.Error())
			}
		}
		return models.OutputRecord{}, err
	}

	ts := rec.TS
	if ts == 0 {
		ts = time.Now().UTC().UnixNano()
	}

	bundle := signals.Extract(rec.Text, rec.Channel)
	cls := classify.Classify(bundle)

	// The whole read-modify-write cycle on conversation state runs under
	// the customer's stripe lock so lifecycle endpoints and the sweeper
	// cannot interleave with it.
	var conv models.Conversation
	var dec models.Decision
	err = memory.WithCustomer(cust.ID, func() error {
		var err error
		conv, _, err = memory.Attach(cust.ID, rec.Channel, ts, memory.ReopenPolicy{
			ResolvedWithin: e.cfg.Engine.ReopenResolvedWithin.Duration(),
			Escalated:      e.cfg.Engine.ReopenEscalated,
		})
		if err != nil {
			return err
		}

		memory.RecordArrival(&conv, rec.Channel, ts)

		priorAttempts := conv.UnresolvedAttempts
		priorTopic := conv.AttemptTopic
		memory.RecordSignals(&conv, bundle, e.cfg.Engine.SentimentThreshold)

		attemptKey := memory.AttemptKey(bundle, cls.Category)
		dec = Evaluate(RuleInput{
			Bundle:            bundle,
			Class:             cls,
			ConsecutiveLow:    conv.ConsecutiveLowSentiment,
			PriorAttempts:     priorAttempts,
			PriorAttemptTopic: priorTopic,
			AttemptKey:        attemptKey,
			Cfg:               e.cfg.Engine,
		})

		if !dec.ShouldEscalate && !bundle.InsufficientContent {
			memory.RecordAttempt(&conv, cls.Category, attemptKey)
		}

		interaction := models.Interaction{
			ID:             rec.InteractionID,
			ConversationID: conv.ID,
			Channel:        rec.Channel,
			RawText:        rec.Text,
			NormalizedText: strings.ToLower(strings.Join(strings.Fields(rec.Text), " ")),
			TS:             ts,
		}
		if err := store.AppendInteraction(interaction); err != nil {
			return err
		}
		return memory.Finalize(&conv, dec.ShouldEscalate, ts)
	})
	if err != nil {
		return models.OutputRecord{}, err
	}

	out := models.OutputRecord{
		InteractionID:      rec.InteractionID,
		CustomerID:         cust.ID,
		ConversationID:     conv.ID,
		Category:           cls.Category,
		Priority:           cls.Priority,
		Confidence:         cls.Confidence,
		ShouldEscalate:     dec.ShouldEscalate,
		Reason:             dec.Reason,
		Status:             conv.Status,
		NeedsClarification: bundle.InsufficientContent,
		ResponseLimits:     e.cfg.ResponseLimits(),
		TS:                 ts,
	}

	record := models.DecisionRecord{Output: out}
	if dec.ShouldEscalate {
		record.Handoff = e.buildHandoff(cust, conv, cls, dec, rec.Channel)
		status, derr := handoff.Deliver(ctx, e.notifier, *record.Handoff, handoff.Options{
			MaxAttempts:    e.cfg.Handoff.MaxAttempts,
			InitialBackoff: e.cfg.Handoff.InitialBackoff.Duration(),
			MaxBackoff:     e.cfg.Handoff.MaxBackoff.Duration(),
		})
		record.Delivery = status
		telemetry.RecordHandoff(string(status))
		if derr != nil {
			logger.Warn("handoff_pending", "interaction", rec.InteractionID, "error", derr)
		}
	}
	if err := store.SaveDecision(record); err != nil {
		return models.OutputRecord{}, fmt.Errorf("failed to persist decision: %w", err)
	}

	e.emit(ctx, out, record)
	e.observe(out, rec, dec, start)
	return out, nil
}

func (e *Engine) buildHandoff(cust models.Customer, conv models.Conversation,
	cls models.Classification, dec models.Decision, ch models.Channel) *models.HandoffPayload {

	recent, err := store.ListInteractions(conv.ID, 5)
	if err != nil {
		logger.Warn("handoff_history_unavailable", "conversation", conv.ID, "error", err)
	}
	var attempted []string
	if conv.UnresolvedAttempts > 0 {
		attempted = append(attempted, fmt.Sprintf("%d unresolved attempt(s) on %s",
			conv.UnresolvedAttempts, conv.AttemptTopic))
	}
	return &models.HandoffPayload{
		CustomerID:     cust.ID,
		Channel:        ch,
		Summary:        memory.Summarize(conv, recent, e.cfg.Engine.SummaryMaxChars),
		Attempted:      attempted,
		Reason:         dec.Reason,
		Priority:       cls.Priority,
		ResponseLimits: e.cfg.ResponseLimits(),
	}
}

func (e *Engine) emit(ctx context.Context, out models.OutputRecord, record models.DecisionRecord) {
	if e.producer == nil {
		return
	}
	if err := e.producer.Decision(ctx, out); err != nil {
		logger.Warn("decision_event_dropped", "interaction", out.InteractionID, "error", err)
	}
	if record.Handoff != nil {
		if err := e.producer.Escalation(ctx, *record.Handoff); err != nil {
			logger.Warn("escalation_event_dropped", "interaction", out.InteractionID, "error", err)
		}
	}
}

func (e *Engine) observe(out models.OutputRecord, rec models.InboundRecord, dec models.Decision, start time.Time) {
	telemetry.RecordDecision(string(out.Category), string(out.Reason), time.Since(start))
	if out.ShouldEscalate {
		telemetry.RecordEscalation(string(rec.Channel))
		logger.AuditEvent("escalation",
			"interaction", out.InteractionID,
			"customer", out.CustomerID,
			"conversation", out.ConversationID,
			"reason", string(out.Reason),
			"signal", dec.TriggeringSignal,
			"priority", string(out.Priority),
			"confidence", out.Confidence)
		return
	}
	logger.Info("interaction_processed",
		"interaction", out.InteractionID,
		"customer", out.CustomerID,
		"category", string(out.Category),
		"priority", string(out.Priority),
		"confidence", out.Confidence)
}

// RedeliverPending retries handoff delivery for decisions stuck in pending.
// Called by the sweeper; delivered records drop out of the pending index.
func (e *Engine) RedeliverPending(ctx context.Context) (int, error) {
	recs, err := store.ListPendingHandoffs()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range recs {
		if rec.Handoff == nil {
			rec.Delivery = models.DeliveryDelivered
			_ = store.UpdateDecision(rec)
			continue
		}
		status, derr := handoff.Deliver(ctx, e.notifier, *rec.Handoff, handoff.Options{
			MaxAttempts:    e.cfg.Handoff.MaxAttempts,
			InitialBackoff: e.cfg.Handoff.InitialBackoff.Duration(),
			MaxBackoff:     e.cfg.Handoff.MaxBackoff.Duration(),
		})
		if derr != nil {
			logger.Warn("handoff_redelivery_failed",
				"interaction", rec.Output.InteractionID, "error", derr)
			continue
		}
		rec.Delivery = status
		if err := store.UpdateDecision(rec); err != nil {
			return n, err
		}
		telemetry.RecordHandoff("redelivered")
		n++
	}
	return n, nil
}
