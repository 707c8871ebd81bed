package memory

// Conversation memory: one active conversation per customer, accumulated
// signal history, and the order-sensitive counters the escalation rules
// read. The functions here do not lock; mutating callers wrap their whole
// read-modify-write cycle in WithCustomer.

import (
	"fmt"
	"strings"
	"time"

	"triaged/pkg/logger"
	"triaged/pkg/models"
	"triaged/pkg/signals"
	"triaged/pkg/store"
	"triaged/pkg/utils"
)

// trendCap bounds the stored sentiment trend. Older scores do not feed any
// rule; only the consecutive-low counter is unbounded state.
const trendCap = 50

// ReopenPolicy decides whether an interaction arriving after a conversation
// closed continues it or starts a fresh one.
type ReopenPolicy struct {
	// ResolvedWithin reopens a resolved conversation when the new
	// interaction arrives within this window of resolution. Zero disables
	// reopening.
	ResolvedWithin time.Duration
	// Escalated reopens escalated conversations. Off by default: once a
	// human owns the thread the engine starts a new one alongside it.
	Escalated bool
}

// Attach returns the conversation the interaction belongs to, creating or
// reopening one as the policy dictates. The returned bool reports a reopen.
func Attach(customerID string, ch models.Channel, ts int64, p ReopenPolicy) (models.Conversation, bool, error) {
	if id, ok, err := store.GetActiveConversation(customerID); err != nil {
		return models.Conversation{}, false, err
	} else if ok {
		conv, err := store.GetConversation(id)
		if err != nil {
			return models.Conversation{}, false, err
		}
		if conv.Status.Active() {
			return conv, false, nil
		}
		// stale index; fall through
		if err := store.SetActiveConversation(customerID, ""); err != nil {
			return models.Conversation{}, false, err
		}
	}

	if id, ok, err := store.GetLastConversation(customerID); err != nil {
		return models.Conversation{}, false, err
	} else if ok {
		conv, err := store.GetConversation(id)
		if err != nil {
			return models.Conversation{}, false, err
		}
		if shouldReopen(conv, ts, p) {
			conv.Status = models.StatusOpen
			conv.ResolvedTS = 0
			conv.ConsecutiveLowSentiment = 0
			conv.UnresolvedAttempts = 0
			conv.AttemptTopic = ""
			if err := persistActive(conv); err != nil {
				return models.Conversation{}, false, err
			}
			logger.Info("conversation_reopened", "conversation", conv.ID, "customer", customerID)
			return conv, true, nil
		}
	}

	conv := models.Conversation{
		ID:          utils.GenConversationID(),
		CustomerID:  customerID,
		Origin:      ch,
		Status:      models.StatusOpen,
		LastChannel: ch,
		CreatedTS:   ts,
		UpdatedTS:   ts,
	}
	if err := persistActive(conv); err != nil {
		return models.Conversation{}, false, err
	}
	return conv, false, nil
}

func shouldReopen(c models.Conversation, ts int64, p ReopenPolicy) bool {
	switch c.Status {
	case models.StatusResolved:
		if p.ResolvedWithin <= 0 {
			return false
		}
		return ts-c.ResolvedTS <= p.ResolvedWithin.Nanoseconds()
	case models.StatusEscalated:
		return p.Escalated
	}
	return false
}

func persistActive(c models.Conversation) error {
	if err := store.SaveConversation(c); err != nil {
		return err
	}
	if err := store.SetActiveConversation(c.CustomerID, c.ID); err != nil {
		return err
	}
	return store.SetLastConversation(c.CustomerID, c.ID)
}

// RecordArrival folds one interaction's channel and timing into the
// conversation. A channel different from the previous interaction's is
// logged as a switch event; continuity is never broken by it.
func RecordArrival(c *models.Conversation, ch models.Channel, ts int64) {
	if c.LastChannel != "" && c.LastChannel != ch {
		c.ChannelHistory = append(c.ChannelHistory, models.ChannelSwitch{
			From: c.LastChannel, To: ch, TS: ts,
		})
		logger.Info("channel_switch", "conversation", c.ID,
			"from", string(c.LastChannel), "to", string(ch))
	}
	c.LastChannel = ch
	c.InteractionCount++
	c.UpdatedTS = ts
	if c.Status == models.StatusOpen {
		c.Status = models.StatusProcessing
	}
}

// RecordSignals folds the extracted bundle into the trend, topics and the
// consecutive-low-sentiment counter. threshold is the low-sentiment cutoff.
func RecordSignals(c *models.Conversation, b signals.Bundle, threshold float64) {
	c.SentimentTrend = append(c.SentimentTrend, b.Sentiment)
	if len(c.SentimentTrend) > trendCap {
		c.SentimentTrend = c.SentimentTrend[len(c.SentimentTrend)-trendCap:]
	}
	for _, topic := range b.Topics {
		if !c.HasTopic(topic) {
			c.Topics = append(c.Topics, topic)
		}
	}
	if b.Sentiment < threshold {
		c.ConsecutiveLowSentiment++
	} else {
		c.ConsecutiveLowSentiment = 0
	}
}

// AttemptKey is the retry-counter topic for a classified interaction: the
// dominant detected topic, falling back to the category.
func AttemptKey(b signals.Bundle, cat models.Category) string {
	if len(b.Topics) > 0 {
		return b.Topics[0]
	}
	return string(cat)
}

// RecordAttempt advances the unresolved-attempt counter for non-escalating
// technical and general interactions. A topic change restarts the count.
func RecordAttempt(c *models.Conversation, cat models.Category, key string) {
	if cat != models.CategoryTechnical && cat != models.CategoryGeneral {
		return
	}
	if c.AttemptTopic == key {
		c.UnresolvedAttempts++
		return
	}
	c.AttemptTopic = key
	c.UnresolvedAttempts = 1
}

// Finalize applies the decision outcome to the conversation status and
// persists it. Escalation closes the conversation to the engine: the active
// index is cleared and follow-ups go through the reopen policy. Otherwise
// the conversation stays processing until resolution; status never moves
// backwards to open.
func Finalize(c *models.Conversation, escalated bool, ts int64) error {
	c.UpdatedTS = ts
	if escalated {
		c.Status = models.StatusEscalated
		if err := store.SaveConversation(*c); err != nil {
			return err
		}
		return store.SetActiveConversation(c.CustomerID, "")
	}
	return store.SaveConversation(*c)
}

// Resolve marks the conversation resolved and clears the retry counters and
// the active index.
func Resolve(c *models.Conversation, ts int64) error {
	c.Status = models.StatusResolved
	c.ResolvedTS = ts
	c.UpdatedTS = ts
	c.ConsecutiveLowSentiment = 0
	c.UnresolvedAttempts = 0
	c.AttemptTopic = ""
	if err := store.SaveConversation(*c); err != nil {
		return err
	}
	return store.SetActiveConversation(c.CustomerID, "")
}

// Reopen forces a closed conversation back open, bypassing policy. Used by
// the explicit reopen endpoint.
func Reopen(c *models.Conversation, ts int64) error {
	if c.Status.Active() {
		return fmt.Errorf("conversation %s already active", c.ID)
	}
	c.Status = models.StatusOpen
	c.ResolvedTS = 0
	c.UpdatedTS = ts
	c.ConsecutiveLowSentiment = 0
	c.UnresolvedAttempts = 0
	c.AttemptTopic = ""
	return persistActive(*c)
}

// Summarize renders a compact handoff summary of the conversation, capped at
// maxChars so downstream channel formatting never receives an unbounded
// blob.
func Summarize(c models.Conversation, recent []models.Interaction, maxChars int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d interaction(s) since %s via %s",
		c.InteractionCount,
		time.Unix(0, c.CreatedTS).UTC().Format(time.RFC3339),
		c.Origin)
	if len(c.Topics) > 0 {
		fmt.Fprintf(&sb, "; topics: %s", strings.Join(c.Topics, ", "))
	}
	if n := len(c.ChannelHistory); n > 0 {
		fmt.Fprintf(&sb, "; %d channel switch(es)", n)
	}
	if n := len(c.SentimentTrend); n > 0 {
		fmt.Fprintf(&sb, "; last sentiment %.2f", c.SentimentTrend[n-1])
	}
	for i := len(recent) - 1; i >= 0; i-- {
		sb.WriteString(" | ")
		sb.WriteString(recent[i].NormalizedText)
		if sb.Len() >= maxChars {
			break
		}
	}
	s := sb.String()
	if maxChars > 0 && len(s) > maxChars {
		s = s[:maxChars]
	}
	return s
}
