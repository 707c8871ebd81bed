package models

// Channel is the closed set of supported ingestion channels. Anything else
// is a validation error, never a default.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelChat    Channel = "chat"
	ChannelWebForm Channel = "web_form"
)

// ValidChannel reports whether ch is one of the supported channels.
func ValidChannel(ch Channel) bool {
	switch ch {
	case ChannelEmail, ChannelChat, ChannelWebForm:
		return true
	}
	return false
}

// ConversationStatus is the conversation lifecycle state. Transitions are
// monotonic except reopening from resolved, which is a policy decision.
type ConversationStatus string

const (
	StatusOpen       ConversationStatus = "open"
	StatusProcessing ConversationStatus = "processing"
	StatusResolved   ConversationStatus = "resolved"
	StatusEscalated  ConversationStatus = "escalated"
)

// Active reports whether the status counts as the customer's single active
// conversation (new interactions attach to it).
func (s ConversationStatus) Active() bool {
	return s == StatusOpen || s == StatusProcessing
}

// ChannelSwitch records an interaction arriving on a different channel than
// the conversation's prior interaction. Continuity is preserved; the switch
// is only logged.
type ChannelSwitch struct {
	From Channel `json:"from"`
	To   Channel `json:"to"`
	TS   int64   `json:"ts"`
}

// Conversation is one continuous support thread for a customer, possibly
// spanning channels. Counter fields are order-sensitive and must only be
// mutated from the customer's processing lane.
type Conversation struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id"`
	Origin     Channel            `json:"origin_channel"`
	Status     ConversationStatus `json:"status"`

	// SentimentTrend is the ordered sequence of per-interaction sentiment
	// scores, oldest first.
	SentimentTrend []float64 `json:"sentiment_trend,omitempty"`
	// Topics accumulates detected taxonomy topics (not raw text) across the
	// conversation's lifetime.
	Topics []string `json:"topics,omitempty"`
	// ChannelHistory is the ordered log of channel-switch events.
	ChannelHistory []ChannelSwitch `json:"channel_history,omitempty"`
	// LastChannel is the channel of the most recent interaction.
	LastChannel Channel `json:"last_channel"`

	// ConsecutiveLowSentiment counts messages in a row below the sentiment
	// threshold, including the most recent one. Resets on any message at or
	// above the threshold.
	ConsecutiveLowSentiment int `json:"consecutive_low_sentiment"`
	// UnresolvedAttempts counts non-escalating technical/general attempts on
	// AttemptTopic without a confirmed resolution. Resets on resolution or
	// when the topic changes.
	UnresolvedAttempts int    `json:"unresolved_attempts"`
	AttemptTopic       string `json:"attempt_topic,omitempty"`

	InteractionCount int   `json:"interaction_count"`
	CreatedTS        int64 `json:"created_ts"`
	UpdatedTS        int64 `json:"updated_ts"`
	ResolvedTS       int64 `json:"resolved_ts,omitempty"`
}

// HasTopic reports whether the conversation already accumulated the topic.
func (c *Conversation) HasTopic(t string) bool {
	for _, x := range c.Topics {
		if x == t {
			return true
		}
	}
	return false
}
