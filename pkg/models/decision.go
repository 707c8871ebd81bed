package models

// Category is the classification category, resolved by an ordered rule
// table (first match wins).
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryTechnical  Category = "technical"
	CategoryBilling    Category = "billing"
	CategoryEscalation Category = "escalation"
)

// Priority is the urgency tier, computed independently from category.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// ReasonCode is the closed enumeration of escalation reasons. Hard-trigger
// codes are listed in precedence order; when a message matches several hard
// triggers the highest one wins.
type ReasonCode string

const (
	ReasonSecurityIncident   ReasonCode = "security_incident"
	ReasonLegalCompliance    ReasonCode = "legal_compliance"
	ReasonPaymentRefund      ReasonCode = "payment_refund"
	ReasonPricingNegotiation ReasonCode = "pricing_negotiation"
	ReasonHumanRequested     ReasonCode = "human_requested"
	ReasonChurnRisk          ReasonCode = "churn_risk"

	ReasonSustainedNegativeSentiment ReasonCode = "sustained_negative_sentiment"
	ReasonUnresolvedAfterRetries     ReasonCode = "unresolved_after_retries"
	ReasonLowConfidenceReview        ReasonCode = "low_confidence_review"

	ReasonNone ReasonCode = "none"
)

// Classification is the derived classification for one interaction. It is
// attached to the interaction's decision record, never persisted on its own.
type Classification struct {
	Category   Category `json:"category"`
	Priority   Priority `json:"priority"`
	Confidence float64  `json:"confidence"`
}

// Decision is the escalation decision for one interaction.
type Decision struct {
	ShouldEscalate bool       `json:"should_escalate"`
	Reason         ReasonCode `json:"reason_code"`
	// TriggeringSignal names the rule that fired, for auditability.
	TriggeringSignal string `json:"triggering_signal,omitempty"`
}

// OutputRecord is emitted to the response/formatting and persistence
// collaborators after an interaction is processed.
type OutputRecord struct {
	InteractionID  string             `json:"interaction_id"`
	CustomerID     string             `json:"customer_id"`
	ConversationID string             `json:"conversation_id"`
	Category       Category           `json:"category"`
	Priority       Priority           `json:"priority"`
	Confidence     float64            `json:"confidence"`
	ShouldEscalate bool               `json:"should_escalate"`
	Reason         ReasonCode         `json:"reason_code"`
	Status         ConversationStatus `json:"conversation_status"`
	// NeedsClarification marks empty/whitespace-only input that was accepted
	// but could not be classified.
	NeedsClarification bool `json:"needs_clarification,omitempty"`
	// Replayed marks a duplicate interaction_id short-circuited with the
	// original decision.
	Replayed bool `json:"replayed,omitempty"`
	// ResponseLimits carries the configured per-channel formatting budgets,
	// untouched, for the formatting collaborator.
	ResponseLimits map[string]ResponseLimit `json:"response_limits,omitempty"`
	TS             int64                    `json:"ts"`
}

// ResponseLimit is one channel's response-length budget. The engine never
// enforces it; the values ride along on decisions and handoffs as
// configured.
type ResponseLimit struct {
	MaxWords int `json:"max_words,omitempty"`
	MaxChars int `json:"max_chars,omitempty"`
}

// DeliveryStatus tracks handoff delivery for an escalated decision.
type DeliveryStatus string

const (
	DeliveryNone      DeliveryStatus = ""
	DeliveryDelivered DeliveryStatus = "delivered"
	// DeliveryPending marks a handoff whose notification exhausted its retry
	// budget; the sweeper redelivers it. The decision itself is final.
	DeliveryPending DeliveryStatus = "pending"
)

// DecisionRecord is the persisted processing outcome keyed by
// interaction_id. Replays return it verbatim and never touch counters.
type DecisionRecord struct {
	Output   OutputRecord    `json:"output"`
	Delivery DeliveryStatus  `json:"delivery,omitempty"`
	Handoff  *HandoffPayload `json:"handoff,omitempty"`
}

// HandoffPayload is sent to the human-handoff collaborator when a decision
// escalates.
type HandoffPayload struct {
	CustomerID string     `json:"customer_id"`
	Channel    Channel    `json:"channel"`
	Summary    string     `json:"conversation_summary"`
	Attempted  []string   `json:"attempted_actions,omitempty"`
	Reason     ReasonCode `json:"reason_code"`
	Priority   Priority   `json:"priority"`
	// ResponseLimits is the per-channel formatting budget, passed through
	// unchanged for the formatting collaborator.
	ResponseLimits map[string]ResponseLimit `json:"response_limits,omitempty"`
}
