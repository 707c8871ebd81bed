package models

// InboundRecord is the normalized input record produced by the channel
// ingestion collaborators (HTTP API or the Kafka consumer).
type InboundRecord struct {
	InteractionID string     `json:"interaction_id"`
	Identifier    Identifier `json:"customer_identifier"`
	// ExtraIdentifiers carries any additional identifiers supplied in the
	// same payload (e.g. a web form submitting both email and phone).
	ExtraIdentifiers []Identifier `json:"extra_identifiers,omitempty"`
	Channel          Channel      `json:"channel"`
	Text             string       `json:"text"`
	DisplayName      string       `json:"display_name,omitempty"`
	TS               int64        `json:"timestamp"`
}

// Interaction is one inbound message attached to a conversation. Immutable
// once created.
type Interaction struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	Channel        Channel `json:"channel"`
	RawText        string  `json:"raw_text"`
	NormalizedText string  `json:"normalized_text"`
	TS             int64   `json:"ts"`
}
