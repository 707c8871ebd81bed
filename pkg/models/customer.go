package models

// IdentifierType is the closed set of identifier kinds a channel can supply.
type IdentifierType string

const (
	IdentEmail IdentifierType = "email"
	IdentPhone IdentifierType = "phone"
)

// Identifier is one verified channel-scoped identifier for a customer.
type Identifier struct {
	Type  IdentifierType `json:"type"`
	Value string         `json:"value"`
}

// Customer is the identity root. Customers are created on first-seen
// identifier and never deleted, only extended with new identifiers.
type Customer struct {
	ID          string       `json:"id"`
	Identifiers []Identifier `json:"identifiers"`
	// DisplayName is optional; channels that know a name may set it.
	DisplayName string `json:"display_name,omitempty"`
	CreatedTS   int64  `json:"created_ts"`
}

// HasIdentifier reports whether the customer already carries the given
// (type, value) pair.
func (c *Customer) HasIdentifier(t IdentifierType, v string) bool {
	for _, id := range c.Identifiers {
		if id.Type == t && id.Value == v {
			return true
		}
	}
	return false
}

// PrimaryEmail returns the customer's email identifier value, or "" when
// none is registered. Email is the primary identifier when present.
func (c *Customer) PrimaryEmail() string {
	for _, id := range c.Identifiers {
		if id.Type == IdentEmail {
			return id.Value
		}
	}
	return ""
}
