package validation

// Inbound record validation. Invalid records never reach the engine;
// empty text is deliberately NOT invalid (it classifies as a clarification
// case downstream).

import (
	"strings"

	"triaged/pkg/models"
	"triaged/pkg/utils"
)

// maxTextBytes caps a single interaction body. Far above any real support
// message; this only guards the store against pathological payloads.
const maxTextBytes = 64 * 1024

// CheckInbound validates and normalizes a record in place. It returns a
// *models.ValidationError describing the first problem found.
func CheckInbound(rec *models.InboundRecord) error {
	rec.InteractionID = strings.TrimSpace(rec.InteractionID)
	if rec.InteractionID == "" {
		rec.InteractionID = utils.GenInteractionID()
	}

	if !models.ValidChannel(rec.Channel) {
		return &models.ValidationError{Field: "channel",
			Msg: "must be one of email, chat, web_form"}
	}

	if err := checkIdentifier(&rec.Identifier, "customer_identifier"); err != nil {
		return err
	}
	for i := range rec.ExtraIdentifiers {
		if err := checkIdentifier(&rec.ExtraIdentifiers[i], "extra_identifiers"); err != nil {
			return err
		}
	}

	if len(rec.Text) > maxTextBytes {
		return &models.ValidationError{Field: "text", Msg: "exceeds maximum size"}
	}
	rec.DisplayName = strings.TrimSpace(rec.DisplayName)
	return nil
}

func checkIdentifier(id *models.Identifier, field string) error {
	id.Value = strings.TrimSpace(id.Value)
	switch id.Type {
	case models.IdentEmail:
		id.Value = strings.ToLower(id.Value)
		at := strings.Index(id.Value, "@")
		if at < 1 || at == len(id.Value)-1 || strings.ContainsAny(id.Value, " \t") {
			return &models.ValidationError{Field: field, Msg: "malformed email address"}
		}
	case models.IdentPhone:
		digits := 0
		for _, r := range id.Value {
			switch {
			case r >= '0' && r <= '9':
				digits++
			case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
			default:
				return &models.ValidationError{Field: field, Msg: "malformed phone number"}
			}
		}
		if digits < 7 {
			return &models.ValidationError{Field: field, Msg: "phone number too short"}
		}
	default:
		return &models.ValidationError{Field: field, Msg: "unknown identifier type"}
	}
	if id.Value == "" {
		return &models.ValidationError{Field: field, Msg: "value is required"}
	}
	return nil
}
