package identity

// Cross-channel identity resolution. A customer is keyed by verified
// identifiers (email, phone); any channel that presents a known identifier
// lands on the same customer. An identifier already bound to a different
// customer is a conflict surfaced to the caller, never an automatic merge.

import (
	"fmt"
	"time"

	"triaged/pkg/logger"
	"triaged/pkg/models"
	"triaged/pkg/store"
	"triaged/pkg/utils"
)

// Resolve maps the inbound identifiers onto exactly one customer, creating
// one when nothing matches. When several supplied identifiers resolve to
// different existing customers the record is rejected with an identity
// conflict.
func Resolve(rec models.InboundRecord) (models.Customer, error) {
	idents := append([]models.Identifier{rec.Identifier}, rec.ExtraIdentifiers...)

	var cust models.Customer
	found := false
	for _, id := range idents {
		cid, ok, err := store.LookupIdentifier(id.Type, id.Value)
		if err != nil {
			return models.Customer{}, fmt.Errorf("identifier lookup failed: %w", err)
		}
		if !ok {
			continue
		}
		if found && cid != cust.ID {
			return models.Customer{}, &models.IdentityConflictError{
				Identifier: id,
				BoundTo:    cid,
				Requested:  cust.ID,
			}
		}
		if !found {
			c, err := store.GetCustomer(cid)
			if err != nil {
				return models.Customer{}, err
			}
			cust = c
			found = true
		}
	}

	if !found {
		cust = models.Customer{
			ID:          utils.GenCustomerID(),
			DisplayName: rec.DisplayName,
			CreatedTS:   time.Now().UTC().UnixNano(),
		}
		logger.Info("customer_created", "customer", cust.ID,
			"identifier_type", string(rec.Identifier.Type))
	}

	// Bind any identifier the customer does not carry yet. BindIdentifier
	// re-checks ownership, so a concurrent bind by another lane still
	// surfaces as a conflict instead of silently stealing the identifier.
	changed := false
	for _, id := range idents {
		if cust.HasIdentifier(id.Type, id.Value) {
			continue
		}
		if err := store.BindIdentifier(id.Type, id.Value, cust.ID); err != nil {
			return models.Customer{}, err
		}
		cust.Identifiers = append(cust.Identifiers, id)
		changed = true
	}
	if cust.DisplayName == "" && rec.DisplayName != "" {
		cust.DisplayName = rec.DisplayName
		changed = true
	}
	if !found || changed {
		if err := store.SaveCustomer(cust); err != nil {
			return models.Customer{}, err
		}
	}
	return cust, nil
}
