package classify

// Classification is an ordered rule table over the extracted signal bundle:
// first matching row decides the category. Priority is computed
// independently, so a P1 billing dispute and a P3 billing question share a
// category but not a tier.

import (
	"triaged/pkg/models"
	"triaged/pkg/signals"
)

// Categorize resolves the category for a signal bundle. Signals that force a
// human handoff outrank topical routing: a refund demand is an escalation
// first and a billing matter second.
func Categorize(b signals.Bundle) models.Category {
	switch {
	case b.SecurityIncident, b.LegalCompliance, b.PaymentRefund, b.Pricing:
		return models.CategoryEscalation
	case b.TechnicalIssue:
		return models.CategoryTechnical
	case b.Billing:
		return models.CategoryBilling
	default:
		return models.CategoryGeneral
	}
}

// Prioritize resolves the urgency tier for a signal bundle.
func Prioritize(b signals.Bundle) models.Priority {
	switch {
	case b.SecurityIncident, b.LegalCompliance, b.CriticalBlocked,
		b.PaymentRefund, b.Pricing, b.ChurnRisk, b.Hostility:
		return models.PriorityP1
	case b.TechnicalIssue:
		return models.PriorityP2
	default:
		return models.PriorityP3
	}
}

// Classify produces the full classification, confidence included.
func Classify(b signals.Bundle) models.Classification {
	return models.Classification{
		Category:   Categorize(b),
		Priority:   Prioritize(b),
		Confidence: Confidence(b),
	}
}
