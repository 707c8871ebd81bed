package classify

import "triaged/pkg/signals"

// Confidence calibration: a fixed base minus fixed penalties per detected
// degradation, clamped to a closed range. No randomness, no hidden state.
const (
	confBase  = 0.92
	confFloor = 0.20
	confCeil  = 0.99

	penaltyAmbiguity    = 0.20
	penaltyInsufficient = 0.30
	penaltyNoSignals    = 0.12
	penaltyConflict     = 0.10
)

// Confidence scores how cleanly the bundle maps onto a single category.
func Confidence(b signals.Bundle) float64 {
	c := confBase
	if b.Ambiguous {
		c -= penaltyAmbiguity
	}
	if b.InsufficientContent {
		c -= penaltyInsufficient
	}
	if !b.InsufficientContent && b.HitCount() == 0 {
		c -= penaltyNoSignals
	}
	if categoryGroups(b) > 1 {
		c -= penaltyConflict
	}
	if c < confFloor {
		return confFloor
	}
	if c > confCeil {
		return confCeil
	}
	return c
}

// categoryGroups counts how many category-driving signal groups fired. Two
// or more means the message pulls toward competing categories.
func categoryGroups(b signals.Bundle) int {
	n := 0
	if b.SecurityIncident || b.LegalCompliance || b.PaymentRefund || b.Pricing {
		n++
	}
	if b.TechnicalIssue {
		n++
	}
	if b.Billing {
		n++
	}
	return n
}
