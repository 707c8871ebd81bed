package engine

// The escalation decision is an ordered rule list; the first rule that
// fires decides the reason code. Hard triggers come first in fixed
// precedence, then the stateful rules, then the confidence backstop.

import (
	"triaged/pkg/config"
	"triaged/pkg/models"
	"triaged/pkg/signals"
)

// RuleInput is the read-only view the rules evaluate. Counter fields carry
// conversation state as of this interaction: ConsecutiveLow includes the
// current message, PriorAttempts does not.
type RuleInput struct {
	Bundle signals.Bundle
	Class  models.Classification

	ConsecutiveLow    int
	PriorAttempts     int
	PriorAttemptTopic string
	AttemptKey        string

	Cfg config.EngineConfig
}

type rule struct {
	name   string
	reason models.ReasonCode
	fires  func(in RuleInput) bool
}

var rules = []rule{
	{"security_incident", models.ReasonSecurityIncident,
		func(in RuleInput) bool { return in.Bundle.SecurityIncident }},
	{"legal_compliance", models.ReasonLegalCompliance,
		func(in RuleInput) bool { return in.Bundle.LegalCompliance }},
	{"payment_refund", models.ReasonPaymentRefund,
		func(in RuleInput) bool { return in.Bundle.PaymentRefund }},
	{"pricing_negotiation", models.ReasonPricingNegotiation,
		func(in RuleInput) bool { return in.Bundle.Pricing }},
	{"human_requested", models.ReasonHumanRequested,
		func(in RuleInput) bool { return in.Bundle.HumanRequest }},
	{"churn_risk", models.ReasonChurnRisk,
		func(in RuleInput) bool { return in.Bundle.ChurnRisk }},
	{"sustained_negative_sentiment", models.ReasonSustainedNegativeSentiment,
		func(in RuleInput) bool {
			return in.Bundle.Sentiment < in.Cfg.SentimentThreshold &&
				in.ConsecutiveLow >= in.Cfg.SentimentWindow
		}},
	{"unresolved_after_retries", models.ReasonUnresolvedAfterRetries,
		func(in RuleInput) bool {
			if in.Class.Category != models.CategoryTechnical && in.Class.Category != models.CategoryGeneral {
				return false
			}
			return in.AttemptKey == in.PriorAttemptTopic &&
				in.PriorAttempts >= in.Cfg.MaxUnresolvedAttempts
		}},
	{"low_confidence_review", models.ReasonLowConfidenceReview,
		func(in RuleInput) bool { return in.Class.Confidence < in.Cfg.ConfidenceThreshold }},
}

// Evaluate walks the rule list in order and returns the decision for the
// first rule that fires. Insufficient content never escalates: an empty
// message is a clarification case, not an incident.
func Evaluate(in RuleInput) models.Decision {
	if in.Bundle.InsufficientContent {
		return models.Decision{Reason: models.ReasonNone}
	}
	for _, r := range rules {
		if r.fires(in) {
			return models.Decision{
				ShouldEscalate:   true,
				Reason:           r.reason,
				TriggeringSignal: r.name,
			}
		}
	}
	return models.Decision{Reason: models.ReasonNone}
}
