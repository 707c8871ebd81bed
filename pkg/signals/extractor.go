package signals

// The extractor turns a normalized interaction text into a deterministic
// signal bundle. No scoring thresholds live here; it only reports what the
// text contains. The classifier and decision rules interpret the bundle.

import (
	"sort"
	"strings"

	"triaged/pkg/models"
)

// Bundle is the full set of signals extracted from one interaction.
type Bundle struct {
	Channel models.Channel `json:"channel"`

	SecurityIncident bool `json:"security_incident"`
	LegalCompliance  bool `json:"legal_compliance"`
	PaymentRefund    bool `json:"payment_refund"`
	Pricing          bool `json:"pricing"`
	HumanRequest     bool `json:"human_request"`
	CriticalBlocked  bool `json:"critical_workflow_blocked"`
	ChurnRisk        bool `json:"churn_risk"`
	Hostility        bool `json:"hostility"`
	TechnicalIssue   bool `json:"technical_issue"`
	Billing          bool `json:"billing"`

	// Sentiment is on [0,1]; 0.5 is neutral.
	Sentiment float64 `json:"sentiment"`

	Ambiguous           bool     `json:"ambiguous"`
	InsufficientContent bool     `json:"insufficient_content"`
	Topics              []string `json:"topics,omitempty"`
}

// Hits returns the matched taxonomy signal names in a fixed order, for
// decision events and audit logs.
func (b Bundle) Hits() []string {
	var out []string
	add := func(on bool, name string) {
		if on {
			out = append(out, name)
		}
	}
	add(b.SecurityIncident, "security_incident")
	add(b.LegalCompliance, "legal_compliance")
	add(b.PaymentRefund, "payment_refund")
	add(b.Pricing, "pricing")
	add(b.HumanRequest, "human_request")
	add(b.CriticalBlocked, "critical_workflow_blocked")
	add(b.ChurnRisk, "churn_risk")
	add(b.Hostility, "hostility")
	add(b.TechnicalIssue, "technical_issue")
	add(b.Billing, "billing")
	return out
}

// HitCount returns how many taxonomy signals matched.
func (b Bundle) HitCount() int { return len(b.Hits()) }

// Extract analyzes the normalized text of one interaction. The same text
// always yields the same bundle.
func Extract(text string, channel models.Channel) Bundle {
	b := Bundle{Channel: channel, Sentiment: 0.5}
	t := normalize(text)
	if strings.TrimSpace(t) == "" {
		b.InsufficientContent = true
		return b
	}

	b.SecurityIncident = matchAny(t, securityPhrases)
	b.LegalCompliance = matchAny(t, legalPhrases)
	b.PaymentRefund = matchAny(t, paymentPhrases)
	b.Pricing = matchAny(t, pricingPhrases)
	b.HumanRequest = matchAny(t, humanRequestPhrases)
	b.CriticalBlocked = matchAny(t, criticalPhrases)
	b.ChurnRisk = matchAny(t, churnPhrases)
	b.Hostility = matchAny(t, hostilePhrases)
	b.TechnicalIssue = matchAny(t, technicalPhrases)
	b.Billing = matchAny(t, billingPhrases)
	b.Ambiguous = matchAny(t, ambiguousPhrases)

	pos := countMatches(t, positiveTonePhrases)
	neg := countMatches(t, negativeTonePhrases)
	switch {
	case pos > 0 && neg > 0:
		// Mixed tone: the negative pole wins and the message is flagged
		// ambiguous instead of averaging the poles away.
		b.Sentiment = clamp01(0.5 - 0.2*float64(neg))
		b.Ambiguous = true
	default:
		b.Sentiment = clamp01(0.5 + 0.2*float64(pos-neg))
	}

	for topic, phrases := range topicPhrases {
		if matchAny(t, phrases) {
			b.Topics = append(b.Topics, topic)
		}
	}
	sort.Strings(b.Topics)
	return b
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func matchAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}

func countMatches(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if containsPhrase(text, p) {
			n++
		}
	}
	return n
}

// containsPhrase reports whether phrase occurs in text bounded by
// non-alphanumeric runes, so "legal" never fires inside "legally" and "500"
// never fires inside "1500".
func containsPhrase(text, phrase string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		leftOK := i == 0 || !isWordByte(text[i-1])
		rightOK := end == len(text) || !isWordByte(text[end])
		if leftOK && rightOK {
			return true
		}
		start = i + 1
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z'
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
