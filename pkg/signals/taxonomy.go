package signals

// Curated phrase sets per taxonomy category. Matching is phrase-level with
// word boundaries, so "legal" does not fire inside "legally".

var securityPhrases = []string{
	"security", "unauthorized", "hacked", "suspicious login", "data breach",
	"signature validation", "signatures look weak", "compromised",
}

var legalPhrases = []string{
	"legal", "gdpr", "compliance", "dpa", "retention policy", "lawyer",
	"legal notice", "lawsuit", "sue",
}

var paymentPhrases = []string{
	"charged twice", "duplicate payment", "refund", "chargeback",
	"payment dispute", "refund pending", "double charged",
}

var pricingPhrases = []string{
	"discount", "pricing negotiation", "annual discount", "custom contract",
	"pricing", "price match",
}

var humanRequestPhrases = []string{
	"manager", "human agent", "speak to a human", "real person",
	"talk to someone",
}

var criticalPhrases = []string{
	"app down", "outage", "cannot operate", "business critical",
	"operations are blocked", "cannot respond to customers", "account locked",
}

var churnPhrases = []string{
	"competitor", "switching", "move spend", "terminate", "migrate",
	"another vendor", "cancel our subscription", "pause rollout",
}

var hostilePhrases = []string{
	"unacceptable", "disappointed", "ridiculous", "useless", "ruined",
	"angry", "fix now", "super frustrating", "extremely frustrating",
	"really frustrating", "third time", "no one solved",
}

var technicalPhrases = []string{
	"error", "bug", "failing", "failed", "cannot", "can not", "cant",
	"not working", "down", "outage", "locked", "access", "latency", "500",
	"login", "upload", "webhook", "freeze", "crash", "timeout", "broken",
	"integration", "token", "api key", "password", "reset", "sync",
}

var billingPhrases = []string{
	"invoice", "charged", "charge", "billing", "payment", "vat",
	"line item", "receipt", "subscription fee",
}

// Ambiguity markers: slang and indirect phrasing that reduces deterministic
// parsing.
var ambiguousPhrases = []string{
	"acting up", "vibes are bad", "seems off", "lol", "mostly okay",
	"side note", "thing is", "kind of", "sort of", "not sure",
}

var positiveTonePhrases = []string{
	"love", "great product", "all good", "thanks", "thank you", "kind",
	"helpful", "great", "good",
}

var negativeTonePhrases = []string{
	"unacceptable", "ridiculous", "frustrating", "angry", "lawsuit", "sue",
	"ruined", "hacked", "lawyer", "terminate", "competitor", "disappointed",
	"useless", "worst",
}

// topicPhrases maps conversation topics to their detection phrases. Topics,
// not raw text, are what conversation memory accumulates.
var topicPhrases = map[string][]string{
	"billing":         {"billing", "charged", "refund", "invoice", "payment", "vat"},
	"security":        {"security", "hacked", "unauthorized", "data breach"},
	"access":          {"login", "locked", "password", "access", "token"},
	"reliability":     {"outage", "down", "latency", "500", "freeze", "failing", "crash"},
	"feature_request": {"feature request", "please add", "would be nice", "bulk close"},
}
