package signals

import (
	"testing"

	"triaged/pkg/models"
)

func TestExtractSecurityAndLegal(t *testing.T) {
	b := Extract("We got a legal notice about a possible data breach", models.ChannelEmail)
	if !b.SecurityIncident {
		t.Fatalf("expected security signal")
	}
	if !b.LegalCompliance {
		t.Fatalf("expected legal signal")
	}
}

func TestExtractWordBoundary(t *testing.T) {
	b := Extract("this tool is legally free to use", models.ChannelChat)
	if b.LegalCompliance {
		t.Fatalf("'legally' should not trigger the legal signal")
	}
	b = Extract("we saw 1500 requests succeed", models.ChannelChat)
	if b.TechnicalIssue {
		t.Fatalf("'1500' should not trigger the 500 phrase")
	}
	b = Extract("we keep seeing 500 errors", models.ChannelChat)
	if !b.TechnicalIssue {
		t.Fatalf("expected technical signal for 500 errors")
	}
}

func TestExtractPaymentDispute(t *testing.T) {
	b := Extract("I was charged twice this month, please refund", models.ChannelEmail)
	if !b.PaymentRefund {
		t.Fatalf("expected payment signal")
	}
	if !b.Billing {
		t.Fatalf("expected billing signal")
	}
}

func TestExtractMixedToneNegativeWins(t *testing.T) {
	b := Extract("love the product but honestly this is getting frustrating", models.ChannelChat)
	if b.Sentiment >= 0.5 {
		t.Fatalf("mixed tone should land below neutral, got %v", b.Sentiment)
	}
	if !b.Ambiguous {
		t.Fatalf("mixed tone should set the ambiguity flag")
	}
}

func TestExtractPositiveTone(t *testing.T) {
	b := Extract("thanks, all good now", models.ChannelChat)
	if b.Sentiment <= 0.5 {
		t.Fatalf("expected positive sentiment, got %v", b.Sentiment)
	}
	if b.HitCount() != 0 {
		t.Fatalf("no taxonomy signals expected, got %v", b.Hits())
	}
}

func TestExtractInsufficientContent(t *testing.T) {
	b := Extract("   ", models.ChannelWebForm)
	if !b.InsufficientContent {
		t.Fatalf("expected insufficient content flag")
	}
	if b.Sentiment != 0.5 {
		t.Fatalf("empty text should stay neutral, got %v", b.Sentiment)
	}
}

func TestExtractDeterministic(t *testing.T) {
	const text = "app down, super frustrating, third time this week"
	a := Extract(text, models.ChannelChat)
	b := Extract(text, models.ChannelChat)
	if a.Sentiment != b.Sentiment || a.HitCount() != b.HitCount() {
		t.Fatalf("extraction must be deterministic")
	}
	if !a.CriticalBlocked || !a.Hostility {
		t.Fatalf("expected critical and hostility signals, got %v", a.Hits())
	}
}

func TestExtractTopics(t *testing.T) {
	b := Extract("my login is locked and the invoice looks wrong", models.ChannelEmail)
	want := map[string]bool{"access": true, "billing": true}
	for _, topic := range b.Topics {
		delete(want, topic)
	}
	if len(want) != 0 {
		t.Fatalf("missing topics %v in %v", want, b.Topics)
	}
}
