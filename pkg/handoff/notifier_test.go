package handoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"triaged/pkg/logger"
	"triaged/pkg/models"
)

type flakyNotifier struct {
	failures int
	calls    int
}

func (f *flakyNotifier) Notify(_ context.Context, _ models.HandoffPayload) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("downstream unavailable")
	}
	return nil
}

func opts() Options {
	return Options{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestDeliverFirstTry(t *testing.T) {
	logger.Init("error")
	n := &flakyNotifier{}
	st, err := Deliver(context.Background(), n, models.HandoffPayload{CustomerID: "c"}, opts())
	if err != nil || st != models.DeliveryDelivered {
		t.Fatalf("expected delivered, got %s err=%v", st, err)
	}
	if n.calls != 1 {
		t.Fatalf("expected one call, got %d", n.calls)
	}
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	logger.Init("error")
	n := &flakyNotifier{failures: 1}
	st, err := Deliver(context.Background(), n, models.HandoffPayload{CustomerID: "c"}, opts())
	if err != nil || st != models.DeliveryDelivered {
		t.Fatalf("expected delivered after retry, got %s err=%v", st, err)
	}
	if n.calls != 2 {
		t.Fatalf("expected two calls, got %d", n.calls)
	}
}

func TestDeliverExhaustionIsPendingNotFatal(t *testing.T) {
	logger.Init("error")
	n := &flakyNotifier{failures: 10}
	st, err := Deliver(context.Background(), n, models.HandoffPayload{CustomerID: "c"}, opts())
	if st != models.DeliveryPending {
		t.Fatalf("expected pending, got %s", st)
	}
	if err == nil {
		t.Fatalf("exhaustion should report the last failure")
	}
	if n.calls != 2 {
		t.Fatalf("retry budget is 2, got %d calls", n.calls)
	}
}

func TestDeliverRespectsContext(t *testing.T) {
	logger.Init("error")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := &flakyNotifier{failures: 10}
	st, err := Deliver(ctx, n, models.HandoffPayload{}, opts())
	if st != models.DeliveryPending || err == nil {
		t.Fatalf("cancelled context should end pending, got %s err=%v", st, err)
	}
}
