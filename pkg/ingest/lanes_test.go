package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"triaged/pkg/config"
	"triaged/pkg/engine"
	"triaged/pkg/logger"
	"triaged/pkg/models"
	"triaged/pkg/store"
)

func newTestLanes(t *testing.T, workers, capacity int) *Lanes {
	t.Helper()
	logger.Init("error")
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	eng := engine.New(config.Defaults(), nil, nil)
	l := NewLanes(eng, workers, capacity)
	return l
}

func laneRec(id int, email, text string) models.InboundRecord {
	return models.InboundRecord{
		InteractionID: fmt.Sprintf("lane-%s-%d", email, id),
		Identifier:    models.Identifier{Type: models.IdentEmail, Value: email},
		Channel:       models.ChannelChat,
		Text:          text,
	}
}

func TestLanesProcessSync(t *testing.T) {
	l := newTestLanes(t, 4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	defer l.Close()

	out, err := l.Process(ctx, laneRec(1, "a@x.com", "i cannot login"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Category != models.CategoryTechnical {
		t.Fatalf("expected technical, got %s", out.Category)
	}
}

func TestLanesPerCustomerOrdering(t *testing.T) {
	l := newTestLanes(t, 8, 128)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	// Same identifier, many concurrent submitters: the interaction counter
	// must come out exact, which only holds if the lane serializes them.
	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Process(ctx, laneRec(i, "order@x.com", "checking on my invoice"))
			if err != nil {
				t.Errorf("process %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	l.Close()

	cid, ok, err := store.LookupIdentifier(models.IdentEmail, "order@x.com")
	if err != nil || !ok {
		t.Fatalf("customer not created: %v", err)
	}
	convID, ok, err := store.GetActiveConversation(cid)
	if err != nil || !ok {
		t.Fatalf("no active conversation: %v", err)
	}
	conv, err := store.GetConversation(convID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.InteractionCount != n {
		t.Fatalf("expected %d interactions counted, got %d", n, conv.InteractionCount)
	}
}

func TestLanesFullIsBackpressure(t *testing.T) {
	l := newTestLanes(t, 1, 1)
	// not started: the single slot fills and the next submit must fail fast

	if err := l.Submit(laneRec(1, "full@x.com", "hello")); err != nil {
		t.Fatalf("first submit should fit: %v", err)
	}
	err := l.Submit(laneRec(2, "full@x.com", "hello again"))
	if err != ErrLaneFull {
		t.Fatalf("expected ErrLaneFull, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	l.Close()
}

func TestLanesSubmitRacingCloseNeverPanics(t *testing.T) {
	l := newTestLanes(t, 4, 1024)
	// not started: only the enqueue/close handshake is under test

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; ; i++ {
				err := l.Submit(laneRec(i, fmt.Sprintf("race%d@x.com", g), "hello"))
				if errors.Is(err, ErrClosed) {
					return
				}
				if err != nil && !errors.Is(err, ErrLaneFull) {
					t.Errorf("unexpected submit error: %v", err)
					return
				}
			}
		}(g)
	}
	l.Close()
	wg.Wait()

	if err := l.Submit(laneRec(0, "late@x.com", "hello")); !errors.Is(err, ErrClosed) {
		t.Fatalf("submit after close must report closed, got %v", err)
	}
}

func TestLanesCloseDrains(t *testing.T) {
	l := newTestLanes(t, 2, 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	for i := 0; i < 10; i++ {
		if err := l.Submit(laneRec(i, "drain@x.com", "note about my invoice")); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	l.Close()

	cid, ok, err := store.LookupIdentifier(models.IdentEmail, "drain@x.com")
	if err != nil || !ok {
		t.Fatalf("customer not created: %v", err)
	}
	convID, ok, err := store.GetActiveConversation(cid)
	if err != nil || !ok {
		t.Fatalf("no active conversation: %v", err)
	}
	conv, err := store.GetConversation(convID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.InteractionCount != 10 {
		t.Fatalf("close must drain queued work, counted %d of 10", conv.InteractionCount)
	}
}
