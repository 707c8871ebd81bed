package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"triaged/pkg/config"
	"triaged/pkg/engine"
	"triaged/pkg/ingest"
	"triaged/pkg/logger"
	"triaged/pkg/models"
	"triaged/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger.Init("error")
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	eng := engine.New(config.Defaults(), nil, nil)
	lanes := ingest.NewLanes(eng, 2, 64)
	ctx, cancel := context.WithCancel(context.Background())
	lanes.Start(ctx)

	srv := httptest.NewServer(Handler(lanes))
	t.Cleanup(func() {
		srv.Close()
		lanes.Close()
		cancel()
		_ = store.Close()
	})
	return srv
}

var apiSeq int

func postInteraction(t *testing.T, srv *httptest.Server, email, text string) (int, models.OutputRecord) {
	t.Helper()
	apiSeq++
	body, _ := json.Marshal(map[string]any{
		"interaction_id":      fmt.Sprintf("api-%d", apiSeq),
		"channel":             "email",
		"customer_identifier": map[string]string{"type": "email", "value": email},
		"text":                text,
	})
	resp, err := http.Post(srv.URL+"/v1/interactions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out models.OutputRecord
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestPostInteractionReturnsDecision(t *testing.T) {
	srv := newTestServer(t)
	code, out := postInteraction(t, srv, "api-a@x.com", "I was charged twice this month, please refund")
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if !out.ShouldEscalate || out.Reason != models.ReasonPaymentRefund {
		t.Fatalf("unexpected decision: %+v", out)
	}
}

func TestPostInteractionRejectsBadChannel(t *testing.T) {
	srv := newTestServer(t)
	body := []byte(`{"interaction_id":"x1","channel":"fax",` +
		`"customer_identifier":{"type":"email","value":"a@x.com"},"text":"hi"}`)
	resp, err := http.Post(srv.URL+"/v1/interactions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPostDuplicateInteractionReplays(t *testing.T) {
	srv := newTestServer(t)
	body := []byte(`{"interaction_id":"dup-1","channel":"chat",` +
		`"customer_identifier":{"type":"email","value":"dup@x.com"},"text":"i cannot login"}`)
	for i, want := range []int{http.StatusCreated, http.StatusOK} {
		resp, err := http.Post(srv.URL+"/v1/interactions", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
		var out models.OutputRecord
		_ = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("post %d: expected %d, got %d", i, want, resp.StatusCode)
		}
		if i == 1 && !out.Replayed {
			t.Fatalf("second submission should be marked replayed")
		}
	}
}

func TestConversationLifecycleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	_, out := postInteraction(t, srv, "life@x.com", "my invoice looks wrong")

	resp, err := http.Get(srv.URL + "/v1/conversations/" + out.ConversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	var got struct {
		Conversation models.Conversation  `json:"conversation"`
		Interactions []models.Interaction `json:"interactions"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(got.Interactions) != 1 {
		t.Fatalf("unexpected conversation payload: %d %+v", resp.StatusCode, got)
	}

	resp, err = http.Post(srv.URL+"/v1/conversations/"+out.ConversationID+"/resolve", "application/json", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/v1/conversations/"+out.ConversationID+"/reopen", "application/json", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reopen: expected 200, got %d", resp.StatusCode)
	}

	// reopening an active conversation conflicts
	resp, _ = http.Post(srv.URL+"/v1/conversations/"+out.ConversationID+"/reopen", "application/json", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on double reopen, got %d", resp.StatusCode)
	}
}

func TestCustomerEndpoints(t *testing.T) {
	srv := newTestServer(t)
	_, out := postInteraction(t, srv, "cust@x.com", "hello there")

	resp, err := http.Get(srv.URL + "/v1/customers/" + out.CustomerID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	var cust struct {
		Customer           models.Customer `json:"customer"`
		ActiveConversation string          `json:"active_conversation"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&cust)
	resp.Body.Close()
	if cust.Customer.ID != out.CustomerID || cust.ActiveConversation != out.ConversationID {
		t.Fatalf("unexpected customer payload: %+v", cust)
	}

	resp, err = http.Get(srv.URL + "/v1/customers/" + out.CustomerID + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	var hist struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&hist)
	resp.Body.Close()
	if len(hist.Conversations) != 1 {
		t.Fatalf("expected one conversation in history, got %d", len(hist.Conversations))
	}

	resp, _ = http.Get(srv.URL + "/v1/customers/nope")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown customer, got %d", resp.StatusCode)
	}
}

func TestDecisionLookupAndAdminStats(t *testing.T) {
	srv := newTestServer(t)
	_, out := postInteraction(t, srv, "stats@x.com", "we got hacked")

	resp, err := http.Get(srv.URL + "/v1/decisions/" + out.InteractionID)
	if err != nil {
		t.Fatalf("get decision: %v", err)
	}
	var rec models.DecisionRecord
	_ = json.NewDecoder(resp.Body).Decode(&rec)
	resp.Body.Close()
	if rec.Output.Reason != models.ReasonSecurityIncident {
		t.Fatalf("unexpected decision record: %+v", rec)
	}

	resp, err = http.Get(srv.URL + "/admin/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	var st struct {
		Store struct {
			Customers int `json:"customers"`
			Decisions int `json:"decisions"`
		} `json:"store"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&st)
	resp.Body.Close()
	if st.Store.Customers < 1 || st.Store.Decisions < 1 {
		t.Fatalf("stats should count stored entities: %+v", st)
	}
}
