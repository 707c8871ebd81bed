package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"triaged/pkg/api/handlers"
	"triaged/pkg/ingest"
)

// Handler builds the JSON API router:
//   - POST /v1/interactions: submit an interaction, returns the decision
//   - GET  /v1/conversations/{id}: conversation with its interactions
//   - POST /v1/conversations/{id}/resolve: confirm resolution
//   - POST /v1/conversations/{id}/reopen: force a closed conversation open
//   - GET  /v1/customers/{id}: customer identity record
//   - GET  /v1/customers/{id}/history: the customer's conversations
//   - GET  /v1/decisions/{interactionID}: stored decision for an interaction
//   - GET  /admin/stats: store and lane counters
func Handler(lanes *ingest.Lanes) http.Handler {
	r := mux.NewRouter()
	handlers.SetLanes(lanes)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterInteractions(v1)
	handlers.RegisterConversations(v1)
	handlers.RegisterCustomers(v1)

	admin := r.PathPrefix("/admin").Subrouter()
	handlers.RegisterAdmin(admin)
	return r
}
