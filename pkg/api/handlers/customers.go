package handlers

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"triaged/pkg/models"
	"triaged/pkg/store"
	"triaged/pkg/utils"
)

// RegisterCustomers registers customer identity and history routes.
func RegisterCustomers(r *mux.Router) {
	r.HandleFunc("/customers/{id}", getCustomer).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}/history", getCustomerHistory).Methods(http.MethodGet)
}

// getCustomer handles GET /v1/customers/{id}.
func getCustomer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cust, err := store.GetCustomer(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	activeID, _, err := store.GetActiveConversation(id)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Customer           models.Customer `json:"customer"`
		ActiveConversation string          `json:"active_conversation,omitempty"`
	}{cust, activeID})
}

// getCustomerHistory handles GET /v1/customers/{id}/history, returning the
// customer's conversations newest first.
func getCustomerHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := store.GetCustomer(id); err != nil {
		writeStoreErr(w, err)
		return
	}
	all, err := store.ListConversations()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	convs := make([]models.Conversation, 0)
	for _, c := range all {
		if c.CustomerID == id {
			convs = append(convs, c)
		}
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].CreatedTS > convs[j].CreatedTS })
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		CustomerID    string                `json:"customer_id"`
		Conversations []models.Conversation `json:"conversations"`
	}{id, convs})
}
