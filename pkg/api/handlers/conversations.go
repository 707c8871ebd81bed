package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"triaged/pkg/logger"
	"triaged/pkg/memory"
	"triaged/pkg/models"
	"triaged/pkg/store"
	"triaged/pkg/utils"
)

// RegisterConversations registers conversation read and lifecycle routes.
func RegisterConversations(r *mux.Router) {
	r.HandleFunc("/conversations/{id}", getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/resolve", resolveConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/reopen", reopenConversation).Methods(http.MethodPost)
}

// getConversation handles GET /v1/conversations/{id}?limit=<n>.
func getConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conv, err := store.GetConversation(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	ints, err := store.ListInteractions(id, limit)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Conversation models.Conversation  `json:"conversation"`
		Interactions []models.Interaction `json:"interactions"`
	}{conv, ints})
}

// resolveConversation handles POST /v1/conversations/{id}/resolve. Resolving
// an already-resolved conversation is a no-op, not an error. The mutation
// runs under the customer stripe lock so it cannot interleave with a lane
// worker processing the same conversation.
func resolveConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conv, err := store.GetConversation(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	err = memory.WithCustomer(conv.CustomerID, func() error {
		conv, err = store.GetConversation(id)
		if err != nil {
			return err
		}
		if conv.Status == models.StatusResolved {
			return nil
		}
		if err := memory.Resolve(&conv, time.Now().UTC().UnixNano()); err != nil {
			return err
		}
		logger.Info("conversation_resolved", "conversation", id, "via", "api")
		return nil
	})
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, conv)
}

// reopenConversation handles POST /v1/conversations/{id}/reopen.
func reopenConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conv, err := store.GetConversation(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	var conflict bool
	err = memory.WithCustomer(conv.CustomerID, func() error {
		conv, err = store.GetConversation(id)
		if err != nil {
			return err
		}
		if conv.Status.Active() {
			conflict = true
			return nil
		}
		if err := memory.Reopen(&conv, time.Now().UTC().UnixNano()); err != nil {
			return err
		}
		logger.Info("conversation_reopened", "conversation", id, "via", "api")
		return nil
	})
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	if conflict {
		utils.JSONError(w, http.StatusConflict, "conversation already active")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, conv)
}

func writeStoreErr(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.JSONError(w, http.StatusInternalServerError, err.Error())
}
