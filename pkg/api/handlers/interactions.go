package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"triaged/pkg/ingest"
	"triaged/pkg/models"
	"triaged/pkg/store"
	"triaged/pkg/utils"
	"triaged/pkg/validation"
)

var lanes *ingest.Lanes

// SetLanes wires the processing lanes the handlers submit into.
func SetLanes(l *ingest.Lanes) { lanes = l }

// RegisterInteractions registers interaction submission and decision lookup.
func RegisterInteractions(r *mux.Router) {
	r.HandleFunc("/interactions", createInteraction).Methods(http.MethodPost)
	r.HandleFunc("/decisions/{id}", getDecision).Methods(http.MethodGet)
}

// createInteraction handles POST /v1/interactions. The interaction is
// processed synchronously on its customer's lane and the decision returned.
func createInteraction(w http.ResponseWriter, r *http.Request) {
	var rec models.InboundRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.CheckInbound(&rec); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := lanes.Process(r.Context(), rec)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrIdentityConflict):
		utils.JSONError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ingest.ErrLaneFull), errors.Is(err, ingest.ErrClosed):
		utils.JSONError(w, http.StatusServiceUnavailable, "engine busy, retry later")
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	_ = utils.JSONWrite(w, status, out)
}

// getDecision handles GET /v1/decisions/{id}.
func getDecision(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok, err := store.GetDecision(id)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "decision not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, rec)
}
