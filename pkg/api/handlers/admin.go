package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"triaged/pkg/store"
	"triaged/pkg/utils"
)

// RegisterAdmin registers the operational endpoints.
func RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/stats", getStats).Methods(http.MethodGet)
	r.HandleFunc("/pending", listPending).Methods(http.MethodGet)
}

// getStats handles GET /admin/stats.
func getStats(w http.ResponseWriter, r *http.Request) {
	st, err := store.CountStats()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	depth := 0
	if lanes != nil {
		depth = lanes.Depth()
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Store     store.Stats `json:"store"`
		LaneDepth int         `json:"lane_depth"`
	}{st, depth})
}

// listPending handles GET /admin/pending: escalations whose handoff has not
// been delivered yet.
func listPending(w http.ResponseWriter, r *http.Request) {
	recs, err := store.ListPendingHandoffs()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, recs)
}
