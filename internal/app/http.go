package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"triaged/pkg/api"
	"triaged/pkg/auth"
	"triaged/pkg/httpx"
	"triaged/pkg/logger"
	"triaged/pkg/store"
	"triaged/pkg/telemetry"
)

// serveHTTP assembles the router, wraps it in auth and telemetry middleware
// and serves it on the configured engine until ctx is cancelled.
func (a *App) serveHTTP(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", a.readyzHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/openapi.yaml")
	})
	mux.Handle("/", api.Handler(a.lanes))

	sec := auth.FromConfig(a.cfg)
	if sec.Open() {
		logger.Warn("auth_open_mode", "msg", "no API keys configured, all requests accepted")
	}
	handler := telemetry.Middleware(auth.Middleware(sec)(mux))

	srv := httpx.NewServer(a.cfg.Server.Engine, handler)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", a.cfg.Addr(), "engine", a.cfg.Server.Engine)
		errCh <- srv.ListenAndServe(a.cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("http_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http_shutdown_error", "error", err)
		}
		return nil
	}
}

// readyzHandler reports readiness: the store must be open and the lanes
// accepting work. Depth is included so operators can see backlog at a glance.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	type readiness struct {
		Ready     bool `json:"ready"`
		Store     bool `json:"store"`
		LaneDepth int  `json:"lane_depth"`
	}
	st := readiness{Store: store.Ready()}
	if a.lanes != nil {
		st.LaneDepth = a.lanes.Depth()
	}
	st.Ready = st.Store
	w.Header().Set("Content-Type", "application/json")
	if !st.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(st)
}
