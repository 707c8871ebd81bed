package httpx

import (
	"context"
	"net/http"
	"time"
)

type netHTTPServer struct {
	srv *http.Server
}

func newNetHTTPServer(h http.Handler) Server {
	return &netHTTPServer{srv: &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

func (s *netHTTPServer) ListenAndServe(addr string) error {
	s.srv.Addr = addr
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *netHTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
