package httpx

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

type fastHTTPServer struct {
	srv *fasthttp.Server
}

func newFastHTTPServer(h http.Handler) Server {
	return &fastHTTPServer{srv: &fasthttp.Server{
		Handler: fasthttpadaptor.NewFastHTTPHandler(h),
		Name:    "triaged",
	}}
}

func (s *fastHTTPServer) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

func (s *fastHTTPServer) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.srv.Shutdown() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
