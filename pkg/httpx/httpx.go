package httpx

import (
	"context"
	"net/http"
)

// Server is the listen/serve engine behind the API. Both engines serve the
// same router; fasthttp trades a few net/http niceties for lower allocation
// on the hot ingestion path.
type Server interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

// NewServer selects the engine by name ("nethttp" is the default).
func NewServer(engine string, h http.Handler) Server {
	if engine == "fasthttp" {
		return newFastHTTPServer(h)
	}
	return newNetHTTPServer(h)
}
