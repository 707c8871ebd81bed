package auth

import (
	"net"
	"net/http"
	"strings"

	"triaged/pkg/config"
	"triaged/pkg/logger"
	"triaged/pkg/utils"
)

// Role is the caller class derived from the presented API key.
type Role int

const (
	RoleUnauth Role = iota
	// RoleBackend keys may submit interactions and read triage state.
	RoleBackend
	// RoleAdmin keys additionally reach the /admin surface.
	RoleAdmin
)

// SecConfig is the resolved security configuration the middleware runs on.
type SecConfig struct {
	BackendKeys map[string]struct{}
	AdminKeys   map[string]struct{}
	RPS         float64
	Burst       int
}

// FromConfig builds the middleware config from the loaded app config.
func FromConfig(c *config.Config) SecConfig {
	sc := SecConfig{
		BackendKeys: make(map[string]struct{}),
		AdminKeys:   make(map[string]struct{}),
		RPS:         c.Security.RateLimit.RPS,
		Burst:       c.Security.RateLimit.Burst,
	}
	for _, k := range c.Security.APIKeys.Backend {
		sc.BackendKeys[k] = struct{}{}
	}
	for _, k := range c.Security.APIKeys.Admin {
		sc.AdminKeys[k] = struct{}{}
	}
	return sc
}

// Open reports whether no keys are configured at all; the API then runs
// unauthenticated (local/dev mode) and only rate limiting applies.
func (c SecConfig) Open() bool {
	return len(c.BackendKeys) == 0 && len(c.AdminKeys) == 0
}

// Middleware authenticates requests by API key and applies per-key rate
// limits. Health probes and metrics pass unauthenticated.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unauthPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			role, key := authenticate(r, cfg)
			if cfg.Open() {
				role = RoleBackend
				if strings.HasPrefix(r.URL.Path, "/admin") {
					role = RoleAdmin
				}
			}

			if role == RoleUnauth {
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
				logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
				return
			}
			if strings.HasPrefix(r.URL.Path, "/admin") && role != RoleAdmin {
				utils.JSONError(w, http.StatusForbidden, "forbidden")
				logger.Warn("request_forbidden", "path", r.URL.Path)
				return
			}
			if !limiters.Allow(key) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthPath(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics", "/openapi.yaml":
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/docs")
}

func authenticate(r *http.Request, cfg SecConfig) (Role, string) {
	// prefer authorization: bearer <key>, fallback to x-api-key
	auth := r.Header.Get("Authorization")
	var key string
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		key = strings.TrimSpace(auth[7:])
	}
	if key == "" {
		key = r.Header.Get("X-API-Key")
	}
	if key == "" {
		return RoleUnauth, clientIP(r)
	}
	if _, ok := cfg.AdminKeys[key]; ok {
		return RoleAdmin, key
	}
	if _, ok := cfg.BackendKeys[key]; ok {
		return RoleBackend, key
	}
	return RoleUnauth, key
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
