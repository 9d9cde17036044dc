package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthAPIKey AuthMode = "apikey"
	AuthBearer AuthMode = "bearer"
)

// AuthConfig describes the credential a request must carry. With
// AnonymousReads set, GET and HEAD pass without one so the task page can be
// viewed while its form actions stay guarded.
type AuthConfig struct {
	Mode           AuthMode
	APIKey         string
	BearerToken    string
	SkipPaths      []string
	AnonymousReads bool
}

// Enabled reports whether requests need a credential at all.
func (c AuthConfig) Enabled() bool {
	return c.Mode != "" && c.Mode != AuthNone
}

func (c AuthConfig) authorized(r *http.Request) bool {
	switch c.Mode {
	case AuthAPIKey:
		// X-API-Key: <key>
		return constantTimeEq(r.Header.Get("X-API-Key"), c.APIKey)
	case AuthBearer:
		// Authorization: Bearer <token>
		authz := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authz, "Bearer ")
		return ok && constantTimeEq(strings.TrimSpace(token), c.BearerToken)
	}
	return true
}

func (c AuthConfig) challenge() string {
	if c.Mode == AuthAPIKey {
		return `ApiKey realm="tasklist", header="X-API-Key"`
	}
	return `Bearer realm="tasklist"`
}

type authErr struct {
	Error string `json:"error"`
}

func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, skipped := skip[r.URL.Path]
			switch {
			case skipped, r.Method == http.MethodOptions: // preflight carries no credentials
			case cfg.AnonymousReads && !mutating(r.Method):
			case !cfg.authorized(r):
				unauthorized(w, cfg.challenge())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func constantTimeEq(a, b string) bool {
	if b == "" || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func unauthorized(w http.ResponseWriter, challenge string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", challenge)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(authErr{Error: "unauthorized"})
}
