package middleware

import (
	"fmt"
	"net/http"
	"strings"
)

// Keys holds the API keys the monitor accepts. Public keys may read the
// incident/check surface and attach to /stream; admin keys may also mutate
// incidents. Either gate is disabled when its key list is empty, so local
// development runs unauthenticated.
type Keys struct {
	Public []string
	Admin  []string
}

func (k Keys) anyConfigured() bool {
	return len(k.Public) > 0 || len(k.Admin) > 0
}

// apiKey extracts the presented key: "Authorization: Bearer <key>" wins,
// X-API-Key is the fallback the dashboard uses.
func apiKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func keyIn(key string, set []string) bool {
	if key == "" {
		return false
	}
	for _, k := range set {
		if k == key {
			return true
		}
	}
	return false
}

// reject writes the same JSON error shape the API handlers use.
func reject(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":%q}`, msg)
}

// RequireAny admits requests presenting any configured key (public or admin).
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !keys.anyConfigured() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := apiKey(r)
			if keyIn(k, keys.Public) || keyIn(k, keys.Admin) {
				next.ServeHTTP(w, r)
				return
			}
			reject(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

// RequireAdmin admits only requests presenting an admin key.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys.Admin) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyIn(apiKey(r), keys.Admin) {
				next.ServeHTTP(w, r)
				return
			}
			reject(w, http.StatusForbidden, "forbidden")
		})
	}
}
