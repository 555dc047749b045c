package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/claudekit/nudge/internal/auth"
)

// BearerToken returns middleware that admits only requests presenting token
// as a Bearer credential.
func BearerToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				challenge(w, "missing Authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				challenge(w, "invalid Authorization header format")
				return
			}

			if !auth.Matches(token, strings.TrimSpace(parts[1])) {
				slog.Debug("bearer token rejected", "remote", r.RemoteAddr)
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func challenge(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="nudge"`)
	http.Error(w, msg, http.StatusUnauthorized)
}
