package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/54b3r/docrag/internal/logging"
)

// bearerChallenge is sent with every 401 response.
const bearerChallenge = `Bearer realm="docrag"`

// requireAPIKey wraps next so that it only runs for requests carrying
// "Authorization: Bearer <apiKey>". An empty apiKey disables the check; New
// logs a warning once when that happens.
//
// Rejected requests get a JSON 401 with a WWW-Authenticate challenge. The
// presented token is never logged.
func requireAPIKey(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	want := []byte(apiKey)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		token := bearerToken(r)
		switch {
		case token == "":
			log.Warn("auth: missing bearer token", slog.String("path", r.URL.Path))
			w.Header().Set("WWW-Authenticate", bearerChallenge)
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		case subtle.ConstantTimeCompare([]byte(token), want) != 1:
			log.Warn("auth: invalid bearer token", slog.String("path", r.URL.Path))
			w.Header().Set("WWW-Authenticate", bearerChallenge+` error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
