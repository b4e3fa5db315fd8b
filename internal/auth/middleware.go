package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sentinel-access/sentinel/internal/authz"
	"github.com/sentinel-access/sentinel/internal/platform/httpx"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session_id"

const bearerPrefix = "Bearer "

// CredentialsFromRequest extracts the bearer token from the Authorization
// header and the session token from the cookie.
func CredentialsFromRequest(r *http.Request) Credentials {
	var creds Credentials
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		creds.BearerToken = strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		creds.SessionToken = cookie.Value
	}
	return creds
}

// Identification resolves the request identity and stores it in context.
// Requests without usable credentials proceed as anonymous; only storage
// failures abort the request.
func Identification(resolver *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.Resolve(r.Context(), CredentialsFromRequest(r))
			if err != nil {
				if logger != nil {
					logger.Error("resolve identity", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			ctx := authz.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
