package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/response"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
)

type contextKey string

const claimsContextKey contextKey = "session_claims"

// BearerToken pulls the token out of the Authorization header. The scheme
// match is case-insensitive.
func BearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// RequireSession verifies the bearer session and stores the claims on the
// request context. Missing, malformed and expired tokens all read as 401.
func RequireSession(codec *security.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
				return
			}
			claims, err := codec.Verify(token)
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
				return
			}
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), claimsContextKey, claims)))
		})
	}
}

// ClaimsFromContext returns the verified session claims, or nil outside
// RequireSession.
func ClaimsFromContext(ctx context.Context) *security.SessionClaims {
	claims, _ := ctx.Value(claimsContextKey).(*security.SessionClaims)
	return claims
}
