// pkg/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/claims"
	"incidentcmd/pkg/respond"

	"go.uber.org/zap"
)

// SessionAuth validates the bearer session token and attaches typed claims
// to the request context. A missing or invalid token is terminal for the
// request: 401 with the generic body, no anonymous fallback.
func SessionAuth(log *zap.SugaredLogger, verifier *authn.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health, metrics and well-known endpoints stay public.
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" ||
				strings.HasPrefix(r.URL.Path, "/.well-known/") {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := BearerToken(r)
			if !ok {
				VerificationsTotal.WithLabelValues("missing").Inc()
				respond.Unauthorized(w)
				return
			}
			c, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				// Sub-cause goes to the log only; the client gets the
				// generic body whatever failed.
				log.Warnw("session verification failed", "code", authn.CodeOf(err), "err", err)
				VerificationsTotal.WithLabelValues(string(authn.CodeOf(err))).Inc()
				respond.Unauthorized(w)
				return
			}
			VerificationsTotal.WithLabelValues("ok").Inc()
			next.ServeHTTP(w, r.WithContext(claims.WithContext(r.Context(), c)))
		})
	}
}

// BearerToken extracts the token from the Authorization header
// (case-insensitive scheme match). ok is false when absent or malformed.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(authz[len("Bearer "):])
	if tok == "" {
		return "", false
	}
	return tok, true
}

// RequireOrg rejects authenticated requests whose claims carry no tenant
// scope. This is the multi-tenant isolation boundary, enforced uniformly
// in front of every resource handler.
func RequireOrg(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := claims.FromContext(r.Context())
		if !ok || !c.HasOrg() {
			respond.Forbidden(w, "Missing organization scope")
			return
		}
		next.ServeHTTP(w, r)
	})
}
