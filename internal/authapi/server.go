// internal/authapi/server.go
package authapi

import (
	"net/http"

	mw "incidentcmd/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID(), mw.Recover(a.log), mw.Tracing("auth-service"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Method(http.MethodGet, "/metrics", mw.MetricsHandler())

	// Public: issuance and key publication.
	r.Post("/auth/login", a.login)
	r.Get("/auth/.well-known/jwks.json", a.publishJWKS)

	// Organization admin requires a verified session.
	r.Route("/orgs", func(or chi.Router) {
		or.Use(mw.SessionAuth(a.log, a.verifier))
		or.Get("/{org_id}", a.getOrg)
		or.Get("/aud/{aud}", a.getOrgByAud)
		or.Post("/", a.createOrg)
		or.Put("/{org_id}", a.updateOrg)
		or.Delete("/{org_id}", a.deleteOrg)
	})

	return r
}
