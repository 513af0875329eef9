// internal/resourceapi/server.go
package resourceapi

import (
	"net/http"

	mw "incidentcmd/pkg/middleware"
	"incidentcmd/pkg/respond"

	"github.com/go-chi/chi/v5"
)

// Handler builds the HTTP handler with routes and middleware. Every
// resource route sits behind session verification and the org-scope check.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID(), mw.Recover(a.log), mw.Tracing("api-service"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Method(http.MethodGet, "/metrics", mw.MetricsHandler())

	r.Route("/{type}", func(rr chi.Router) {
		rr.Use(mw.SessionAuth(a.log, a.verifier))
		rr.Use(mw.RequireOrg)
		rr.Use(a.checkType)
		rr.Get("/", a.list)
		rr.Post("/", a.create)
		rr.Get("/{id}", a.get)
		rr.Put("/{id}", a.update)
		rr.Delete("/{id}", a.delete)
	})

	return r
}

func (a *App) checkType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !knownType(chi.URLParam(r, "type")) {
			respond.Error(w, http.StatusNotFound, "Unknown resource type")
			return
		}
		next.ServeHTTP(w, r)
	})
}
