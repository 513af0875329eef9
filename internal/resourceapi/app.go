// internal/resourceapi/app.go
package resourceapi

import (
	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/authz"
	"incidentcmd/pkg/notify"

	"go.uber.org/zap"
)

// App is the api-service container: the uniform org-scoped record manager
// behind volunteers, incidents, periods, units, radios, locations and
// activity logs.
type App struct {
	log      *zap.SugaredLogger
	store    Store
	verifier *authn.Verifier
	gate     authz.Authorizer
	notifier notify.Publisher
}

func New(log *zap.SugaredLogger, store Store, verifier *authn.Verifier, gate authz.Authorizer, notifier notify.Publisher) *App {
	return &App{log: log, store: store, verifier: verifier, gate: gate, notifier: notifier}
}
