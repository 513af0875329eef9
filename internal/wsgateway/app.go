// internal/wsgateway/app.go
package wsgateway

import (
	"incidentcmd/pkg/authn"

	"go.uber.org/zap"
)

// App is the ws-service container: upgrades authenticated clients and keeps
// the per-org connection hub that the redis relay feeds.
type App struct {
	log      *zap.SugaredLogger
	verifier *authn.Verifier
	hub      *Hub
}

func New(log *zap.SugaredLogger, verifier *authn.Verifier, hub *Hub) *App {
	return &App{log: log, verifier: verifier, hub: hub}
}
