// internal/authapi/app.go
package authapi

import (
	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/authz"
	"incidentcmd/pkg/config"
	"incidentcmd/pkg/orgs"

	"go.uber.org/zap"
)

// App is the auth-service application container: session issuance, JWKS
// publication and organization administration.
//
// Keep it lean: shared deps and config only. Request-scoped work should
// use context.
type App struct {
	log       *zap.SugaredLogger
	cfg       config.Config
	orgs      orgs.Store
	issuer    *authn.SessionIssuer
	verifier  *authn.Verifier
	gate      authz.Authorizer
	providers map[string]authn.Provider
}

// New constructs App. providers maps the login request's provider name to
// an identity adapter; google is the only one registered today.
func New(log *zap.SugaredLogger, cfg config.Config, store orgs.Store, issuer *authn.SessionIssuer, verifier *authn.Verifier, gate authz.Authorizer, providers map[string]authn.Provider) *App {
	return &App{
		log:       log,
		cfg:       cfg,
		orgs:      store,
		issuer:    issuer,
		verifier:  verifier,
		gate:      gate,
		providers: providers,
	}
}
