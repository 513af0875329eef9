package main

import (
	"context"
	"net/http"

	"incidentcmd/internal/authapi"
	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/authz"
	"incidentcmd/pkg/config"
	pdb "incidentcmd/pkg/db"
	"incidentcmd/pkg/logger"
	"incidentcmd/pkg/orgs"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	var store orgs.Store
	if pool := pdb.MustConnect(cfg, log); pool != nil {
		if err := orgs.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("org schema", "err", err)
		}
		store = orgs.NewPostgresStore(pool, log)
	} else if cfg.OrgSeedFile != "" {
		s, err := orgs.NewMemoryStoreFromSeed(log, cfg.OrgSeedFile)
		if err != nil {
			log.Fatalw("org seed", "path", cfg.OrgSeedFile, "err", err)
		}
		store = s
	} else {
		store = orgs.NewMemoryStore(log)
	}

	issuer, err := authn.NewSessionIssuer(cfg)
	if err != nil {
		log.Fatalw("session issuer", "mode", cfg.SigningMode, "err", err)
	}

	var verifier *authn.Verifier
	if cfg.SigningMode == authn.ModeRS256 {
		keys := authn.NewKeyCache(cfg.JWKSURL, authn.WithKeyTTL(cfg.KeyCacheTTL))
		verifier = authn.NewVerifier(keys, cfg.SessionIssuer, authn.WithLeeway(cfg.ClockSkewLeeway))
	} else {
		verifier = authn.NewSymmetricVerifier([]byte(cfg.SessionSecret), cfg.SessionIssuer, authn.WithLeeway(cfg.ClockSkewLeeway))
	}

	gate := authz.NewFromFile(log, cfg.FlagModulePath)

	googleKeys := authn.NewKeyCache(cfg.GoogleJWKSURL,
		authn.WithKeyTTL(cfg.KeyCacheTTL),
		authn.WithFetchTimeout(cfg.GoogleTimeout))
	providers := map[string]authn.Provider{
		"google": authn.NewGoogleProvider(log, googleKeys, store, cfg.GoogleIssuers,
			authn.WithGoogleRetries(cfg.GoogleRetries)),
	}

	app := authapi.New(log, cfg, store, issuer, verifier, gate, providers)

	log.Infof("auth-service listening at %s", cfg.AuthAddr)
	if err := http.ListenAndServe(cfg.AuthAddr, app.Handler()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
