package main

import (
	"context"
	"net/http"

	"incidentcmd/internal/resourceapi"
	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/authz"
	"incidentcmd/pkg/config"
	pdb "incidentcmd/pkg/db"
	"incidentcmd/pkg/logger"
	"incidentcmd/pkg/notify"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	var store resourceapi.Store
	if pool := pdb.MustConnect(cfg, log); pool != nil {
		if err := resourceapi.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("records schema", "err", err)
		}
		store = resourceapi.NewPostgresStore(pool, log)
	} else {
		store = resourceapi.NewMemoryStore()
	}

	var verifier *authn.Verifier
	if cfg.SigningMode == authn.ModeRS256 {
		keys := authn.NewKeyCache(cfg.JWKSURL, authn.WithKeyTTL(cfg.KeyCacheTTL))
		verifier = authn.NewVerifier(keys, cfg.SessionIssuer, authn.WithLeeway(cfg.ClockSkewLeeway))
	} else {
		if cfg.SessionSecret == "" {
			log.Fatalw("SESSION_SECRET not set", "mode", cfg.SigningMode)
		}
		verifier = authn.NewSymmetricVerifier([]byte(cfg.SessionSecret), cfg.SessionIssuer, authn.WithLeeway(cfg.ClockSkewLeeway))
	}

	gate := authz.NewFromFile(log, cfg.FlagModulePath)

	var notifier notify.Publisher = notify.NopPublisher{}
	if rdb := pdb.MustRedis(cfg, log); rdb != nil {
		notifier = notify.NewRedisPublisher(log, rdb)
	}

	app := resourceapi.New(log, store, verifier, gate, notifier)

	log.Infof("api-service listening at %s", cfg.APIAddr)
	if err := http.ListenAndServe(cfg.APIAddr, app.Handler()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
