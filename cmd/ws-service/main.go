package main

import (
	"context"
	"net/http"

	"incidentcmd/internal/wsgateway"
	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/config"
	pdb "incidentcmd/pkg/db"
	"incidentcmd/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

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

	hub := wsgateway.NewHub(log)
	app := wsgateway.New(log, verifier, hub)

	if rdb := pdb.MustRedis(cfg, log); rdb != nil {
		go hub.Run(context.Background(), rdb)
	} else {
		log.Warnw("REDIS_URL not set; websocket clients will receive no change notices")
	}

	log.Infof("ws-service listening at %s", cfg.WSAddr)
	if err := http.ListenAndServe(cfg.WSAddr, app.Handler()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
