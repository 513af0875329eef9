// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	AuthAddr string // auth-service
	APIAddr  string // api-service
	WSAddr   string // ws-service

	// Session token issuance & verification
	SessionIssuer        string
	SessionTTL           time.Duration
	SigningMode          string // hs256 | rs256
	SessionSecret        string // hs256 shared secret
	SessionPrivateKeyPEM string // rs256 signing key (PEM)
	PreviousPublicKeyPEM string // rotation window: previous public key (PEM)
	JWKSURL              string // where session tokens are verified from
	KeyCacheTTL          time.Duration
	ClockSkewLeeway      time.Duration

	// External identity provider (Google)
	GoogleJWKSURL string
	GoogleIssuers []string
	GoogleTimeout time.Duration
	GoogleRetries int

	// Authorization flags
	FlagModulePath string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string

	// Dev bootstrap
	OrgSeedFile string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                  env("ICMD_ENV", "dev"),
		AuthAddr:             env("AUTH_HTTP_ADDR", ":8080"),
		APIAddr:              env("API_HTTP_ADDR", ":8081"),
		WSAddr:               env("WS_HTTP_ADDR", ":8082"),
		SessionIssuer:        env("SESSION_ISSUER", "incident-cmd-backend"),
		SessionTTL:           envDur("SESSION_TTL_SEC", 3600) * time.Second,
		SigningMode:          env("SESSION_SIGNING_MODE", "hs256"),
		SessionSecret:        env("SESSION_SECRET", ""),
		SessionPrivateKeyPEM: env("SESSION_PRIVATE_KEY_PEM", ""),
		PreviousPublicKeyPEM: env("SESSION_PREVIOUS_PUBLIC_KEY_PEM", ""),
		JWKSURL:              env("JWKS_URL", ""),
		KeyCacheTTL:          envDur("KEY_CACHE_TTL_SEC", 300) * time.Second,
		ClockSkewLeeway:      envDur("CLOCK_SKEW_LEEWAY_SEC", 3) * time.Second,
		GoogleJWKSURL:        env("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
		GoogleIssuers:        envList("GOOGLE_ALLOWED_ISSUERS", "accounts.google.com,https://accounts.google.com"),
		GoogleTimeout:        envDur("GOOGLE_TIMEOUT_SEC", 5) * time.Second,
		GoogleRetries:        envInt("GOOGLE_MAX_RETRIES", 3),
		FlagModulePath:       env("FLAG_MODULE_PATH", ""),
		RedisURL:             env("REDIS_URL", ""),
		DatabaseURL:          env("DATABASE_URL", ""),
		OrgSeedFile:          env("ORG_SEED_FILE", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set; using in-memory stores for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
func envList(k, def string) []string {
	v := os.Getenv(k)
	if v == "" {
		v = def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
