// pkg/middleware/metrics.go
package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// VerificationsTotal counts session token checks by outcome.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icmd_session_verifications_total",
		Help: "Session token verification outcomes.",
	}, []string{"outcome"})

	// LoginsTotal counts issuance attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icmd_logins_total",
		Help: "Session issuance outcomes.",
	}, []string{"outcome"})
)

// MetricsHandler serves the prometheus registry.
func MetricsHandler() http.Handler { return promhttp.Handler() }
