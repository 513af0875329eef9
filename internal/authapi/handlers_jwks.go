// internal/authapi/handlers_jwks.go
package authapi

import (
	"net/http"

	"incidentcmd/pkg/respond"
)

// publishJWKS serves the session verification keys: the current public key
// plus the immediately-previous one, so tokens signed before a rotation
// stay verifiable for their lifetime.
func (a *App) publishJWKS(w http.ResponseWriter, r *http.Request) {
	set, err := a.issuer.PublicKeySet()
	if err != nil {
		a.log.Errorw("jwks publication failed", "err", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to publish JWKS")
		return
	}
	respond.JSON(w, http.StatusOK, set)
}
