// internal/authapi/handlers_login.go
package authapi

import (
	"encoding/json"
	"net/http"

	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/claims"
	mw "incidentcmd/pkg/middleware"
	"incidentcmd/pkg/respond"
)

type loginRequest struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

type loginUser struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	Picture    string `json:"picture,omitempty"`
	OrgID      string `json:"org_id"`
	OrgName    string `json:"org_name"`
	HD         string `json:"hd,omitempty"`
	IsAdmin    bool   `json:"is_admin"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

// login exchanges an external identity token for a session token.
// The user object in the response excludes internal-only fields (sub).
func (a *App) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		respond.Error(w, http.StatusBadRequest, "Missing token")
		return
	}
	if req.Provider == "" {
		req.Provider = "google"
	}
	provider, ok := a.providers[req.Provider]
	if !ok {
		respond.Error(w, http.StatusBadRequest, "Unsupported provider: "+req.Provider)
		return
	}

	identity, err := provider.Authenticate(r.Context(), req.Token)
	if err != nil {
		a.log.Warnw("external authentication failed", "provider", req.Provider, "code", authn.CodeOf(err), "err", err)
		mw.LoginsTotal.WithLabelValues("denied").Inc()
		if authn.CodeOf(err) == authn.ErrCodeAudienceUnknown {
			// Tenant resolution is a registration problem, not a
			// credential problem; the descriptive message is safe.
			respond.Error(w, http.StatusUnauthorized, "No organization found for this audience (aud)")
			return
		}
		respond.Unauthorized(w)
		return
	}

	// Admin flag is evaluated once at issuance and stamped into the token
	// for client display; authorization decisions re-evaluate live.
	isAdmin := a.gate.HasAdminAccess(r.Context(), claims.Claims{
		Sub:     identity.Sub,
		Email:   identity.Email,
		Name:    identity.Name,
		OrgID:   identity.OrgID,
		OrgName: identity.OrgName,
	})

	token, err := a.issuer.Issue(*identity, isAdmin)
	if err != nil {
		a.log.Errorw("session issuance failed", "err", err)
		mw.LoginsTotal.WithLabelValues("error").Inc()
		respond.Error(w, http.StatusInternalServerError, "Session issuance failed")
		return
	}
	mw.LoginsTotal.WithLabelValues("ok").Inc()

	respond.JSON(w, http.StatusOK, loginResponse{
		Token: token,
		User: loginUser{
			Email:      identity.Email,
			Name:       identity.Name,
			GivenName:  identity.GivenName,
			FamilyName: identity.FamilyName,
			Picture:    identity.Picture,
			OrgID:      identity.OrgID,
			OrgName:    identity.OrgName,
			HD:         identity.HD,
			IsAdmin:    isAdmin,
		},
	})
}
