// internal/authapi/handlers_orgs.go
package authapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"incidentcmd/pkg/claims"
	"incidentcmd/pkg/orgs"
	"incidentcmd/pkg/respond"

	"github.com/go-chi/chi/v5"
)

// Organization management. Reads require an authenticated session;
// create/update/delete additionally require the super-admin flag, since
// organizations are cross-tenant objects.

func (a *App) getOrg(w http.ResponseWriter, r *http.Request) {
	org, err := a.orgs.GetByID(r.Context(), chi.URLParam(r, "org_id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Organization not found")
		return
	}
	respond.JSON(w, http.StatusOK, org)
}

func (a *App) getOrgByAud(w http.ResponseWriter, r *http.Request) {
	org, err := a.orgs.GetByAud(r.Context(), chi.URLParam(r, "aud"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Organization not found")
		return
	}
	respond.JSON(w, http.StatusOK, org)
}

func (a *App) createOrg(w http.ResponseWriter, r *http.Request) {
	c, ok := a.requireSuperAdmin(w, r)
	if !ok {
		return
	}
	var body struct {
		Aud   string `json:"aud"`
		Name  string `json:"name"`
		HD    string `json:"hd"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Aud == "" || body.Name == "" {
		respond.Error(w, http.StatusBadRequest, "Missing aud or name in request body")
		return
	}
	org, err := a.orgs.Create(r.Context(), body.Aud, body.Name, body.HD, body.Notes)
	if err != nil {
		if errors.Is(err, orgs.ErrAudTaken) {
			respond.Error(w, http.StatusConflict, "Audience already registered to an organization")
			return
		}
		a.log.Errorw("org create failed", "err", err)
		respond.Error(w, http.StatusInternalServerError, "Organization create failed")
		return
	}
	a.log.Infow("organization created", "org_id", org.OrgID, "aud", org.Aud, "by", c.Email)
	respond.JSON(w, http.StatusCreated, org)
}

func (a *App) updateOrg(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireSuperAdmin(w, r); !ok {
		return
	}
	var patch orgs.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Empty() {
		respond.Error(w, http.StatusBadRequest, "No valid fields to update")
		return
	}
	org, err := a.orgs.Update(r.Context(), chi.URLParam(r, "org_id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "Organization not found")
		case errors.Is(err, orgs.ErrAudTaken):
			respond.Error(w, http.StatusConflict, "Audience already registered to an organization")
		default:
			a.log.Errorw("org update failed", "err", err)
			respond.Error(w, http.StatusInternalServerError, "Organization update failed")
		}
		return
	}
	respond.JSON(w, http.StatusOK, org)
}

func (a *App) deleteOrg(w http.ResponseWriter, r *http.Request) {
	c, ok := a.requireSuperAdmin(w, r)
	if !ok {
		return
	}
	orgID := chi.URLParam(r, "org_id")
	if err := a.orgs.Delete(r.Context(), orgID); err != nil {
		if errors.Is(err, orgs.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Organization not found")
			return
		}
		a.log.Errorw("org delete failed", "err", err)
		respond.Error(w, http.StatusInternalServerError, "Organization delete failed")
		return
	}
	a.log.Infow("organization deleted", "org_id", orgID, "by", c.Email)
	respond.NoContent(w)
}

func (a *App) requireSuperAdmin(w http.ResponseWriter, r *http.Request) (claims.Claims, bool) {
	c, ok := claims.FromContext(r.Context())
	if !ok {
		respond.Unauthorized(w)
		return claims.Claims{}, false
	}
	if !a.gate.HasSuperAdminAccess(r.Context(), c) {
		respond.Forbidden(w, "Super-admin privileges required")
		return claims.Claims{}, false
	}
	return c, true
}
