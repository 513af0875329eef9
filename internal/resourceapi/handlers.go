// internal/resourceapi/handlers.go
package resourceapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"incidentcmd/pkg/claims"
	"incidentcmd/pkg/notify"
	"incidentcmd/pkg/respond"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// One canonical handler set serves every resource type. Claims extraction
// and authorization live in the shared middleware and in delete's admin
// gate; handlers only do key-based store work.

func (a *App) list(w http.ResponseWriter, r *http.Request) {
	c, _ := claims.FromContext(r.Context())
	typ := chi.URLParam(r, "type")
	recs, err := a.store.List(r.Context(), c.OrgID, typ)
	if err != nil {
		a.log.Errorw("list failed", "type", typ, "err", err)
		respond.Error(w, http.StatusInternalServerError, "List failed")
		return
	}
	respond.JSON(w, http.StatusOK, recs)
}

func (a *App) get(w http.ResponseWriter, r *http.Request) {
	c, _ := claims.FromContext(r.Context())
	typ := chi.URLParam(r, "type")
	rec, err := a.store.Get(r.Context(), c.OrgID, typ, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "Record not found")
			return
		}
		a.log.Errorw("get failed", "type", typ, "err", err)
		respond.Error(w, http.StatusInternalServerError, "Get failed")
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

func (a *App) create(w http.ResponseWriter, r *http.Request) {
	c, _ := claims.FromContext(r.Context())
	typ := chi.URLParam(r, "type")
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || rec == nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := uuid.NewString()
	rec["id"] = id
	rec["org_id"] = c.OrgID
	if err := a.store.Put(r.Context(), c.OrgID, typ, id, rec); err != nil {
		a.log.Errorw("create failed", "type", typ, "err", err)
		respond.Error(w, http.StatusInternalServerError, "Create failed")
		return
	}
	a.notifier.Publish(r.Context(), notify.Event{Action: typ + "Updated", OrgID: c.OrgID})
	respond.JSON(w, http.StatusCreated, rec)
}

func (a *App) update(w http.ResponseWriter, r *http.Request) {
	c, _ := claims.FromContext(r.Context())
	typ := chi.URLParam(r, "type")
	id := chi.URLParam(r, "id")
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || rec == nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := a.store.Get(r.Context(), c.OrgID, typ, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "Record not found")
			return
		}
		a.log.Errorw("update lookup failed", "type", typ, "err", err)
		respond.Error(w, http.StatusInternalServerError, "Update failed")
		return
	}
	rec["id"] = id
	rec["org_id"] = c.OrgID
	if err := a.store.Put(r.Context(), c.OrgID, typ, id, rec); err != nil {
		a.log.Errorw("update failed", "type", typ, "err", err)
		respond.Error(w, http.StatusInternalServerError, "Update failed")
		return
	}
	a.notifier.Publish(r.Context(), notify.Event{Action: typ + "Updated", OrgID: c.OrgID})
	respond.JSON(w, http.StatusOK, rec)
}

func (a *App) delete(w http.ResponseWriter, r *http.Request) {
	c, _ := claims.FromContext(r.Context())
	typ := chi.URLParam(r, "type")
	if !a.gate.HasAdminAccess(r.Context(), c) {
		respond.Forbidden(w, "Admin privileges required for delete")
		return
	}
	if err := a.store.Delete(r.Context(), c.OrgID, typ, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "Record not found")
			return
		}
		a.log.Errorw("delete failed", "type", typ, "err", err)
		respond.Error(w, http.StatusInternalServerError, "Delete failed")
		return
	}
	a.notifier.Publish(r.Context(), notify.Event{Action: typ + "Updated", OrgID: c.OrgID})
	respond.NoContent(w)
}
