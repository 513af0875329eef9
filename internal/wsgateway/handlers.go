// internal/wsgateway/handlers.go
package wsgateway

import (
	"encoding/json"
	"net/http"

	mw "incidentcmd/pkg/middleware"
	"incidentcmd/pkg/respond"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy belongs to the edge in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID(), mw.Recover(a.log), mw.Tracing("ws-service"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Method(http.MethodGet, "/metrics", mw.MetricsHandler())

	r.Get("/ws", a.connect)
	return r
}

// connect authenticates the handshake and upgrades. Browsers cannot set
// headers on a websocket handshake, so the session token rides the query
// string. Rejection happens before the upgrade: a bad token never reaches
// the hub.
func (a *App) connect(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		respond.Unauthorized(w)
		return
	}
	c, err := a.verifier.Verify(r.Context(), raw)
	if err != nil {
		a.log.Warnw("ws handshake rejected", "err", err)
		respond.Unauthorized(w)
		return
	}
	if !c.HasOrg() {
		respond.Forbidden(w, "Missing organization scope")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		a.log.Warnw("ws upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()
	cl := a.hub.Register(c.OrgID, connID, conn)
	a.log.Infow("ws connected", "org_id", c.OrgID, "conn_id", connID)
	go a.readLoop(c.OrgID, connID, cl)
}

// readLoop answers client frames until the connection drops. Ping frames get
// a pong, anything else an ack; server-originated traffic flows through the
// hub only.
func (a *App) readLoop(orgID, connID string, cl *client) {
	defer func() {
		a.hub.Unregister(orgID, connID)
		_ = cl.conn.Close()
		a.log.Infow("ws disconnected", "org_id", orgID, "conn_id", connID)
	}()
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Action string `json:"action"`
		}
		reply := `{"type":"ack"}`
		if json.Unmarshal(data, &msg) == nil && msg.Action == "ping" {
			reply = `{"type":"pong"}`
		}
		if err := cl.write([]byte(reply)); err != nil {
			return
		}
	}
}
