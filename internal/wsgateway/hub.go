// internal/wsgateway/hub.go
package wsgateway

import (
	"context"
	"sync"

	"incidentcmd/pkg/notify"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// client wraps a websocket connection with a write mutex. gorilla/websocket
// allows at most one concurrent writer per connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks live connections per organization and fans change notices out
// to them. Connections that fail a write are pruned on the spot.
type Hub struct {
	log   *zap.SugaredLogger
	mu    sync.RWMutex
	conns map[string]map[string]*client // orgID -> connID -> client
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{log: log, conns: map[string]map[string]*client{}}
}

// Register adds the connection and returns its write handle. All writes to
// the connection must go through the handle so hub broadcasts and the read
// loop never interleave frames.
func (h *Hub) Register(orgID, connID string, conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[orgID] == nil {
		h.conns[orgID] = map[string]*client{}
	}
	c := &client{conn: conn}
	h.conns[orgID][connID] = c
	return c
}

func (h *Hub) Unregister(orgID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.conns[orgID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(h.conns, orgID)
		}
	}
}

// Count reports the number of live connections for an organization.
func (h *Hub) Count(orgID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[orgID])
}

// Broadcast sends payload to every connection in the org. Dead connections
// are closed and removed.
func (h *Hub) Broadcast(orgID string, payload []byte) {
	h.mu.RLock()
	targets := make(map[string]*client, len(h.conns[orgID]))
	for id, c := range h.conns[orgID] {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, c := range targets {
		if err := c.write(payload); err != nil {
			h.log.Debugw("dropping dead connection", "org_id", orgID, "conn_id", id, "err", err)
			_ = c.conn.Close()
			h.Unregister(orgID, id)
		}
	}
}

// Run subscribes to the org notification channels and relays every event to
// that org's connections. Blocks until ctx is done.
func (h *Hub) Run(ctx context.Context, rdb *redis.Client) {
	sub := rdb.PSubscribe(ctx, notify.ChannelPattern)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(notify.OrgFromChannel(msg.Channel), []byte(msg.Payload))
		}
	}
}
