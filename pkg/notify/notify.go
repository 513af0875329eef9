// pkg/notify/notify.go
package notify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "icmd:notify:"

// ChannelPattern matches every organization's notification channel.
const ChannelPattern = channelPrefix + "*"

// ChannelFor returns the org-scoped pub/sub channel name.
func ChannelFor(orgID string) string { return channelPrefix + orgID }

// OrgFromChannel recovers the org id from a channel name.
func OrgFromChannel(ch string) string { return strings.TrimPrefix(ch, channelPrefix) }

// Event is the change notice fanned out to connected clients, e.g.
// {"action":"volunteersUpdated","orgId":"org-42"}.
type Event struct {
	Action string `json:"action"`
	OrgID  string `json:"orgId"`
}

// Publisher emits change notices. Publish must never fail a request:
// notification is best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// RedisPublisher publishes events on the org's channel.
type RedisPublisher struct {
	log *zap.SugaredLogger
	rdb *redis.Client
}

func NewRedisPublisher(log *zap.SugaredLogger, rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{log: log, rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := p.rdb.Publish(ctx, ChannelFor(e.OrgID), payload).Err(); err != nil {
		p.log.Warnw("notify publish failed", "org_id", e.OrgID, "action", e.Action, "err", err)
	}
}

// NopPublisher drops events (dev without redis, tests).
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, e Event) {}
