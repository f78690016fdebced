package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Publisher is the subset of *redis.Client used for notifications
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes each message as JSON on a pub/sub channel
type RedisNotifier struct {
	client  Publisher
	channel string
	timeout time.Duration
	now     func() time.Time
}

func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, timeout: 2 * time.Second, now: time.Now}
}

// Report never blocks the caller for longer than the publish timeout. A failed publish
// is logged and dropped.
func (n *RedisNotifier) Report(ctx context.Context, message string) {
	id, _ := SessionID(ctx)
	payload, err := json.Marshal(Notification{Session: id, Message: message, At: n.now().UTC()})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode notification")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	receivers, err := n.client.Publish(pubCtx, n.channel, payload).Result()
	if err != nil {
		log.Error().
			Err(err).
			Str("channel", n.channel).
			Msg("failed to publish notification")
		return
	}
	log.Debug().
		Str("channel", n.channel).
		Int64("receivers", receivers).
		Msg("notification published")
}
