package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisNotifier publishes events on a Redis pub/sub channel so that
// websocket frontends on other processes can pick them up
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     *logrus.Entry
}

// NewRedisNotifier instantiates a notifier publishing on channel
func NewRedisNotifier(client *redis.Client, channel string, log *logrus.Entry) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
		log:     log,
	}
}

// Notify publishes the event. Publish failures are logged and dropped.
func (r *RedisNotifier) Notify(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.log.WithError(err).Error("could not marshal notification event")
		return
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.WithError(err).WithField("op", event.Op).Error("could not publish notification event")
	}
}
