package redis

import (
	"context"
	"encoding/json"

	"caseflow/internal/domain"
	"caseflow/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const notificationChannel = "caseflow:notifications"

// Notifier publishes notifications to Redis Pub/Sub. Publishing is
// best-effort: callers log failures and move on, the primary state change is
// never rolled back because a notification could not be delivered.
type Notifier struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewNotifier(client *redis.Client, log *zap.Logger) *Notifier {
	return &Notifier{
		client:  client,
		channel: notificationChannel,
		log:     log,
	}
}

func (n *Notifier) Notify(ctx context.Context, notification *domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return err
	}
	metrics.NotificationsPublished.Inc()
	return nil
}

// Subscribe opens a continuous stream of notifications for the dispatcher.
// The forwarding goroutine exits and closes the channel when ctx is done.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan domain.Notification, error) {
	pubsub := n.client.Subscribe(ctx, n.channel)
	out := make(chan domain.Notification)

	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				n.log.Warn("notification subscribe receive failed", zap.Error(err))
				continue
			}

			var notification domain.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
				n.log.Warn("dropping malformed notification payload", zap.Error(err))
				continue
			}

			select {
			case out <- notification:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
