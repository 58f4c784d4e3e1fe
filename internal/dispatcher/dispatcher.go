package dispatcher

import (
	"context"

	"caseflow/internal/core/ports"

	"go.uber.org/zap"
)

// Dispatcher consumes the notification stream and persists each entry to the
// inbox store. Delivery is best-effort end to end: a failed save is logged
// and the loop moves on.
type Dispatcher struct {
	notifier ports.Notifier
	store    ports.NotificationRepository
	log      *zap.Logger
}

func New(notifier ports.Notifier, store ports.NotificationRepository, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		store:    store,
		log:      log,
	}
}

// Start runs the consume loop until ctx is cancelled. Call as a goroutine
// from main.
func (d *Dispatcher) Start(ctx context.Context) error {
	events, err := d.notifier.Subscribe(ctx)
	if err != nil {
		return err
	}
	d.log.Info("notification dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info("notification dispatcher shutting down")
			return nil
		case n, ok := <-events:
			if !ok {
				return nil
			}
			if err := d.store.Save(ctx, &n); err != nil {
				d.log.Warn("failed to persist notification",
					zap.String("user_id", n.UserID.String()),
					zap.String("kind", string(n.Kind)),
					zap.Error(err))
				continue
			}
			d.log.Debug("notification delivered",
				zap.String("user_id", n.UserID.String()),
				zap.String("kind", string(n.Kind)))
		}
	}
}
