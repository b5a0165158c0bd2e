package eventbus

import (
	"context"

	"github.com/annel0/teemap/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог компонента "events".
// Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus) (Subscription, error) {
	log := logging.GetComponentLogger("events")
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		log.Debug("[EventBus] %s %s src=%s corr=%s size=%dB", ev.ID, ev.EventType, ev.Source, ev.CorrelationID, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	log.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
