package notify

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventAppointmentSaved is the only hint the views listen for. Delivery is
// best-effort: a subscriber that is not connected at publish time simply
// misses the hint and serves stale data until its next refresh.
const EventAppointmentSaved = "appointment-saved"

// EventSessionChanged announces a fallback-login session grant. Nothing in
// this service consumes it yet; admin UIs use it to refresh their auth state.
const EventSessionChanged = "session-changed"

// Bus is a fire-and-forget broadcast channel used purely as a
// cache-invalidation hint between writers and open calendar views.
type Bus interface {
	Publish(ctx context.Context, event string) error
	Subscribe(ctx context.Context, handler func(event string))
}

// RedisBus broadcasts over a Redis pub/sub channel so hints cross process
// boundaries (widget API instance to admin API instance).
type RedisBus struct {
	rdb     *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisBus(rdb *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if channel == "" {
		channel = EventAppointmentSaved
	}
	return &RedisBus{rdb: rdb, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, event string) error {
	return b.rdb.Publish(ctx, b.channel, event).Err()
}

// Subscribe blocks until ctx is cancelled, invoking handler for every hint
// received. Callers run it on its own goroutine.
func (b *RedisBus) Subscribe(ctx context.Context, handler func(event string)) {
	sub := b.rdb.Subscribe(ctx, b.channel)
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
			handler(msg.Payload)
		}
	}
}

// NoopBus drops everything; used when Redis is not configured.
type NoopBus struct{}

func (NoopBus) Publish(context.Context, string) error         { return nil }
func (NoopBus) Subscribe(context.Context, func(event string)) {}
