package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultPublishTimeout = 2 * time.Second

var dispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "socialgraph",
		Subsystem: "notification",
		Name:      "dispatch_total",
		Help:      "Relationship events handed to the notification dispatcher",
	},
	[]string{"type", "result"},
)

// Dispatcher delivers relationship events. Dispatch never blocks the caller
// on delivery and never reports failure back to it.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *Event)
}

// RedisDispatcher publishes events as JSON on a Redis channel
type RedisDispatcher struct {
	channel   string
	timeout   time.Duration
	publishFn func(ctx context.Context, channel string, payload []byte) error
	wg        sync.WaitGroup
}

// NewRedisDispatcher creates a dispatcher publishing on channel
func NewRedisDispatcher(client *redis.Client, channel string) *RedisDispatcher {
	return &RedisDispatcher{
		channel: channel,
		timeout: defaultPublishTimeout,
		publishFn: func(ctx context.Context, channel string, payload []byte) error {
			return client.Publish(ctx, channel, payload).Err()
		},
	}
}

// Dispatch publishes in the background on a context detached from the
// request, bounded by the dispatcher's own timeout.
func (d *RedisDispatcher) Dispatch(ctx context.Context, event *Event) {
	if d == nil || event == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Str("type", string(event.Type)).Msg("Failed to encode notification event")
		dispatchTotal.WithLabelValues(string(event.Type), "error").Inc()
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.publishFn(pubCtx, d.channel, payload); err != nil {
			log.Warn().
				Err(err).
				Str("type", string(event.Type)).
				Str("actor_id", event.ActorID.String()).
				Str("recipient_id", event.RecipientID.String()).
				Msg("Failed to publish notification event")
			dispatchTotal.WithLabelValues(string(event.Type), "error").Inc()
			return
		}
		dispatchTotal.WithLabelValues(string(event.Type), "ok").Inc()
	}()
}

// Wait blocks until in-flight publishes finish. Used on shutdown.
func (d *RedisDispatcher) Wait() {
	d.wg.Wait()
}

// LogDispatcher only logs events. Used when Redis is not configured.
type LogDispatcher struct{}

// Dispatch logs the event at debug level
func (LogDispatcher) Dispatch(ctx context.Context, event *Event) {
	if event == nil {
		return
	}
	log.Debug().
		Str("type", string(event.Type)).
		Str("actor_id", event.ActorID.String()).
		Str("recipient_id", event.RecipientID.String()).
		Msg("Relationship event")
	dispatchTotal.WithLabelValues(string(event.Type), "logged").Inc()
}
