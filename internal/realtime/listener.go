package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"

	"habit-rooms-go/pkg/logger"
)

const (
	listenerPingInterval = 90 * time.Second
	listenRetryInitial   = time.Second
)

// Listener relays Postgres NOTIFY payloads from the change trigger into a
// Publisher, so writes made by other instances reach local subscribers.
type Listener struct {
	dsn          string
	channel      string
	minReconnect time.Duration
	maxReconnect time.Duration
	target       Publisher
	log          logger.Logger
	retryInitial time.Duration
}

func NewListener(dsn, channel string, minReconnect, maxReconnect time.Duration, target Publisher, log logger.Logger) *Listener {
	if minReconnect <= 0 {
		minReconnect = 10 * time.Second
	}
	if maxReconnect < minReconnect {
		maxReconnect = minReconnect
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Listener{
		dsn:          dsn,
		channel:      channel,
		minReconnect: minReconnect,
		maxReconnect: maxReconnect,
		target:       target,
		log:          log,
		retryInitial: listenRetryInitial,
	}
}

// Run blocks until ctx is done. A failing initial LISTEN is retried with
// backoff; Run only returns an error when ctx ends first.
func (l *Listener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, func(event pq.ListenerEventType, err error) {
		switch event {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			l.log.Warn("realtime.listener: connection problem", "event", event, "err", err)
		case pq.ListenerEventReconnected:
			l.log.Info("realtime.listener: reconnected", "channel", l.channel)
		}
	})
	defer listener.Close()
	// Listen blocks while the connection is down; closing unblocks it.
	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	if err := l.listen(ctx, listener.Listen); err != nil {
		return err
	}
	l.log.Info("realtime.listener: listening", "channel", l.channel)

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case notification, ok := <-listener.Notify:
			if !ok {
				return nil
			}
			if notification == nil {
				// Delivered after a reconnect; notifications may have been
				// missed, so tell every consumer to re-fetch.
				l.broadcastResync()
				continue
			}
			event, err := DecodeNotification(notification.Extra, time.Now())
			if err != nil {
				l.log.Warn("realtime.listener: bad payload", "err", err, "payload", notification.Extra)
				continue
			}
			l.target.Publish(event)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.log.Warn("realtime.listener: ping failed", "err", err)
				}
			}()
		}
	}
}

func (l *Listener) listen(ctx context.Context, listen func(channel string) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = l.retryInitial
	policy.MaxInterval = l.maxReconnect
	policy.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		err := listen(l.channel)
		if errors.Is(err, pq.ErrChannelAlreadyOpen) {
			return nil
		}
		return err
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		l.log.Warn("realtime.listener: listen failed", "channel", l.channel, "retry_in", wait, "err", err)
	})
}

func (l *Listener) broadcastResync() {
	now := time.Now().UTC()
	for table := range knownTables {
		l.target.Publish(Event{Table: table, Operation: OpUpdate, Resync: true, At: now})
	}
}
