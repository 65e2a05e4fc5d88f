package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inauto/garage-booking/internal/logging"
)

// Channel is the Postgres NOTIFY channel the store's triggers publish on.
const Channel = "record_changes"

// Listener holds a dedicated connection on LISTEN and forwards every
// notification to the hub. NOTIFY fires at commit, so per-entity delivery
// order matches commit order. If the connection drops, missed notifications
// are gone; the listener only reconnects and resumes.
type Listener struct {
	pool   *pgxpool.Pool
	hub    *Hub
	logger *logging.Logger
}

func NewListener(pool *pgxpool.Pool, hub *Hub, logger *logging.Logger) *Listener {
	if logger == nil {
		logger = logging.Default()
	}
	return &Listener{
		pool:   pool,
		hub:    hub,
		logger: logger,
	}
}

// Run blocks until ctx is done, re-establishing the LISTEN connection after
// failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("change feed connection lost, reconnecting", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	l.logger.Info("listening for record changes", "channel", Channel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		ev, err := parsePayload(notification.Payload)
		if err != nil {
			l.logger.Warn("dropping malformed change notification", "error", err)
			continue
		}

		l.hub.Publish(ev)
	}
}

func parsePayload(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode change payload: %w", err)
	}
	if ev.Entity == "" || ev.Kind == "" {
		return Event{}, fmt.Errorf("change payload missing entity or kind: %q", payload)
	}
	return ev, nil
}
