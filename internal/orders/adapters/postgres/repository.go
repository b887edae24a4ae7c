package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// notifyChannel carries storage keys of ledgers written by any session.
const notifyChannel = "ledger_changed"

// Repository stores the serialized ledger as a single JSONB row keyed by the
// storage key, so the persisted payload is the same ordered array every other
// backend writes. Every save replaces the payload wholesale and emits a
// NOTIFY, which other sessions receive through Changes.
type Repository struct {
	pool    *pgxpool.Pool
	key     string
	changes chan struct{}
}

// NewRepository constructs a ledger repository over the given pool. Call
// Listen to receive cross-session change signals.
func NewRepository(pool *pgxpool.Pool, storageKey string) *Repository {
	return &Repository{
		pool:    pool,
		key:     storageKey,
		changes: make(chan struct{}, 1),
	}
}

// Load reads the persisted ledger. A missing row is an empty ledger; an
// unparseable payload reports ErrCorrupted.
func (r *Repository) Load(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT payload
		FROM ledgers
		WHERE storage_key = $1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query, r.key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Order{}, nil
		}
		return nil, fmt.Errorf("select ledger: %w", err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(payload, &orders); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrCorrupted, err)
	}

	return orders, nil
}

// Save replaces the persisted payload and notifies other sessions.
func (r *Repository) Save(ctx context.Context, orders []domain.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	query := `
		INSERT INTO ledgers (storage_key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (storage_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query, r.key, payload); err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, r.key); err != nil {
		return fmt.Errorf("notify ledger change: %w", err)
	}

	return nil
}

// Changes signals writes to this ledger's storage key observed via LISTEN.
func (r *Repository) Changes() <-chan struct{} {
	return r.changes
}

// Listen holds a dedicated connection on the notify channel and forwards
// matching notifications until ctx is canceled. Notifications for other
// storage keys are ignored.
func (r *Repository) Listen(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		conn.Release()
		return fmt.Errorf("listen on %s: %w", notifyChannel, err)
	}

	go func() {
		defer conn.Release()
		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("ledger listener interrupted", "error", err)
				time.Sleep(time.Second)
				continue
			}

			if notification.Payload != r.key {
				continue
			}

			select {
			case r.changes <- struct{}{}:
			default:
			}
		}
	}()

	return nil
}
