package kafka

import (
	"context"
	"log/slog"
)

// NoopEventBus logs ledger events without sending them to Kafka. Useful for
// local dev before wiring a broker.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderPlaced(_ context.Context, orderID string) error {
	slog.Debug("event::order_placed", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishOrderDeleted(_ context.Context, orderID string) error {
	slog.Debug("event::order_deleted", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishLedgerCleared(_ context.Context, removed int) error {
	slog.Debug("event::ledger_cleared", "orders_removed", removed)
	return nil
}
