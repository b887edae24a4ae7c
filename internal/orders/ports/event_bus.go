package ports

import "context"

// EventBus defines the contract for publishing ledger lifecycle events.
type EventBus interface {
	PublishOrderPlaced(ctx context.Context, orderID string) error
	PublishOrderDeleted(ctx context.Context, orderID string) error
	PublishLedgerCleared(ctx context.Context, removed int) error
}
