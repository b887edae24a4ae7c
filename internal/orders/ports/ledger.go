package ports

import (
	"context"

	"github.com/dejobratic/storefront/internal/orders/domain"
)

// Ledger is the in-memory view of the persisted order history. Orders move
// through exactly two lifecycle events: placement and deletion; there is no
// update-in-place.
type Ledger interface {
	// Place prepends the order and persists the full ledger.
	Place(ctx context.Context, order domain.Order) error

	// List returns a snapshot of the ledger, newest first.
	List() []domain.Order

	// Contains reports whether an order with the given id exists.
	Contains(id string) bool

	// Delete removes exactly one matching order and persists; absent ids are
	// a no-op.
	Delete(ctx context.Context, id string) error

	// Clear unconditionally empties the ledger and persists. Obtaining user
	// confirmation is the caller's responsibility.
	Clear(ctx context.Context) error

	// Subscribe returns a channel that receives a signal whenever the ledger
	// changes, from this process or from another execution context.
	Subscribe() <-chan struct{}
}
