package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/storefront/internal/orders/domain"
)

// Repository persists the complete ledger as an ordered, newest-first array
// under a single durable key. Save replaces the stored payload wholesale:
// concurrent writers resolve by last-writer-wins, no merge is attempted.
type Repository interface {
	Load(ctx context.Context) ([]domain.Order, error)
	Save(ctx context.Context, orders []domain.Order) error
}

// Watcher is implemented by repositories that can detect writes from another
// execution context. Receiving on Changes signals that the persisted payload
// moved underneath the in-memory view and should be reloaded.
type Watcher interface {
	Changes() <-chan struct{}
}

// ErrCorrupted is returned when the persisted ledger payload cannot be
// parsed. It is recovered locally by substituting an empty ledger and is
// never surfaced to callers as fatal.
var ErrCorrupted = errors.New("persisted ledger is corrupted")
