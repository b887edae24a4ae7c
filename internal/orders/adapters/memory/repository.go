package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/storefront/internal/orders/domain"
)

// Repository keeps the ledger payload in memory. Useful for local development
// and tests; SimulateExternalWrite stands in for another session mutating the
// shared storage.
type Repository struct {
	mu      sync.RWMutex
	orders  []domain.Order
	loadErr error

	changes chan struct{}
}

// NewRepository constructs an empty in-memory ledger repository.
func NewRepository() *Repository {
	return &Repository{changes: make(chan struct{}, 1)}
}

// Load returns the stored payload.
func (r *Repository) Load(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	orders := make([]domain.Order, len(r.orders))
	copy(orders, r.orders)
	return orders, nil
}

// Save replaces the stored payload wholesale.
func (r *Repository) Save(_ context.Context, orders []domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = make([]domain.Order, len(orders))
	copy(r.orders, orders)
	return nil
}

// Changes signals writes performed through SimulateExternalWrite.
func (r *Repository) Changes() <-chan struct{} {
	return r.changes
}

// SimulateExternalWrite replaces the payload as another execution context
// would, then fires the change signal.
func (r *Repository) SimulateExternalWrite(orders []domain.Order) {
	r.mu.Lock()
	r.orders = make([]domain.Order, len(orders))
	copy(r.orders, orders)
	r.mu.Unlock()

	select {
	case r.changes <- struct{}{}:
	default:
	}
}

// FailLoadsWith makes subsequent loads return err, emulating a corrupted or
// unreadable payload.
func (r *Repository) FailLoadsWith(err error) {
	r.mu.Lock()
	r.loadErr = err
	r.mu.Unlock()
}
