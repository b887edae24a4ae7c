// Package ledger implements the durable order history: a newest-first,
// in-memory view of the orders persisted by a ports.Repository. The storage
// layer is last-writer-wins; when a repository reports an external write the
// view is reloaded to match rather than merged.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// Ledger caches the persisted order history and keeps it consistent with the
// underlying repository across execution contexts.
type Ledger struct {
	repo   ports.Repository
	logger *slog.Logger

	mu     sync.RWMutex
	orders []domain.Order

	subMu sync.Mutex
	subs  []chan struct{}
}

// New builds a ledger over the given repository. Call Start before use.
func New(repo ports.Repository, logger *slog.Logger) *Ledger {
	return &Ledger{repo: repo, logger: logger}
}

// Start loads the persisted ledger and, when the repository can observe
// external writes, begins refreshing the in-memory view on change signals.
// A corrupted payload is replaced by an empty ledger instead of failing.
func (l *Ledger) Start(ctx context.Context) error {
	orders, err := l.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrCorrupted) {
			return fmt.Errorf("load ledger: %w", err)
		}
		l.logger.WarnContext(ctx, "persisted ledger is corrupted, starting empty", "error", err)
		orders = nil
	}

	l.mu.Lock()
	l.orders = orders
	l.mu.Unlock()

	if watcher, ok := l.repo.(ports.Watcher); ok {
		go l.watch(ctx, watcher.Changes())
	}

	return nil
}

// Place prepends the order and persists the full ledger. The in-memory view
// is only updated once the write succeeds, so a failed save leaves no trace.
func (l *Ledger) Place(ctx context.Context, order domain.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	next := make([]domain.Order, 0, len(l.orders)+1)
	next = append(next, order)
	next = append(next, l.orders...)

	if err := l.repo.Save(ctx, next); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("persist ledger: %w", err)
	}

	l.orders = next
	l.mu.Unlock()

	l.broadcast()
	return nil
}

// List returns a snapshot of the ledger, newest first.
func (l *Ledger) List() []domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	orders := make([]domain.Order, len(l.orders))
	copy(orders, l.orders)
	return orders
}

// Contains reports whether an order with the given id exists.
func (l *Ledger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, order := range l.orders {
		if order.ID == id {
			return true
		}
	}
	return false
}

// Delete removes exactly one matching order and persists the updated ledger.
// An absent id is a no-op.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := -1
	for i, order := range l.orders {
		if order.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return nil
	}

	next := make([]domain.Order, 0, len(l.orders)-1)
	next = append(next, l.orders[:idx]...)
	next = append(next, l.orders[idx+1:]...)

	if err := l.repo.Save(ctx, next); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("persist ledger: %w", err)
	}

	l.orders = next
	l.mu.Unlock()

	l.broadcast()
	return nil
}

// Clear empties the ledger unconditionally and persists. Confirmation is the
// caller's responsibility.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	if err := l.repo.Save(ctx, []domain.Order{}); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("persist ledger: %w", err)
	}
	l.orders = nil
	l.mu.Unlock()

	l.broadcast()
	return nil
}

// Subscribe returns a channel receiving one signal per observed ledger
// change. Signals are coalesced: a slow receiver sees at least one.
func (l *Ledger) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	l.subMu.Lock()
	l.subs = append(l.subs, ch)
	l.subMu.Unlock()
	return ch
}

func (l *Ledger) broadcast() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (l *Ledger) watch(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			l.refresh(ctx)
		}
	}
}

// refresh replaces the in-memory view with whatever is persisted now.
func (l *Ledger) refresh(ctx context.Context) {
	orders, err := l.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrCorrupted) {
			l.logger.WarnContext(ctx, "failed to reload ledger after external change", "error", err)
			return
		}
		l.logger.WarnContext(ctx, "persisted ledger is corrupted, substituting empty", "error", err)
		orders = nil
	}

	l.mu.Lock()
	l.orders = orders
	l.mu.Unlock()

	l.broadcast()
}
