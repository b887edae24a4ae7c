package cart

import (
	"sync"

	"github.com/dejobratic/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// LineItem is one product entry with quantity inside a cart or order.
// Quantity is always at least 1 while the item is present; an item whose
// quantity would drop to 0 is removed instead.
type LineItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Store is a session-scoped cart: an insertion-ordered set of line items keyed
// by product id. It is never persisted; only placed orders survive a session.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	observers []func()
}

// NewStore creates an empty cart.
func NewStore() *Store {
	return &Store{}
}

// OnChange registers an observer invoked after every mutation. Observers are
// expected to recompute any cart-derived values rather than cache them.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Add inserts a catalog item with quantity 1, or increments the quantity of an
// existing line with the same id. The stored price and title of an existing
// line are kept as-is so a stale catalog payload cannot corrupt it.
func (s *Store) Add(item LineItem) {
	s.mu.Lock()
	if i := s.index(item.ID); i >= 0 {
		s.items[i].Quantity++
	} else {
		item.Quantity = 1
		s.items = append(s.items, item)
	}
	s.mu.Unlock()
	s.notify()
}

// Remove deletes the line with the given id entirely, regardless of quantity.
// Absent ids are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.mu.Unlock()
	s.notify()
}

// DecreaseQty decrements the quantity of the line with the given id. A line at
// quantity 1 is removed; a line never remains present at quantity 0. Absent
// ids are a no-op.
func (s *Store) DecreaseQty(id string) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	if s.items[i].Quantity > 1 {
		s.items[i].Quantity--
	} else {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()
	s.notify()
}

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return items
}

// Len reports the number of distinct lines in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Totals recomputes the price breakdown for the current cart contents. The
// calculator is invoked fresh on every call so displayed totals can never
// drift from the cart after an edit.
func (s *Store) Totals(calc *pricing.Calculator) pricing.Totals {
	return calc.Totals(PricingItems(s.Items()))
}

func (s *Store) index(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify() {
	s.mu.Lock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// PricingItems maps line items to the shape the pricing calculator accepts.
func PricingItems(items []LineItem) []pricing.Item {
	priced := make([]pricing.Item, len(items))
	for i, item := range items {
		priced[i] = pricing.Item{Price: item.Price, Quantity: item.Quantity}
	}
	return priced
}
