// Package checkout assembles order drafts from a cart subset or a direct
// buy-now purchase. A draft is unpriced and unpersisted: it carries items and
// the chosen payment method only, and is priced independently at placement so
// totals can never go stale between checkout and order placement.
package checkout

import (
	"errors"

	"github.com/dejobratic/storefront/internal/cart"
	"github.com/dejobratic/storefront/internal/orders/domain"
)

// ErrNoSelection is returned when checkout is attempted with nothing selected.
var ErrNoSelection = errors.New("no items selected for checkout")

// Draft is a candidate order awaiting totals and billing details.
type Draft struct {
	Items         []cart.LineItem
	PaymentMethod domain.PaymentMethod
}

// Prepare builds a draft from the cart lines matching selectedIDs, preserving
// cart order. An empty selection, or a selection matching nothing in the cart,
// fails with ErrNoSelection.
func Prepare(store *cart.Store, selectedIDs []string, method domain.PaymentMethod) (Draft, error) {
	if len(selectedIDs) == 0 {
		return Draft{}, ErrNoSelection
	}

	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	var items []cart.LineItem
	for _, item := range store.Items() {
		if selected[item.ID] {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return Draft{}, ErrNoSelection
	}

	return Draft{Items: items, PaymentMethod: method}, nil
}

// BuyNow builds a single-item draft directly from a catalog item, bypassing
// the cart entirely. A quantity below 1 is treated as 1.
func BuyNow(item cart.LineItem, quantity int, method domain.PaymentMethod) Draft {
	if quantity < 1 {
		quantity = 1
	}
	item.Quantity = quantity

	return Draft{
		Items:         []cart.LineItem{item},
		PaymentMethod: method,
	}
}
