package queries

import (
	"context"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// ListOrdersQuery requests the ledger history, newest first.
type ListOrdersQuery struct {
	// Limit caps the number of returned orders; zero means no cap.
	Limit int
}

// ListOrdersQueryHandler reads the ledger snapshot.
type ListOrdersQueryHandler struct {
	ledger ports.Ledger
}

// NewListOrdersQueryHandler constructs a ListOrdersQueryHandler.
func NewListOrdersQueryHandler(ledger ports.Ledger) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{ledger: ledger}
}

// Handle returns the persisted orders in newest-first order.
func (h *ListOrdersQueryHandler) Handle(_ context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	orders := h.ledger.List()
	if query.Limit > 0 && len(orders) > query.Limit {
		orders = orders[:query.Limit]
	}
	return orders, nil
}
