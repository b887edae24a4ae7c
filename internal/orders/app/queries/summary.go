package queries

import (
	"context"

	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/shopspring/decimal"
)

// Summary aggregates the whole ledger for the order-history header.
type Summary struct {
	Count      int             `json:"count"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// SummaryQueryHandler computes order count and grand total across the ledger.
type SummaryQueryHandler struct {
	ledger ports.Ledger
}

// NewSummaryQueryHandler constructs a SummaryQueryHandler.
func NewSummaryQueryHandler(ledger ports.Ledger) *SummaryQueryHandler {
	return &SummaryQueryHandler{ledger: ledger}
}

// Handle sums the frozen totals of every placed order. The stored snapshot is
// the figure of record, so totals are not re-derived from items here.
func (h *SummaryQueryHandler) Handle(_ context.Context) (Summary, error) {
	orders := h.ledger.List()

	grand := decimal.Zero
	for _, order := range orders {
		grand = grand.Add(order.Totals.Total)
	}

	return Summary{
		Count:      len(orders),
		GrandTotal: grand.Round(2),
	}, nil
}
