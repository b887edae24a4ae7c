package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/cart"
	"github.com/dejobratic/storefront/internal/checkout"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/pricing"
)

// PlaceOrderCommand freezes a checkout draft into a persisted order.
type PlaceOrderCommand struct {
	Draft   checkout.Draft
	Billing domain.Billing
}

// Validate rejects drafts with no selection and incomplete billing before any
// state is touched.
func (c PlaceOrderCommand) Validate() error {
	if len(c.Draft.Items) == 0 {
		return checkout.ErrNoSelection
	}
	if !c.Draft.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPaymentMethod, c.Draft.PaymentMethod)
	}
	return c.Billing.Validate()
}

// CommandHandler executes PlaceOrderCommand.
type CommandHandler interface {
	Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
}

// PlaceOrderCommandHandler prices the draft independently, freezes items and
// totals into an immutable order, and appends it to the ledger.
type PlaceOrderCommandHandler struct {
	ledger ports.Ledger
	calc   *pricing.Calculator
	events ports.EventBus
}

// NewPlaceOrderCommandHandler wires the handler's dependencies.
func NewPlaceOrderCommandHandler(
	ledger ports.Ledger,
	calc *pricing.Calculator,
	events ports.EventBus,
) *PlaceOrderCommandHandler {
	return &PlaceOrderCommandHandler{
		ledger: ledger,
		calc:   calc,
		events: events,
	}
}

func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// The draft never carries totals; they are computed here so pricing rule
	// changes can never leave a stale figure on a placed order.
	totals := h.calc.Totals(cart.PricingItems(cmd.Draft.Items))

	order := domain.Order{
		ID:            domain.NewID(time.Now().UTC(), h.ledger.Contains),
		CreatedAt:     time.Now().UTC(),
		Items:         cmd.Draft.Items,
		Billing:       cmd.Billing,
		PaymentMethod: cmd.Draft.PaymentMethod,
		Totals:        totals,
	}

	if err := h.ledger.Place(ctx, order); err != nil {
		return nil, err
	}

	if err := h.events.PublishOrderPlaced(ctx, order.ID); err != nil {
		return &order, fmt.Errorf("order placed but failed to publish event: %w", err)
	}

	return &order, nil
}
