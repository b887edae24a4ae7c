package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dejobratic/storefront/internal/cart"
	"github.com/dejobratic/storefront/internal/checkout"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

type mockLedger struct {
	placeFn func(ctx context.Context, order domain.Order) error
	placed  []domain.Order
}

func (m *mockLedger) Place(ctx context.Context, order domain.Order) error {
	m.placed = append(m.placed, order)
	if m.placeFn != nil {
		return m.placeFn(ctx, order)
	}
	return nil
}

func (m *mockLedger) List() []domain.Order { return m.placed }

func (m *mockLedger) Contains(id string) bool {
	for _, order := range m.placed {
		if order.ID == id {
			return true
		}
	}
	return false
}

func (m *mockLedger) Delete(context.Context, string) error { return nil }
func (m *mockLedger) Clear(context.Context) error          { return nil }
func (m *mockLedger) Subscribe() <-chan struct{}           { return nil }

type mockEventBus struct {
	publishOrderPlacedFn func(ctx context.Context, orderID string) error
}

func (m *mockEventBus) PublishOrderPlaced(ctx context.Context, orderID string) error {
	if m.publishOrderPlacedFn != nil {
		return m.publishOrderPlacedFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishOrderDeleted(context.Context, string) error { return nil }
func (m *mockEventBus) PublishLedgerCleared(context.Context, int) error   { return nil }

func draft() checkout.Draft {
	return checkout.Draft{
		Items: []cart.LineItem{
			{ID: "1", Title: "Keyboard", Price: decimal.NewFromInt(100), Quantity: 2},
			{ID: "2", Title: "Mouse", Price: decimal.NewFromInt(50), Quantity: 1},
		},
		PaymentMethod: domain.PaymentCard,
	}
}

func billing() domain.Billing {
	return domain.Billing{Name: "Ada Lovelace", Phone: "+44123456", Address: "12 St James Square, London"}
}

func TestPlaceOrder(t *testing.T) {
	t.Run("freezes draft items and independently computed totals", func(t *testing.T) {
		ledger := &mockLedger{}
		events := &mockEventBus{}
		handler := commands.NewPlaceOrderCommandHandler(ledger, pricing.NewCalculator(), events)

		cmd := commands.PlaceOrderCommand{Draft: draft(), Billing: billing()}

		order, err := handler.Handle(context.Background(), cmd)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order == nil {
			t.Fatal("expected order to be returned, got nil")
		}

		if order.ID == "" {
			t.Error("expected order ID to be generated")
		}
		if len(order.Items) != 2 {
			t.Errorf("expected 2 frozen items, got %d", len(order.Items))
		}
		if !order.Totals.Subtotal.Equal(decimal.NewFromInt(250)) {
			t.Errorf("expected subtotal 250, got %s", order.Totals.Subtotal)
		}
		if !order.Totals.Total.Equal(decimal.NewFromInt(320)) {
			t.Errorf("expected total 320, got %s", order.Totals.Total)
		}
		if len(ledger.placed) != 1 {
			t.Errorf("expected order appended to ledger, got %d", len(ledger.placed))
		}
	})

	t.Run("empty draft fails with ErrNoSelection and touches nothing", func(t *testing.T) {
		ledger := &mockLedger{}
		handler := commands.NewPlaceOrderCommandHandler(ledger, pricing.NewCalculator(), &mockEventBus{})

		cmd := commands.PlaceOrderCommand{Draft: checkout.Draft{PaymentMethod: domain.PaymentCard}, Billing: billing()}

		_, err := handler.Handle(context.Background(), cmd)
		if !errors.Is(err, checkout.ErrNoSelection) {
			t.Fatalf("expected ErrNoSelection, got: %v", err)
		}
		if len(ledger.placed) != 0 {
			t.Error("expected ledger unmodified")
		}
	})

	t.Run("incomplete billing fails with ErrIncompleteBilling", func(t *testing.T) {
		ledger := &mockLedger{}
		handler := commands.NewPlaceOrderCommandHandler(ledger, pricing.NewCalculator(), &mockEventBus{})

		cmd := commands.PlaceOrderCommand{Draft: draft(), Billing: domain.Billing{Name: "Ada Lovelace"}}

		_, err := handler.Handle(context.Background(), cmd)
		if !errors.Is(err, domain.ErrIncompleteBilling) {
			t.Fatalf("expected ErrIncompleteBilling, got: %v", err)
		}
		if len(ledger.placed) != 0 {
			t.Error("expected no partial persistence")
		}
	})

	t.Run("ledger failure is returned", func(t *testing.T) {
		wantErr := errors.New("storage down")
		ledger := &mockLedger{placeFn: func(context.Context, domain.Order) error { return wantErr }}
		handler := commands.NewPlaceOrderCommandHandler(ledger, pricing.NewCalculator(), &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Draft: draft(), Billing: billing()})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected storage error, got: %v", err)
		}
	})

	t.Run("publish failure still returns the placed order", func(t *testing.T) {
		ledger := &mockLedger{}
		events := &mockEventBus{publishOrderPlacedFn: func(context.Context, string) error {
			return errors.New("bus down")
		}}
		handler := commands.NewPlaceOrderCommandHandler(ledger, pricing.NewCalculator(), events)

		order, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Draft: draft(), Billing: billing()})
		if err == nil {
			t.Fatal("expected publish error surfaced")
		}
		if order == nil {
			t.Fatal("expected placed order returned despite publish failure")
		}
	})

	t.Run("ids are unique even when placements collide in time", func(t *testing.T) {
		ledger := &mockLedger{}
		handler := commands.NewPlaceOrderCommandHandler(ledger, pricing.NewCalculator(), &mockEventBus{})

		seen := map[string]bool{}
		for i := 0; i < 5; i++ {
			order, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Draft: draft(), Billing: billing()})
			if err != nil {
				t.Fatalf("place %d: %v", i, err)
			}
			if seen[order.ID] {
				t.Fatalf("duplicate order id %s", order.ID)
			}
			seen[order.ID] = true
		}
	})
}
