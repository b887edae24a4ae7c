package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/storefront/internal/checkout"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/app/queries"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/pricing"
)

// Service bundles the order ledger use cases exposed to the API.
type Service struct {
	ledger    ports.Ledger
	events    ports.EventBus
	idemStore ports.IdempotencyStore
	metrics   *metrics.Metrics

	placeOrderHandler commands.CommandHandler
	listHandler       *queries.ListOrdersQueryHandler
	summaryHandler    *queries.SummaryQueryHandler
}

// NewService wires required dependencies.
func NewService(
	ledger ports.Ledger,
	calc *pricing.Calculator,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	coreHandler := commands.NewPlaceOrderCommandHandler(ledger, calc, events)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, metrics)

	return &Service{
		ledger:            ledger,
		events:            events,
		idemStore:         idem,
		metrics:           metrics,
		placeOrderHandler: observableHandler,
		listHandler:       queries.NewListOrdersQueryHandler(ledger),
		summaryHandler:    queries.NewSummaryQueryHandler(ledger),
	}
}

// PlaceOrder freezes the draft into an order and appends it to the ledger.
func (s *Service) PlaceOrder(ctx context.Context, draft checkout.Draft, billing domain.Billing) (*domain.Order, error) {
	cmd := commands.PlaceOrderCommand{Draft: draft, Billing: billing}
	return s.placeOrderHandler.Handle(ctx, cmd)
}

// ListOrders returns the ledger snapshot, newest first.
func (s *Service) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.listHandler.Handle(ctx, queries.ListOrdersQuery{Limit: limit})
}

// Summary returns the order count and grand total across the ledger.
func (s *Service) Summary(ctx context.Context) (queries.Summary, error) {
	return s.summaryHandler.Handle(ctx)
}

// DeleteOrder removes one order; unknown ids are a no-op.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	existed := s.ledger.Contains(id)

	if err := s.ledger.Delete(ctx, id); err != nil {
		return err
	}

	if existed {
		s.metrics.RecordOrderDeleted(ctx)
		if err := s.events.PublishOrderDeleted(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ClearOrders empties the ledger. The caller is expected to have obtained
// user confirmation; the service executes unconditionally.
func (s *Service) ClearOrders(ctx context.Context) error {
	removed := len(s.ledger.List())

	if err := s.ledger.Clear(ctx); err != nil {
		return err
	}

	return s.events.PublishLedgerCleared(ctx, removed)
}

// Subscribe exposes the ledger change-notification channel.
func (s *Service) Subscribe() <-chan struct{} {
	return s.ledger.Subscribe()
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
