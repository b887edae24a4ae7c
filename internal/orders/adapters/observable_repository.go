package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableRepository decorates a ledger repository with tracing and storage
// operation metrics. When the wrapped repository can watch for external
// changes the decorator passes the signal through.
type ObservableRepository struct {
	repo    ports.Repository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.Repository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Load(ctx context.Context) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "LedgerRepository.Load")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("operation", "load"))

	start := time.Now()
	orders, err := r.repo.Load(ctx)
	duration := time.Since(start).Seconds()

	r.metrics.RecordOperation(ctx, "load_ledger", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("ledger.orders", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (r *ObservableRepository) Save(ctx context.Context, orders []domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "LedgerRepository.Save")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("operation", "save"),
		attribute.Int("ledger.orders", len(orders)),
	)

	start := time.Now()
	err := r.repo.Save(ctx, orders)
	duration := time.Since(start).Seconds()

	r.metrics.RecordOperation(ctx, "save_ledger", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

// Changes forwards the wrapped repository's external-change signal, or a nil
// channel when the repository cannot watch.
func (r *ObservableRepository) Changes() <-chan struct{} {
	if watcher, ok := r.repo.(ports.Watcher); ok {
		return watcher.Changes()
	}
	return nil
}
