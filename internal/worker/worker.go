package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// ProductLookup resolves a product by id from the live catalog
type ProductLookup interface {
	Get(ctx context.Context, id string) (models.Product, bool)
}

// OrderWorker handles background processing for order events
type OrderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	catalog      ProductLookup
	logger       *zap.Logger
}

// NewOrderWorker creates a new order worker
func NewOrderWorker(consumer *broker.Consumer, catalog ProductLookup) *OrderWorker {
	w := &OrderWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		catalog:      catalog,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	w.eventHandler.OnOrderStatusChanged(w.handleStatusChanged)
	return w
}

// Start starts the worker
func (w *OrderWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderWorker) Stop() error {
	w.logger.Info("Stopping order worker")
	return w.consumer.Close()
}

// handleOrderPlaced raises an alert for every ordered product whose stock
// is now at or below its critical level.
func (w *OrderWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderWorker.handleOrderPlaced")
	defer span.End()

	seen := make(map[string]bool, len(event.Items))
	for _, item := range event.Items {
		if seen[item.Code] {
			continue
		}
		seen[item.Code] = true

		p, ok := w.catalog.Get(ctx, item.Code)
		if !ok || !p.IsCritical() {
			continue
		}
		util.CriticalStockAlertsTotal.WithLabelValues(p.ID).Inc()
		w.logger.Warn("Product reached critical stock",
			zap.String("order_id", event.OrderID),
			zap.String("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("stock", p.Stock),
			zap.Int("critical_stock", p.CriticalStock))
	}
	return nil
}

func (w *OrderWorker) handleStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Order status changed",
		zap.String("order_id", event.OrderID),
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)),
		zap.String("by", event.By))
	return nil
}
