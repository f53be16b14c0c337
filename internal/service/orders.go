package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrStatusRegression = errors.New("order status cannot move backwards")
	ErrUnknownStatus    = errors.New("unknown order status")
)

// OrderEvents publishes order lifecycle events
type OrderEvents interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService is the staff view of the order ledger
type OrderService struct {
	state  *State
	events OrderEvents
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(state *State, events OrderEvents) *OrderService {
	return &OrderService{
		state:  state,
		events: events,
		logger: util.GetLogger(),
	}
}

// List returns every order, oldest first; staff only
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if err := s.state.requireStaff(); err != nil {
		return nil, err
	}
	return append([]models.Order{}, s.state.orders...), nil
}

// Get returns the order with the given id; staff only
func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if err := s.state.requireStaff(); err != nil {
		return models.Order{}, err
	}
	idx := s.state.findOrder(id)
	if idx < 0 {
		return models.Order{}, ErrOrderNotFound
	}
	return s.state.orders[idx], nil
}

// Advance moves the order to the next status. An order already delivered is
// returned unchanged; an order with an unrecognized status moves to Pendiente.
func (s *OrderService) Advance(ctx context.Context, id string) (models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Advance")
	defer span.End()

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if err := s.state.requireStaff(); err != nil {
		return models.Order{}, err
	}
	idx := s.state.findOrder(id)
	if idx < 0 {
		return models.Order{}, ErrOrderNotFound
	}

	rank := s.state.orders[idx].Status.Rank()
	if rank == len(models.OrderStatuses)-1 {
		return s.state.orders[idx], nil
	}
	return s.transition(ctx, idx, models.OrderStatuses[rank+1])
}

// SetStatus moves the order to the given status, rejecting unknown statuses
// and moves backwards
func (s *OrderService) SetStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SetStatus")
	defer span.End()

	if status.Rank() < 0 {
		return models.Order{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if err := s.state.requireStaff(); err != nil {
		return models.Order{}, err
	}
	idx := s.state.findOrder(id)
	if idx < 0 {
		return models.Order{}, ErrOrderNotFound
	}

	current := s.state.orders[idx].Status
	if current == status {
		return s.state.orders[idx], nil
	}
	if status.Rank() < current.Rank() {
		return models.Order{}, fmt.Errorf("%w: %s to %s", ErrStatusRegression, current, status)
	}
	return s.transition(ctx, idx, status)
}

// transition persists the new status and announces it. Caller holds the lock.
func (s *OrderService) transition(ctx context.Context, idx int, to models.OrderStatus) (models.Order, error) {
	orders := append([]models.Order{}, s.state.orders...)
	from := orders[idx].Status
	orders[idx].Status = to

	if err := s.state.persist(ctx, store.KeyOrders, orders); err != nil {
		return models.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	s.state.orders = orders
	order := orders[idx]

	util.OrderStatusChangesTotal.WithLabelValues(string(to)).Inc()
	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	by := ""
	if s.state.adminSession != nil {
		by = s.state.adminSession.Email
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID: order.ID,
		From:    from,
		To:      to,
		By:      by,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return order, nil
}

// Summary counts orders per known status; staff only
func (s *OrderService) Summary(ctx context.Context) (map[models.OrderStatus]int, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if err := s.state.requireStaff(); err != nil {
		return nil, err
	}

	summary := make(map[models.OrderStatus]int, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		summary[st] = 0
	}
	for _, o := range s.state.orders {
		if _, known := summary[o.Status]; known {
			summary[o.Status]++
		}
	}
	return summary, nil
}

func (s *State) findOrder(id string) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// appendOrder adds an order to the ledger. Caller holds the lock.
func (s *State) appendOrder(ctx context.Context, order models.Order) error {
	orders := append(append([]models.Order{}, s.orders...), order)
	if err := s.persist(ctx, store.KeyOrders, orders); err != nil {
		return fmt.Errorf("failed to append order: %w", err)
	}
	s.orders = orders
	return nil
}
