package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte("order-PED1"), Value: value}
}

func TestHandleMessageRoutesByType(t *testing.T) {
	ctx := context.Background()
	h := NewEventHandler()

	var placed *models.OrderPlacedEvent
	var changed *models.OrderStatusChangedEvent
	h.OnOrderPlaced(func(_ context.Context, e *models.OrderPlacedEvent) error {
		placed = e
		return nil
	})
	h.OnOrderStatusChanged(func(_ context.Context, e *models.OrderStatusChangedEvent) error {
		changed = e
		return nil
	})

	require.NoError(t, h.HandleMessage(ctx, message(t, &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderPlaced, Timestamp: time.Now()},
		OrderID:   "PED1",
		Total:     3000,
		Items:     []models.OrderItem{{Code: "TE001", Name: "Torta", Qty: 1, Price: 55000}},
	})))
	require.NotNil(t, placed)
	assert.Equal(t, "PED1", placed.OrderID)
	assert.Equal(t, "TE001", placed.Items[0].Code)
	assert.Nil(t, changed)

	require.NoError(t, h.HandleMessage(ctx, message(t, &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypeOrderStatusChanged},
		OrderID:   "PED1",
		From:      models.OrderStatusPending,
		To:        models.OrderStatusPreparing,
	})))
	require.NotNil(t, changed)
	assert.Equal(t, models.OrderStatusPreparing, changed.To)
}

func TestHandleMessageIgnoresUnknownAndUnregistered(t *testing.T) {
	ctx := context.Background()
	h := NewEventHandler()

	assert.NoError(t, h.HandleMessage(ctx, message(t, &models.BaseEvent{EventType: "SOMETHING_ELSE"})))
	assert.NoError(t, h.HandleMessage(ctx, message(t, &models.BaseEvent{EventType: models.EventTypeOrderPlaced})))
	assert.Error(t, h.HandleMessage(ctx, kafka.Message{Value: []byte("not json")}))
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher()
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), &models.OrderPlacedEvent{OrderID: "PED1"}))
	assert.NoError(t, p.PublishOrderStatusChanged(context.Background(), &models.OrderStatusChangedEvent{OrderID: "PED1"}))
}

func TestOrderKey(t *testing.T) {
	assert.Equal(t, "order-PED1700000000000", orderKey("PED1700000000000"))
}
