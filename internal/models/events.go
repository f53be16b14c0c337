package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when checkout records an order
type OrderPlacedEvent struct {
	BaseEvent
	OrderID  string      `json:"order_id"`
	Customer string      `json:"customer"`
	Contact  string      `json:"contact,omitempty"`
	Total    int64       `json:"total"`
	Items    []OrderItem `json:"items"`
}

// OrderStatusChangedEvent published when staff move an order forward
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
	By      string      `json:"by"`
}
