package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события в системе.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderDeleted       EventType = "order.deleted"
	EventTypeDiscountCreated    EventType = "discount.created"
	EventTypeDiscountDeleted    EventType = "discount.deleted"
	EventTypeUserDeleted        EventType = "user.deleted"
)

// Event представляет событие, публикуемое в Kafka.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// OrderStatusChangedData содержит полезную нагрузку события смены статуса.
type OrderStatusChangedData struct {
	OrderID   uuid.UUID   `json:"order_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
}
