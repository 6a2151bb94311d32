package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// FulfillmentMode определяет способ получения заказа.
type FulfillmentMode string

const (
	FulfillmentDelivery   FulfillmentMode = "delivery"
	FulfillmentCollection FulfillmentMode = "collection"
)

// Order представляет заказ на 3D-печать
type Order struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	Username         string          `json:"username,omitempty" db:"username"`
	ModelName        string          `json:"model_name" db:"model_name"`
	Material         string          `json:"material" db:"material"`
	WeightGrams      int             `json:"weight_grams" db:"weight_grams"`
	DeliveryMethod   string          `json:"delivery_method" db:"delivery_method"`
	Fulfillment      FulfillmentMode `json:"fulfillment" db:"fulfillment"`
	ShippingLocation string          `json:"shipping_location" db:"shipping_location"`
	DelegateSizing   bool            `json:"delegate_sizing" db:"delegate_sizing"`
	Description      string          `json:"description" db:"description"`
	BaseCost         float64         `json:"base_cost" db:"base_cost"`
	DiscountCodeID   *uuid.UUID      `json:"discount_code_id,omitempty" db:"discount_code_id"`
	DiscountApplied  float64         `json:"discount_applied" db:"discount_applied"`
	Amount           float64         `json:"amount" db:"amount"`
	Status           OrderStatus     `json:"status" db:"status"`
	Fulfilled        bool            `json:"fulfilled" db:"fulfilled"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest представляет запрос на создание заказа
type CreateOrderRequest struct {
	UserID           uuid.UUID       `json:"user_id"`
	ModelName        string          `json:"model_name"`
	Material         string          `json:"material"`
	WeightGrams      int             `json:"weight_grams"`
	DeliveryMethod   string          `json:"delivery_method"`
	Fulfillment      FulfillmentMode `json:"fulfillment"`
	ShippingLocation string          `json:"shipping_location"`
	DelegateSizing   bool            `json:"delegate_sizing"`
	Description      string          `json:"description,omitempty"`
	DiscountCode     *string         `json:"discount_code,omitempty"`
}

// CostPreviewRequest представляет запрос на предварительный расчет стоимости
type CostPreviewRequest struct {
	Material         string          `json:"material"`
	WeightGrams      int             `json:"weight_grams"`
	DeliveryMethod   string          `json:"delivery_method"`
	Fulfillment      FulfillmentMode `json:"fulfillment"`
	ShippingLocation string          `json:"shipping_location"`
	DelegateSizing   bool            `json:"delegate_sizing"`
	DiscountCode     *string         `json:"discount_code,omitempty"`
}

// CostPreview представляет разбивку стоимости без создания заказа
type CostPreview struct {
	BaseCost        float64 `json:"base_cost"`
	DiscountApplied float64 `json:"discount_applied"`
	FinalAmount     float64 `json:"final_amount"`
}

// OrderReceipt агрегирует результат оформления заказа
type OrderReceipt struct {
	OrderID         uuid.UUID `json:"order_id"`
	BaseCost        float64   `json:"base_cost"`
	DiscountApplied float64   `json:"discount_applied"`
	FinalAmount     float64   `json:"final_amount"`
}

// UpdateAmountRequest представляет запрос на изменение суммы заказа администратором
type UpdateAmountRequest struct {
	Amount float64 `json:"amount"`
}

// UpdateDiscountAppliedRequest представляет запрос на изменение применённой скидки администратором
type UpdateDiscountAppliedRequest struct {
	DiscountApplied float64 `json:"discount_applied"`
}
