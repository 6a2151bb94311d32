package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"printshop/internal/apperror"
	"printshop/internal/database"
	"printshop/internal/logger"
	"printshop/internal/models"
	"printshop/internal/pricing"

	"github.com/google/uuid"
)

// OrderFilter ограничивает выборку заказов пользователя.
type OrderFilter string

const (
	OrderFilterAll       OrderFilter = "all"
	OrderFilterActive    OrderFilter = "active"
	OrderFilterCompleted OrderFilter = "completed"
)

// OrderService представляет сервис для работы с заказами на печать.
type OrderService struct {
	db        *database.DB
	log       *logger.Logger
	discounts *DiscountService
}

// NewOrderService создает новый экземпляр сервиса заказов.
func NewOrderService(db *database.DB, log *logger.Logger, discounts *DiscountService) *OrderService {
	return &OrderService{
		db:        db,
		log:       log,
		discounts: discounts,
	}
}

// PreviewCost рассчитывает стоимость заказа без его создания.
// Использует тот же расчет, что и FinalizeOrder, поэтому предварительная
// и итоговая суммы совпадают для одних и тех же параметров.
func (s *OrderService) PreviewCost(ctx context.Context, req *models.CostPreviewRequest) (*models.CostPreview, error) {
	if err := validatePricingInput(req.Material, req.WeightGrams, req.DeliveryMethod, req.Fulfillment, req.DelegateSizing); err != nil {
		return nil, err
	}

	material, weight := normalizeSizing(req.Material, req.WeightGrams, req.DelegateSizing)
	baseCost := pricing.ComputeBaseCost(material, weight, req.DeliveryMethod,
		req.Fulfillment, req.ShippingLocation, req.DelegateSizing)

	var code *models.DiscountCode
	if req.DiscountCode != nil && *req.DiscountCode != "" {
		resolved, err := s.discounts.ResolveDiscount(ctx, *req.DiscountCode)
		if err != nil {
			if !apperror.Is(err, apperror.KindNotFound) {
				return nil, err
			}
			// Непригодный код не срывает расчет: показываем цену без скидки.
		} else {
			code = resolved
		}
	}

	applied, final := pricing.ApplyDiscount(baseCost, code)
	return &models.CostPreview{
		BaseCost:        pricing.Round2(baseCost),
		DiscountApplied: applied,
		FinalAmount:     final,
	}, nil
}

// FinalizeOrder создает заказ: считает стоимость, списывает использование
// скидочного кода и сохраняет заказ в одной транзакции.
func (s *OrderService) FinalizeOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if req.UserID == uuid.Nil {
		return nil, apperror.Validation("user_id is required", nil)
	}
	if strings.TrimSpace(req.ModelName) == "" {
		return nil, apperror.Validation("model_name is required", nil)
	}
	if err := validatePricingInput(req.Material, req.WeightGrams, req.DeliveryMethod, req.Fulfillment, req.DelegateSizing); err != nil {
		return nil, err
	}

	fulfillment := req.Fulfillment
	if fulfillment == "" {
		fulfillment = models.FulfillmentDelivery
	}

	material, weight := normalizeSizing(req.Material, req.WeightGrams, req.DelegateSizing)
	baseCost := pricing.ComputeBaseCost(material, weight, req.DeliveryMethod,
		fulfillment, req.ShippingLocation, req.DelegateSizing)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		discountApplied float64
		discountCodeID  *uuid.UUID
	)
	if req.DiscountCode != nil && *req.DiscountCode != "" {
		discountApplied, discountCodeID, err = s.discounts.ApplyDiscountWithTx(ctx, tx, *req.DiscountCode, baseCost)
		if err != nil {
			return nil, err
		}
	}

	amount := pricing.Round2(math.Max(0, baseCost-discountApplied))

	order := &models.Order{
		ID:               uuid.New(),
		UserID:           req.UserID,
		ModelName:        strings.TrimSpace(req.ModelName),
		Material:         material,
		WeightGrams:      weight,
		DeliveryMethod:   req.DeliveryMethod,
		Fulfillment:      fulfillment,
		ShippingLocation: req.ShippingLocation,
		DelegateSizing:   req.DelegateSizing,
		Description:      req.Description,
		BaseCost:         pricing.Round2(baseCost),
		DiscountCodeID:   discountCodeID,
		DiscountApplied:  discountApplied,
		Amount:           amount,
		Status:           models.OrderStatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	query := `
		INSERT INTO orders (id, user_id, model_name, material, weight_grams, delivery_method, fulfillment, shipping_location, delegate_sizing, description, base_cost, discount_code_id, discount_applied, amount, status, fulfilled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, false, $16, $17)
	`
	_, err = tx.ExecContext(ctx, query, order.ID, order.UserID, order.ModelName, order.Material,
		order.WeightGrams, order.DeliveryMethod, order.Fulfillment, order.ShippingLocation,
		order.DelegateSizing, order.Description, order.BaseCost, order.DiscountCodeID,
		order.DiscountApplied, order.Amount, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"model_name": order.ModelName,
		"amount":     order.Amount,
	}).Info("Order created successfully")

	return order, nil
}

const orderColumns = `id, user_id, model_name, material, weight_grams, delivery_method, fulfillment, shipping_location, delegate_sizing, description, base_cost, discount_code_id, discount_applied, amount, status, fulfilled, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }, order *models.Order) error {
	return row.Scan(
		&order.ID, &order.UserID, &order.ModelName, &order.Material, &order.WeightGrams,
		&order.DeliveryMethod, &order.Fulfillment, &order.ShippingLocation, &order.DelegateSizing,
		&order.Description, &order.BaseCost, &order.DiscountCodeID, &order.DiscountApplied,
		&order.Amount, &order.Status, &order.Fulfilled, &order.CreatedAt, &order.UpdatedAt,
	)
}

// GetOrder получает заказ по ID.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)

	if err := scanOrder(s.db.QueryRowContext(ctx, query, orderID), order); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("order not found", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetUserOrders возвращает заказы пользователя с фильтром по состоянию.
func (s *OrderService) GetUserOrders(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE user_id = $1", orderColumns)

	switch filter {
	case OrderFilterActive:
		query += " AND status IN ('pending', 'confirmed')"
	case OrderFilterCompleted:
		query += " AND status = 'completed'"
	case OrderFilterAll, "":
	default:
		return nil, apperror.Validation("invalid order filter", nil)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := scanOrder(rows, order); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// ListOrders возвращает заказы для администратора с именем пользователя.
func (s *OrderService) ListOrders(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT o.id, o.user_id, u.username, o.model_name, o.material, o.weight_grams, o.delivery_method, o.fulfillment, o.shipping_location, o.delegate_sizing, o.description, o.base_cost, o.discount_code_id, o.discount_applied, o.amount, o.status, o.fulfilled, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if status != nil {
		query += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY o.created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.Username, &order.ModelName, &order.Material,
			&order.WeightGrams, &order.DeliveryMethod, &order.Fulfillment, &order.ShippingLocation,
			&order.DelegateSizing, &order.Description, &order.BaseCost, &order.DiscountCodeID,
			&order.DiscountApplied, &order.Amount, &order.Status, &order.Fulfilled,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus переводит заказ в новый статус и возвращает прежний.
// Переходы не ограничены: администратор может выставить любой статус.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus) (models.OrderStatus, error) {
	switch newStatus {
	case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusCompleted, models.OrderStatusCancelled:
	default:
		return "", apperror.Validation("invalid order status", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var currentStatus models.OrderStatus
	selectQuery := `SELECT status FROM orders WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, selectQuery, orderID).Scan(&currentStatus); err != nil {
		if err == sql.ErrNoRows {
			return "", apperror.NotFound("order not found", err)
		}
		return "", fmt.Errorf("failed to fetch order status: %w", err)
	}

	fulfilled := newStatus == models.OrderStatusCompleted

	updateQuery := `
		UPDATE orders
		SET status = $1, fulfilled = $2, updated_at = $3
		WHERE id = $4
	`
	if _, err := tx.ExecContext(ctx, updateQuery, newStatus, fulfilled, time.Now(), orderID); err != nil {
		return "", fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit order status update: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":   orderID,
		"old_status": currentStatus,
		"new_status": newStatus,
	}).Info("Order status updated")

	return currentStatus, nil
}

// DeleteOrder удаляет заказ.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("order not found", nil)
	}

	s.log.WithField("order_id", orderID).Info("Order deleted")
	return nil
}

// UpdateAmount выставляет итоговую сумму заказа вручную.
func (s *OrderService) UpdateAmount(ctx context.Context, orderID uuid.UUID, amount float64) (*models.Order, error) {
	if amount < 0 {
		return nil, apperror.Validation("amount must be non-negative", nil)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE orders SET amount = $1, updated_at = $2 WHERE id = $3",
		pricing.Round2(amount), time.Now(), orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order amount: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("order not found", nil)
	}

	return s.GetOrder(ctx, orderID)
}

// UpdateDiscountApplied выставляет скидку заказа вручную и пересчитывает сумму.
func (s *OrderService) UpdateDiscountApplied(ctx context.Context, orderID uuid.UUID, discountApplied float64) (*models.Order, error) {
	if discountApplied < 0 {
		return nil, apperror.Validation("discount_applied must be non-negative", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var baseCost float64
	if err := tx.QueryRowContext(ctx, "SELECT base_cost FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&baseCost); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("order not found", err)
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	applied := pricing.Round2(discountApplied)
	amount := pricing.Round2(math.Max(0, baseCost-applied))

	updateQuery := `
		UPDATE orders
		SET discount_applied = $1, amount = $2, updated_at = $3
		WHERE id = $4
	`
	if _, err := tx.ExecContext(ctx, updateQuery, applied, amount, time.Now(), orderID); err != nil {
		return nil, fmt.Errorf("failed to update order discount: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit discount update: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

// normalizeSizing сбрасывает вес и материал, если размер согласует оператор:
// точные параметры печати в этом случае определяются позже.
func normalizeSizing(material string, weightGrams int, delegateSizing bool) (string, int) {
	if delegateSizing {
		return "pla", 0
	}
	return material, weightGrams
}

func validatePricingInput(material string, weightGrams int, deliveryMethod string, fulfillment models.FulfillmentMode, delegateSizing bool) error {
	if !delegateSizing {
		if strings.TrimSpace(material) == "" {
			return apperror.Validation("material is required", nil)
		}
		if weightGrams <= 0 {
			return apperror.Validation("weight_grams must be positive", nil)
		}
	}
	switch fulfillment {
	case "", models.FulfillmentDelivery:
		// Доставка требует явного способа; самовывоз обходится без него.
		if strings.TrimSpace(deliveryMethod) == "" {
			return apperror.Validation("delivery_method is required", nil)
		}
		return nil
	case models.FulfillmentCollection:
		return nil
	default:
		return apperror.Validation("invalid fulfillment mode", nil)
	}
}
