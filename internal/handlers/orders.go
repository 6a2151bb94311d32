package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"printshop/internal/logger"
	"printshop/internal/models"
	"printshop/internal/redis"
	"printshop/internal/services"

	"github.com/google/uuid"
)

// OrderHandler представляет обработчик заказов
type OrderHandler struct {
	orderService OrderService
	producer     EventProducer
	redisClient  RedisClient
	log          *logger.Logger
}

// NewOrderHandler создает новый обработчик заказов
func NewOrderHandler(orderService OrderService, producer EventProducer, redisClient RedisClient, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		producer:     producer,
		redisClient:  redisClient,
		log:          log,
	}
}

// SubmitOrder оформляет новый заказ от имени текущего пользователя.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Заказ всегда оформляется на владельца токена
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		req.UserID = claims.UserID
	}

	order, err := h.orderService.FinalizeOrder(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create order")
		return
	}

	// Публикация события в Kafka
	if err := h.producer.PublishOrderCreated(order); err != nil {
		h.log.WithError(err).Error("Failed to publish order created event")
		// Не возвращаем ошибку клиенту, так как заказ уже создан
	}

	// Кеширование заказа в Redis
	cacheKey := redis.GenerateKey(redis.KeyPrefixOrder, order.ID.String())
	if err := h.redisClient.Set(r.Context(), cacheKey, order, defaultCacheTTL); err != nil {
		h.log.WithError(err).Error("Failed to cache order")
	}
	h.invalidateUserOrders(r, order.UserID)

	h.log.WithField("order_id", order.ID).Info("Order submitted")

	writeJSONResponse(w, http.StatusCreated, &models.OrderReceipt{
		OrderID:         order.ID,
		BaseCost:        order.BaseCost,
		DiscountApplied: order.DiscountApplied,
		FinalAmount:     order.Amount,
	})
}

// PreviewCost рассчитывает стоимость заказа без его создания.
func (h *OrderHandler) PreviewCost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CostPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	preview, err := h.orderService.PreviewCost(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to preview cost")
		return
	}

	writeJSONResponse(w, http.StatusOK, preview)
}

// GetOrder получает заказ по ID. Пользователь видит только свои заказы.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	claims := ClaimsFromContext(r.Context())

	// Попытка получить из кеша
	cacheKey := redis.GenerateKey(redis.KeyPrefixOrder, orderID.String())
	var cached models.Order
	if err := h.redisClient.Get(r.Context(), cacheKey, &cached); err == nil {
		if !canSeeOrder(claims, &cached) {
			writeErrorResponse(w, http.StatusNotFound, "Order not found")
			return
		}
		h.log.WithField("order_id", orderID).Debug("Order retrieved from cache")
		writeJSONResponse(w, http.StatusOK, &cached)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get order")
		return
	}
	if !canSeeOrder(claims, order) {
		writeErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := h.redisClient.Set(r.Context(), cacheKey, order, defaultCacheTTL); err != nil {
		h.log.WithError(err).Error("Failed to cache order")
	}

	writeJSONResponse(w, http.StatusOK, order)
}

// GetUserOrders возвращает заказы пользователя: все, активные или завершённые.
func (h *OrderHandler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, err := extractUUIDFromPath(r.URL.Path, "/api/users/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	claims := ClaimsFromContext(r.Context())
	if claims == nil || (claims.Role != models.RoleAdmin && claims.UserID != userID) {
		writeErrorResponse(w, http.StatusForbidden, "Access denied")
		return
	}

	filter := services.OrderFilterAll
	switch {
	case strings.HasSuffix(r.URL.Path, "/active"):
		filter = services.OrderFilterActive
	case strings.HasSuffix(r.URL.Path, "/completed"):
		filter = services.OrderFilterCompleted
	}

	orders, err := h.orderService.GetUserOrders(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get user orders")
		return
	}

	writeJSONResponse(w, http.StatusOK, orders)
}

// ListOrders возвращает все заказы для администратора.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()

	var status *models.OrderStatus
	if statusStr := query.Get("status"); statusStr != "" {
		s := models.OrderStatus(statusStr)
		status = &s
	}

	limit := 50 // По умолчанию
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	orders, err := h.orderService.ListOrders(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list orders")
		return
	}

	writeJSONResponse(w, http.StatusOK, orders)
}

// CreateOrderForUser оформляет заказ от имени указанного пользователя (администратор).
func (h *OrderHandler) CreateOrderForUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.FinalizeOrder(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create order")
		return
	}

	if err := h.producer.PublishOrderCreated(order); err != nil {
		h.log.WithError(err).Error("Failed to publish order created event")
	}
	h.invalidateUserOrders(r, order.UserID)

	writeJSONResponse(w, http.StatusCreated, order)
}

// ConfirmOrder переводит заказ в статус confirmed.
func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, models.OrderStatusConfirmed)
}

// CompleteOrder переводит заказ в статус completed.
func (h *OrderHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, models.OrderStatusCompleted)
}

// CancelOrder переводит заказ в статус cancelled.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, models.OrderStatusCancelled)
}

func (h *OrderHandler) changeStatus(w http.ResponseWriter, r *http.Request, newStatus models.OrderStatus) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/admin/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	oldStatus, err := h.orderService.UpdateOrderStatus(r.Context(), orderID, newStatus)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update order status")
		return
	}

	if err := h.producer.PublishOrderStatusChanged(orderID, oldStatus, newStatus); err != nil {
		h.log.WithError(err).Error("Failed to publish order status changed event")
	}

	h.invalidateOrder(r, orderID)

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"order_id": orderID,
		"status":   newStatus,
	})
}

// DeleteOrder удаляет заказ.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/admin/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), orderID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete order")
		return
	}

	if err := h.producer.PublishOrderDeleted(orderID); err != nil {
		h.log.WithError(err).Error("Failed to publish order deleted event")
	}

	h.invalidateOrder(r, orderID)

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}

// UpdateAmount выставляет итоговую сумму заказа вручную.
func (h *OrderHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/admin/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req models.UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.UpdateAmount(r.Context(), orderID, req.Amount)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update order amount")
		return
	}

	h.invalidateOrder(r, orderID)
	writeJSONResponse(w, http.StatusOK, order)
}

// UpdateDiscountApplied выставляет скидку заказа вручную.
func (h *OrderHandler) UpdateDiscountApplied(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/admin/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req models.UpdateDiscountAppliedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.UpdateDiscountApplied(r.Context(), orderID, req.DiscountApplied)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update order discount")
		return
	}

	h.invalidateOrder(r, orderID)
	writeJSONResponse(w, http.StatusOK, order)
}

func (h *OrderHandler) invalidateOrder(r *http.Request, orderID uuid.UUID) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixOrder, orderID.String())
	if err := h.redisClient.Delete(r.Context(), cacheKey); err != nil {
		h.log.WithError(err).Error("Failed to invalidate order cache")
	}
}

func (h *OrderHandler) invalidateUserOrders(r *http.Request, userID uuid.UUID) {
	prefix := redis.GenerateKey(redis.KeyPrefixUserOrders, userID.String())
	if err := h.redisClient.DeleteByPrefix(r.Context(), prefix); err != nil {
		h.log.WithError(err).Error("Failed to invalidate user orders cache")
	}
}

func canSeeOrder(claims *services.TokenClaims, order *models.Order) bool {
	if claims == nil {
		return false
	}
	return claims.Role == models.RoleAdmin || claims.UserID == order.UserID
}
