package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"printshop/internal/logger"
	"printshop/internal/models"
)

// DiscountHandler обрабатывает скидочные коды.
type DiscountHandler struct {
	discountService DiscountService
	producer        EventProducer
	log             *logger.Logger
}

// NewDiscountHandler создает новый обработчик скидочных кодов.
func NewDiscountHandler(discountService DiscountService, producer EventProducer, log *logger.Logger) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		producer:        producer,
		log:             log,
	}
}

// LookupDiscount возвращает параметры кода, если он пригоден к применению.
// Используется магазином для предварительного показа скидки.
func (h *DiscountHandler) LookupDiscount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	code := strings.TrimPrefix(r.URL.Path, "/api/discount/")
	if code == "" || strings.Contains(code, "/") {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid discount code")
		return
	}

	discount, err := h.discountService.ResolveDiscount(r.Context(), code)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to look up discount code")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"code":           discount.Code,
		"discount_type":  discount.DiscountType,
		"discount_value": discount.DiscountValue,
	})
}

// CreateDiscountCode создает скидочный код (администратор).
func (h *DiscountHandler) CreateDiscountCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateDiscountCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code, err := h.discountService.CreateDiscountCode(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create discount code")
		return
	}

	if err := h.producer.PublishDiscountCreated(code); err != nil {
		h.log.WithError(err).Error("Failed to publish discount created event")
	}

	writeJSONResponse(w, http.StatusCreated, code)
}

// ListDiscountCodes возвращает все скидочные коды (администратор).
func (h *DiscountHandler) ListDiscountCodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()

	limit := 50
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

	codes, err := h.discountService.ListDiscountCodes(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list discount codes")
		return
	}

	writeJSONResponse(w, http.StatusOK, codes)
}

// DeleteDiscountCode удаляет скидочный код (администратор).
func (h *DiscountHandler) DeleteDiscountCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	codeID, err := extractUUIDFromPath(r.URL.Path, "/admin/discounts/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid discount code ID")
		return
	}

	code, err := h.discountService.DeleteDiscountCode(r.Context(), codeID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to delete discount code")
		return
	}

	if err := h.producer.PublishDiscountDeleted(code.ID, code.Code); err != nil {
		h.log.WithError(err).Error("Failed to publish discount deleted event")
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Discount code deleted"})
}
