package handlers

import (
	"net/http"
	"strconv"

	"printshop/internal/logger"
	"printshop/internal/models"
	"printshop/internal/redis"
)

// UserHandler обрабатывает запросы по пользователям.
type UserHandler struct {
	userService UserService
	producer    EventProducer
	redisClient RedisClient
	log         *logger.Logger
}

// NewUserHandler создает новый обработчик пользователей.
func NewUserHandler(userService UserService, producer EventProducer, redisClient RedisClient, log *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		producer:    producer,
		redisClient: redisClient,
		log:         log,
	}
}

// GetUser возвращает профиль пользователя. Пользователь видит только себя.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
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

	cacheKey := redis.GenerateKey(redis.KeyPrefixUser, userID.String())
	var cached models.User
	if err := h.redisClient.Get(r.Context(), cacheKey, &cached); err == nil {
		writeJSONResponse(w, http.StatusOK, &cached)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get user")
		return
	}

	if err := h.redisClient.Set(r.Context(), cacheKey, user, defaultCacheTTL); err != nil {
		h.log.WithError(err).Error("Failed to cache user")
	}

	writeJSONResponse(w, http.StatusOK, user)
}

// GetUserDetails возвращает профиль пользователя для администратора.
func (h *UserHandler) GetUserDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, err := extractUUIDFromPath(r.URL.Path, "/admin/users/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get user details")
		return
	}

	writeJSONResponse(w, http.StatusOK, user)
}

// ListUsers возвращает список пользователей (администратор).
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
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

	users, err := h.userService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list users")
		return
	}

	writeJSONResponse(w, http.StatusOK, users)
}

// DeleteUser удаляет пользователя вместе с его заказами (администратор).
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, err := extractUUIDFromPath(r.URL.Path, "/admin/users/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete user")
		return
	}

	if err := h.producer.PublishUserDeleted(userID); err != nil {
		h.log.WithError(err).Error("Failed to publish user deleted event")
	}

	cacheKey := redis.GenerateKey(redis.KeyPrefixUser, userID.String())
	if err := h.redisClient.Delete(r.Context(), cacheKey); err != nil {
		h.log.WithError(err).Error("Failed to invalidate user cache")
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
