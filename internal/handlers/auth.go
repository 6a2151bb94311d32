package handlers

import (
	"encoding/json"
	"net/http"

	"printshop/internal/logger"
	"printshop/internal/models"
)

// AuthHandler обрабатывает регистрацию, вход и административный доступ.
type AuthHandler struct {
	authService AuthService
	log         *logger.Logger
}

// NewAuthHandler создает новый обработчик аутентификации.
func NewAuthHandler(authService AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// Signup регистрирует нового пользователя.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to sign up user")
		return
	}

	writeJSONResponse(w, http.StatusCreated, resp)
}

// Login выполняет вход пользователя.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to log in user")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// AdminLoginRequest представляет запрос на вход администратора.
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// AdminLogin обменивает административный пароль на токен.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.authService.AdminLogin(req.Password)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to log in admin")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"token": token})
}

// AdminStatus подтверждает, что предъявленный токен дает административный доступ.
// Доступность проверяется в AdminMiddleware, поэтому здесь остается только ответ.
func (h *AuthHandler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"admin": true})
}

// AdminLogout завершает сессию администратора. Токены не хранятся на сервере,
// поэтому фактический сброс происходит на клиенте.
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
