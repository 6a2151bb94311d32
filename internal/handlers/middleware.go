package handlers

import (
	"context"
	"net/http"
	"strings"

	"printshop/internal/logger"
	"printshop/internal/models"
	"printshop/internal/services"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// ClaimsFromContext возвращает claims текущего запроса, если они есть.
func ClaimsFromContext(ctx context.Context) *services.TokenClaims {
	claims, _ := ctx.Value(claimsContextKey).(*services.TokenClaims)
	return claims
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware требует валидный токен и кладет claims в контекст запроса.
func AuthMiddleware(validator TokenValidator, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeErrorResponse(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			log.WithError(err).Debug("Token validation failed")
			writeErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// AdminMiddleware требует токен с ролью admin.
func AdminMiddleware(validator TokenValidator, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return AuthMiddleware(validator, log, func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || claims.Role != models.RoleAdmin {
			writeErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}
