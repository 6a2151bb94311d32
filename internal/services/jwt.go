package services

import (
	"fmt"
	"time"

	"printshop/internal/apperror"
	"printshop/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService выпускает и проверяет JWT токены.
type TokenService struct {
	secret   []byte
	tokenTTL time.Duration
}

// TokenClaims содержит разобранные claims токена.
type TokenClaims struct {
	UserID uuid.UUID
	Role   models.Role
}

// NewTokenService создает сервис токенов.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		tokenTTL: ttl,
	}
}

// GenerateToken выпускает подписанный HS256 токен для пользователя.
func (s *TokenService) GenerateToken(userID uuid.UUID, role models.Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken проверяет подпись и срок действия токена и возвращает claims.
func (s *TokenService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, apperror.Unauthorized("invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("invalid token claims", nil)
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, apperror.Unauthorized("token subject missing", nil)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperror.Unauthorized("token subject is not a valid id", err)
	}

	role := models.RoleUser
	if r, ok := claims["role"].(string); ok && r != "" {
		role = models.Role(r)
	}

	return &TokenClaims{UserID: userID, Role: role}, nil
}
