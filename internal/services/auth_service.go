package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"printshop/internal/apperror"
	"printshop/internal/database"
	"printshop/internal/logger"
	"printshop/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// AuthService управляет регистрацией, входом и администраторским доступом.
type AuthService struct {
	db            *database.DB
	log           *logger.Logger
	tokens        *TokenService
	bcryptCost    int
	adminPassword string
}

// NewAuthService создает сервис аутентификации.
func NewAuthService(db *database.DB, log *logger.Logger, tokens *TokenService, bcryptCost int, adminPassword string) *AuthService {
	return &AuthService{
		db:            db,
		log:           log,
		tokens:        tokens,
		bcryptCost:    bcryptCost,
		adminPassword: adminPassword,
	}
}

// Signup регистрирует нового пользователя и возвращает токен.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperror.Validation("username is required", nil)
	}
	if req.Password == "" {
		return nil, apperror.Validation("password is required", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.New()
	query := `
		INSERT INTO users (id, username, password_hash, profile_image_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query, userID, username, string(hash), req.ProfileImageURL, time.Now())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.Conflict("username already taken", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(userID, models.RoleUser)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"user_id":  userID,
		"username": username,
	}).Info("User registered")

	return &models.AuthResponse{UserID: userID, Token: token}, nil
}

// Login проверяет пароль пользователя и возвращает токен.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, apperror.Validation("username and password are required", nil)
	}

	var (
		userID uuid.UUID
		hash   string
	)
	query := `SELECT id, password_hash FROM users WHERE username = $1`
	if err := s.db.QueryRowContext(ctx, query, username).Scan(&userID, &hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.Unauthorized("invalid username or password", err)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid username or password", err)
	}

	token, err := s.tokens.GenerateToken(userID, models.RoleUser)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", userID).Info("User logged in")

	return &models.AuthResponse{UserID: userID, Token: token}, nil
}

// AdminLogin обменивает административный пароль на токен с ролью admin.
func (s *AuthService) AdminLogin(password string) (string, error) {
	if s.adminPassword == "" {
		return "", apperror.Unauthorized("admin access is not configured", nil)
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		return "", apperror.Unauthorized("invalid admin password", nil)
	}

	token, err := s.tokens.GenerateToken(uuid.Nil, models.RoleAdmin)
	if err != nil {
		return "", err
	}

	s.log.Info("Admin session issued")
	return token, nil
}
