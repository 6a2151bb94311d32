package models

import (
	"time"

	"github.com/google/uuid"
)

// Role определяет уровень доступа владельца токена.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User представляет учетную запись клиента.
type User struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Username        string    `json:"username" db:"username"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	ProfileImageURL string    `json:"profile_image_url" db:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// SignupRequest описывает запрос на регистрацию.
type SignupRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// LoginRequest описывает запрос на вход.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse возвращается при успешной регистрации или входе.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}
