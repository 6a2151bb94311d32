package services

import (
	"testing"
	"time"

	"printshop/internal/models"

	"github.com/google/uuid"
)

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	userID := uuid.New()

	token, err := tokens.GenerateToken(userID, models.RoleUser)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := tokens.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != models.RoleUser {
		t.Fatalf("expected role user, got %s", claims.Role)
	}
}

func TestTokenService_Expired(t *testing.T) {
	tokens := NewTokenService("secret", -time.Minute)

	token, err := tokens.GenerateToken(uuid.New(), models.RoleUser)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := tokens.ValidateToken(token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	other := NewTokenService("other", time.Hour)

	token, err := tokens.GenerateToken(uuid.New(), models.RoleAdmin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected error for wrong signing secret")
	}
}

func TestTokenService_Garbage(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	if _, err := tokens.ValidateToken("not.a.token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
