package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestUserService_GetUser(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewUserService(db, newTestLogger())
	userID := uuid.New()

	mock.ExpectQuery("SELECT id, username, profile_image_url, created_at FROM users").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "profile_image_url", "created_at"}).
			AddRow(userID, "alice", "", time.Now()))

	user, err := service.GetUser(context.Background(), userID)
	if err != nil || user.Username != "alice" {
		t.Fatalf("get user failed: %v", err)
	}
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewUserService(db, newTestLogger())

	mock.ExpectQuery("SELECT id, username, profile_image_url, created_at FROM users").
		WillReturnError(sql.ErrNoRows)

	if _, err := service.GetUser(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestUserService_ListUsers(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewUserService(db, newTestLogger())

	mock.ExpectQuery("SELECT id, username, profile_image_url, created_at FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "profile_image_url", "created_at"}).
			AddRow(uuid.New(), "alice", "", time.Now()).
			AddRow(uuid.New(), "bob", "", time.Now()))

	users, err := service.ListUsers(context.Background(), 0, 0)
	if err != nil || len(users) != 2 {
		t.Fatalf("list failed: %v len=%d", err, len(users))
	}
}

// Удаление пользователя сносит и его заказы в одной транзакции.
func TestUserService_DeleteUser_CascadesOrders(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewUserService(db, newTestLogger())
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM orders WHERE user_id").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := service.DeleteUser(context.Background(), userID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserService_DeleteUser_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewUserService(db, newTestLogger())
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM orders WHERE user_id").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := service.DeleteUser(context.Background(), userID); err == nil {
		t.Fatalf("expected not found error")
	}
}
