package services

import (
	"context"
	"database/sql"
	"fmt"

	"printshop/internal/apperror"
	"printshop/internal/database"
	"printshop/internal/logger"
	"printshop/internal/models"

	"github.com/google/uuid"
)

// UserService управляет учетными записями пользователей.
type UserService struct {
	db  *database.DB
	log *logger.Logger
}

// NewUserService создает сервис пользователей.
func NewUserService(db *database.DB, log *logger.Logger) *UserService {
	return &UserService{
		db:  db,
		log: log,
	}
}

// GetUser возвращает пользователя по ID.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, profile_image_url, created_at
		FROM users
		WHERE id = $1
	`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.ProfileImageURL, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user not found", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers возвращает список пользователей.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, username, profile_image_url, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.ProfileImageURL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// DeleteUser удаляет пользователя вместе со всеми его заказами.
func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to delete user orders: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user not found", nil)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	s.log.WithField("user_id", userID).Info("User and their orders deleted")
	return nil
}
