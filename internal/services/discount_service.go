package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"printshop/internal/apperror"
	"printshop/internal/database"
	"printshop/internal/logger"
	"printshop/internal/models"
	"printshop/internal/pricing"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DiscountService управляет скидочными кодами и их применением к заказам.
type DiscountService struct {
	db  *database.DB
	log *logger.Logger
}

// NewDiscountService создает сервис скидочных кодов.
func NewDiscountService(db *database.DB, log *logger.Logger) *DiscountService {
	return &DiscountService{
		db:  db,
		log: log,
	}
}

// CreateDiscountCode создает новый скидочный код.
func (s *DiscountService) CreateDiscountCode(ctx context.Context, req *models.CreateDiscountCodeRequest) (*models.DiscountCode, error) {
	if err := validateDiscountPayload(req); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	code := &models.DiscountCode{
		ID:            uuid.New(),
		Code:          strings.TrimSpace(req.Code),
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		Active:        req.Active,
		ExpiresAt:     req.ExpiresAt,
		MaxUses:       req.MaxUses,
		Uses:          0,
		CreatedAt:     time.Now(),
	}

	query := `
		INSERT INTO discount_codes (id, code, description, discount_type, discount_value, active, expires_at, max_uses, uses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9)
	`
	_, err := s.db.ExecContext(ctx, query, code.ID, code.Code, code.Description, code.DiscountType,
		code.DiscountValue, code.Active, code.ExpiresAt, code.MaxUses, code.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.Conflict("discount code already exists", err)
		}
		return nil, fmt.Errorf("failed to create discount code: %w", err)
	}

	s.log.WithField("code", code.Code).Info("Discount code created")
	return code, nil
}

// DeleteDiscountCode удаляет скидочный код по ID.
func (s *DiscountService) DeleteDiscountCode(ctx context.Context, codeID uuid.UUID) (*models.DiscountCode, error) {
	code, err := s.getByID(ctx, codeID)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM discount_codes WHERE id = $1", codeID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete discount code: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("discount code not found", nil)
	}

	s.log.WithField("code", code.Code).Info("Discount code deleted")
	return code, nil
}

// ListDiscountCodes возвращает список скидочных кодов.
func (s *DiscountService) ListDiscountCodes(ctx context.Context, limit, offset int) ([]*models.DiscountCode, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, code, description, discount_type, discount_value, active, expires_at, max_uses, uses, created_at
		FROM discount_codes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.DiscountCode
	for rows.Next() {
		c := &models.DiscountCode{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
			&c.Active, &c.ExpiresAt, &c.MaxUses, &c.Uses, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan discount code: %w", err)
		}
		codes = append(codes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discount codes: %w", err)
	}

	return codes, nil
}

// ResolveDiscount возвращает код, пригодный к применению прямо сейчас.
// Неактивные, истекшие и исчерпанные коды считаются отсутствующими.
func (s *DiscountService) ResolveDiscount(ctx context.Context, code string) (*models.DiscountCode, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value, active, expires_at, max_uses, uses, created_at
		FROM discount_codes
		WHERE code = $1
	`
	c := &models.DiscountCode{}
	if err := s.db.QueryRowContext(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.Active, &c.ExpiresAt, &c.MaxUses, &c.Uses, &c.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("discount code not found", err)
		}
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}

	if !c.Active {
		return nil, apperror.NotFound("discount code is inactive", nil)
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(time.Now()) {
		return nil, apperror.NotFound("discount code expired", nil)
	}
	if c.Exhausted() {
		return nil, apperror.NotFound("discount code usage limit reached", nil)
	}

	return c, nil
}

// ApplyDiscountWithTx применяет код к базовой стоимости в рамках транзакции заказа.
// Использование списывается условным инкрементом, поэтому лимит не может быть
// превышен даже при конкурирующих заказах. Непригодный код не срывает оформление:
// заказ продолжается без скидки.
func (s *DiscountService) ApplyDiscountWithTx(ctx context.Context, tx *sql.Tx, rawCode string, baseCost float64) (float64, *uuid.UUID, error) {
	query := `
		SELECT id, discount_type, discount_value, active, expires_at, max_uses, uses
		FROM discount_codes
		WHERE code = $1
		FOR UPDATE
	`

	c := &models.DiscountCode{}
	if err := tx.QueryRowContext(ctx, query, rawCode).Scan(
		&c.ID, &c.DiscountType, &c.DiscountValue, &c.Active, &c.ExpiresAt, &c.MaxUses, &c.Uses,
	); err != nil {
		if err == sql.ErrNoRows {
			s.log.WithField("code", rawCode).Debug("Discount code not found, proceeding without discount")
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("failed to get discount code: %w", err)
	}

	if !c.Active || (c.ExpiresAt != nil && c.ExpiresAt.Before(time.Now())) {
		s.log.WithField("code", rawCode).Debug("Discount code unusable, proceeding without discount")
		return 0, nil, nil
	}

	updateQuery := `
		UPDATE discount_codes
		SET uses = uses + 1
		WHERE id = $1 AND (max_uses = -1 OR uses < max_uses)
	`
	result, err := tx.ExecContext(ctx, updateQuery, c.ID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to consume discount use: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.log.WithField("code", rawCode).Debug("Discount code exhausted, proceeding without discount")
		return 0, nil, nil
	}

	applied, _ := pricing.ApplyDiscount(baseCost, c)
	codeID := c.ID
	return applied, &codeID, nil
}

func (s *DiscountService) getByID(ctx context.Context, codeID uuid.UUID) (*models.DiscountCode, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value, active, expires_at, max_uses, uses, created_at
		FROM discount_codes
		WHERE id = $1
	`
	c := &models.DiscountCode{}
	if err := s.db.QueryRowContext(ctx, query, codeID).Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.Active, &c.ExpiresAt, &c.MaxUses, &c.Uses, &c.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("discount code not found", err)
		}
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}
	return c, nil
}

func validateDiscountPayload(req *models.CreateDiscountCodeRequest) error {
	if strings.TrimSpace(req.Code) == "" {
		return fmt.Errorf("code is required")
	}
	switch req.DiscountType {
	case models.DiscountTypeFixed:
		if req.DiscountValue < 0 {
			return fmt.Errorf("value must be non-negative for fixed discount")
		}
	case models.DiscountTypePercent:
		if req.DiscountValue <= 0 || req.DiscountValue > 100 {
			return fmt.Errorf("percent value must be between 0 and 100")
		}
	default:
		return fmt.Errorf("invalid discount_type")
	}
	if req.MaxUses < models.UnlimitedUses {
		return fmt.Errorf("max_uses must be -1 (unlimited) or non-negative")
	}
	return nil
}
