package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType описывает тип скидки.
type DiscountType string

const (
	DiscountTypeFixed   DiscountType = "fixed"
	DiscountTypePercent DiscountType = "percent"
)

// UnlimitedUses означает отсутствие лимита использований у кода.
const UnlimitedUses = -1

// DiscountCode представляет скидочный код в системе.
type DiscountCode struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Code          string       `json:"code" db:"code"`
	Description   string       `json:"description" db:"description"`
	DiscountType  DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue float64      `json:"discount_value" db:"discount_value"`
	Active        bool         `json:"active" db:"active"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	MaxUses       int          `json:"max_uses" db:"max_uses"`
	Uses          int          `json:"uses" db:"uses"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// Exhausted сообщает, исчерпан ли лимит использований кода.
func (d *DiscountCode) Exhausted() bool {
	return d.MaxUses != UnlimitedUses && d.Uses >= d.MaxUses
}

// CreateDiscountCodeRequest описывает запрос на создание скидочного кода.
type CreateDiscountCodeRequest struct {
	Code          string       `json:"code"`
	Description   string       `json:"description,omitempty"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	Active        bool         `json:"active"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	MaxUses       int          `json:"max_uses"` // -1 = безлимит
}
