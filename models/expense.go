package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MaxCategoryLength    = 50
	MaxDescriptionLength = 200
)

var (
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrEmptyCategory      = errors.New("category is required")
	ErrCategoryTooLong    = errors.New("category too long (max 50 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrMissingUser        = errors.New("user id is required")
	ErrMissingDate        = errors.New("date is required")
)

// IsValidationError reports whether err comes from Expense.Validate.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyCategory, ErrCategoryTooLong,
		ErrDescriptionTooLong, ErrMissingUser, ErrMissingDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ============================================================================
// EXPENSE MODEL
// ============================================================================

type Expense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Date        Date            `json:"date"`
	IsImpulsive bool            `json:"is_impulsive"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate checks the write-time invariants. Amounts are rejected here so that
// aggregation never has to deal with malformed values.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrMissingUser
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	category := strings.TrimSpace(e.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// ============================================================================
// REQUESTS
// ============================================================================

// CreateExpenseRequest accepts the amount either as a JSON number or a string.
type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Description string          `json:"description"`
	Date        Date            `json:"date"`
	IsImpulsive bool            `json:"is_impulsive"`
}

// CategorySlice is one wedge of the spending chart.
type CategorySlice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Share decimal.Decimal `json:"share"` // percent of total, 2 dp
}

type BreakdownResponse struct {
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Categories []CategorySlice `json:"categories"`
}
