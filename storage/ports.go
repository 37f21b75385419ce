package storage

import (
	"context"
	"errors"

	"github.com/expensedecoder/api/models"
)

// ErrNotFound is returned when a row does not exist for the requesting user.
var ErrNotFound = errors.New("not found")

// Ports implemented by every backend.
type (
	// ExpenseStore is row-level CRUD keyed by user id.
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e *models.Expense) error
		// ListRecentExpenses returns the user's expenses ordered by date
		// descending, at most limit rows.
		ListRecentExpenses(ctx context.Context, userID string, limit int) ([]models.Expense, error)
		// ListExpenses returns the full history, date descending.
		ListExpenses(ctx context.Context, userID string) ([]models.Expense, error)
		DeleteExpense(ctx context.Context, userID, id string) error
	}

	// InsightStore is append-only.
	InsightStore interface {
		InsertInsights(ctx context.Context, s *models.InsightSnapshot) error
		// LatestInsights returns the most recently created snapshot for the
		// user and month label, or ErrNotFound.
		LatestInsights(ctx context.Context, userID, monthYear string) (*models.InsightSnapshot, error)
	}

	Store interface {
		ExpenseStore
		InsightStore
		Close() error
	}
)
