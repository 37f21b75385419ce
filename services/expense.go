package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expensedecoder/api/models"
	"github.com/expensedecoder/api/storage"
	"github.com/expensedecoder/api/utils"
)

// MaxRecentExpenses caps the recent-expenses list.
const MaxRecentExpenses = 20

type ExpenseService struct {
	store storage.ExpenseStore
	now   func() time.Time
}

func NewExpenseService(store storage.ExpenseStore) *ExpenseService {
	return &ExpenseService{store: store, now: time.Now}
}

// Create validates and stores a new expense. Validation failures are returned
// unwrapped so callers can map them to a 400.
func (s *ExpenseService) Create(ctx context.Context, userID string, req models.CreateExpenseRequest) (*models.Expense, error) {
	date := req.Date
	if date.IsZero() {
		y, m, d := s.now().UTC().Date()
		date = models.NewDate(y, m, d)
	}

	expense := &models.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      req.Amount.Round(2),
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		IsImpulsive: req.IsImpulsive,
		CreatedAt:   s.now().UTC(),
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	utils.LogExpenseAction("Created", expense.ID, userID)
	return expense, nil
}

// ListRecent returns at most MaxRecentExpenses; limit may only lower the cap.
func (s *ExpenseService) ListRecent(ctx context.Context, userID string, limit int) ([]models.Expense, error) {
	if limit <= 0 || limit > MaxRecentExpenses {
		limit = MaxRecentExpenses
	}
	expenses, err := s.store.ListRecentExpenses(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return expenses, nil
}

// Delete removes one of the user's expenses. storage.ErrNotFound is kept in
// the chain.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	utils.LogExpenseAction("Deleted", id, userID)
	return nil
}

func (s *ExpenseService) Breakdown(ctx context.Context, userID string) (models.BreakdownResponse, error) {
	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return models.BreakdownResponse{}, fmt.Errorf("failed to load expenses: %w", err)
	}
	return Breakdown(expenses), nil
}
