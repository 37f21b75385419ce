package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expensedecoder/api/models"
)

// Dialect selects placeholder syntax.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore implements Store over database/sql. Queries are written with
// Postgres-style $n placeholders and rebound for SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ============================================================================
// EXPENSES
// ============================================================================

const expenseColumns = `id, user_id, amount, category, COALESCE(description, ''), date, is_impulsive, created_at`

func (s *SQLStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	var description sql.NullString
	if e.Description != "" {
		description = sql.NullString{String: e.Description, Valid: true}
	}

	query := `
		INSERT INTO expenses (id, user_id, amount, category, description, date, is_impulsive, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		e.ID, e.UserID, e.Amount.StringFixed(2), e.Category, description, e.Date, e.IsImpulsive, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *SQLStore) ListRecentExpenses(ctx context.Context, userID string, limit int) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2`
	return s.queryExpenses(ctx, query, userID, limit)
}

func (s *SQLStore) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC`
	return s.queryExpenses(ctx, query, userID)
}

func (s *SQLStore) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Description, &e.Date, &e.IsImpulsive, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (s *SQLStore) DeleteExpense(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM expenses WHERE id = $1 AND user_id = $2`), id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// INSIGHTS
// ============================================================================

func (s *SQLStore) InsertInsights(ctx context.Context, snap *models.InsightSnapshot) error {
	insightsJSON, err := json.Marshal(snap.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}

	// Sent as text: lib/pq encodes []byte as bytea, which jsonb rejects.
	query := `
		INSERT INTO ai_insights (id, user_id, month_year, insights, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, s.rebind(query),
		snap.ID, snap.UserID, snap.MonthYear, string(insightsJSON), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert insights: %w", err)
	}
	return nil
}

func (s *SQLStore) LatestInsights(ctx context.Context, userID, monthYear string) (*models.InsightSnapshot, error) {
	query := `
		SELECT id, user_id, month_year, insights, created_at
		FROM ai_insights
		WHERE user_id = $1 AND month_year = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var snap models.InsightSnapshot
	var insightsJSON []byte
	err := s.db.QueryRowContext(ctx, s.rebind(query), userID, monthYear).Scan(
		&snap.ID, &snap.UserID, &snap.MonthYear, &insightsJSON, &snap.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest insights: %w", err)
	}

	if err := json.Unmarshal(insightsJSON, &snap.Insights); err != nil {
		return nil, fmt.Errorf("decode insights %s: %w", snap.ID, err)
	}
	return &snap, nil
}

// Ping checks connectivity within a short deadline.
func (s *SQLStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.dialect, err)
	}
	return nil
}

var _ Store = (*SQLStore)(nil)

