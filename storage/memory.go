package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/expensedecoder/api/models"
)

// MemoryStore keeps everything in process. Used by DATA_BACKEND=memory and by
// tests.
type MemoryStore struct {
	mu       sync.RWMutex
	expenses map[string]models.Expense
	insights []models.InsightSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expenses: make(map[string]models.Expense),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[e.ID] = *e
	return nil
}

func (m *MemoryStore) ListRecentExpenses(ctx context.Context, userID string, limit int) ([]models.Expense, error) {
	all, err := m.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Expense{}
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteExpense(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MemoryStore) InsertInsights(ctx context.Context, s *models.InsightSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := *s
	snap.Insights = append([]models.Insight(nil), s.Insights...)
	m.insights = append(m.insights, snap)
	return nil
}

func (m *MemoryStore) LatestInsights(ctx context.Context, userID, monthYear string) (*models.InsightSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *models.InsightSnapshot
	for i := range m.insights {
		s := &m.insights[i]
		if s.UserID != userID || s.MonthYear != monthYear {
			continue
		}
		// Ties on created_at go to the later insert.
		if latest == nil || !s.CreatedAt.Before(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

var _ Store = (*MemoryStore)(nil)
