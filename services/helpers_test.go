package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/expensedecoder/api/models"
	"github.com/expensedecoder/api/storage"
)

func expense(t *testing.T, userID, amount, category, day string) models.Expense {
	t.Helper()
	d, err := models.ParseDate(day)
	require.NoError(t, err)
	return models.Expense{
		ID:        category + "-" + day + "-" + amount,
		UserID:    userID,
		Amount:    decimal.RequireFromString(amount),
		Category:  category,
		Date:      d,
		CreatedAt: d.Time,
	}
}

// fakeCompleter records calls and replays a canned reply.
type fakeCompleter struct {
	reply   string
	err     error
	calls   int
	system  string
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system = system
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

// failingInsightStore wraps a memory store and refuses inserts.
type failingInsightStore struct {
	*storage.MemoryStore
}

func (failingInsightStore) InsertInsights(ctx context.Context, s *models.InsightSnapshot) error {
	return errors.New("insert failed")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
