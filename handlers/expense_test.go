package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expensedecoder/api/models"
)

func TestCreateExpense(t *testing.T) {
	env := newTestEnv()

	e := env.createExpense(t, "u1", `{"amount": 12.5, "category": "Food", "description": "Lunch", "date": "2025-03-02", "is_impulsive": true}`)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "12.5", e.Amount.String())
	assert.Equal(t, "2025-03-02", e.Date.String())
	assert.True(t, e.IsImpulsive)
	assert.Equal(t, []string{"u1:" + EventExpensesUpdated}, env.notifier.events)
}

func TestCreateExpense_AmountAsString(t *testing.T) {
	env := newTestEnv()

	e := env.createExpense(t, "u1", `{"amount": "7.25", "category": "Transport"}`)
	assert.Equal(t, "7.25", e.Amount.StringFixed(2))
	assert.False(t, e.Date.IsZero())
}

func TestCreateExpense_Invalid(t *testing.T) {
	env := newTestEnv()

	tests := map[string]string{
		"malformed json":   `{"amount": `,
		"non-numeric":      `{"amount": "abc", "category": "Food"}`,
		"negative":         `{"amount": -4, "category": "Food"}`,
		"zero":             `{"amount": 0, "category": "Food"}`,
		"missing category": `{"amount": 4}`,
		"bad date":         `{"amount": 4, "category": "Food", "date": "03/02/2025"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/expenses", "u1", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeError(t, w))
		})
	}
	assert.Empty(t, env.notifier.events)
}

func TestListExpenses(t *testing.T) {
	env := newTestEnv()
	env.createExpense(t, "u1", `{"amount": 1, "category": "A", "date": "2025-03-01"}`)
	env.createExpense(t, "u1", `{"amount": 2, "category": "B", "date": "2025-03-05"}`)
	env.createExpense(t, "u2", `{"amount": 3, "category": "C", "date": "2025-03-09"}`)

	w := env.do(t, http.MethodGet, "/api/v1/expenses", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []models.Expense
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03-05", list[0].Date.String())
	assert.Equal(t, "2025-03-01", list[1].Date.String())

	w = env.do(t, http.MethodGet, "/api/v1/expenses?limit=1", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = env.do(t, http.MethodGet, "/api/v1/expenses?limit=zero", "u1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/expenses", "nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv()
	e := env.createExpense(t, "u1", `{"amount": 1, "category": "A"}`)

	w := env.do(t, http.MethodDelete, "/api/v1/expenses/"+e.ID, "u2", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "other users cannot delete")

	w = env.do(t, http.MethodDelete, "/api/v1/expenses/not-a-uuid", "u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/expenses/"+e.ID, "u1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/expenses/"+e.ID, "u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{"u1:" + EventExpensesUpdated, "u1:" + EventExpensesUpdated}, env.notifier.events)
}

func TestGetBreakdown(t *testing.T) {
	env := newTestEnv()
	env.createExpense(t, "u1", `{"amount": 20, "category": "Food"}`)
	env.createExpense(t, "u1", `{"amount": 30, "category": "Food"}`)
	env.createExpense(t, "u1", `{"amount": 15, "category": "Transport"}`)

	w := env.do(t, http.MethodGet, "/api/v1/expenses/breakdown", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var b models.BreakdownResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, "65", b.Total.String())
	require.Len(t, b.Categories, 2)
	assert.Equal(t, "Food", b.Categories[0].Name)
	assert.Equal(t, "76.92", b.Categories[0].Share.String())
}
