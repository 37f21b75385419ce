package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expensedecoder/api/models"
	"github.com/expensedecoder/api/services"
)

func TestAnalyze_NoExpenses(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/v1/insights/analyze", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "onboarding", resp.Outcome)
	assert.False(t, resp.Persisted)
	assert.Equal(t, "Start adding expenses to get personalized insights!", resp.Insights[0].Message)
	assert.Zero(t, env.gateway.calls)
	assert.Empty(t, env.notifier.events)
}

func TestAnalyze_ModelReply(t *testing.T) {
	env := newTestEnv()
	env.createExpense(t, "u1", `{"amount": 20, "category": "Food"}`)
	env.gateway.reply = `[{"type":"trend","message":"Food is most of your spending","tips":["Cook at home","Plan meals"]}]`

	w := env.do(t, http.MethodPost, "/api/v1/insights/analyze", "u1", `{"userId":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "model", resp.Outcome)
	assert.True(t, resp.Persisted)
	require.Len(t, resp.Insights, 1)
	assert.Equal(t, models.InsightTrend, resp.Insights[0].Type)
	assert.Contains(t, env.notifier.events, "u1:"+EventInsightsUpdated)

	w = env.do(t, http.MethodGet, "/api/v1/insights/latest", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var latest models.LatestInsightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
	assert.Equal(t, resp.Insights, latest.Insights)
	assert.Len(t, latest.MonthYear, len("2006-01"))
	assert.NotNil(t, latest.CreatedAt)
}

func TestAnalyze_MalformedReply(t *testing.T) {
	env := newTestEnv()
	env.createExpense(t, "u1", `{"amount": 20, "category": "Food"}`)
	env.gateway.reply = "Sure! Here are your insights."

	w := env.do(t, http.MethodPost, "/api/v1/insights/analyze", "u1", "{}")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "parse_fallback", resp.Outcome)
	assert.Equal(t, "Your spending data has been recorded!", resp.Insights[0].Message)
}

func TestAnalyze_GatewayErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"rate limited", &services.GatewayError{StatusCode: 429}, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{"payment required", &services.GatewayError{StatusCode: 402}, http.StatusPaymentRequired, "Payment required. Please add credits to continue."},
		{"gateway failure", &services.GatewayError{StatusCode: 500}, http.StatusInternalServerError, "AI Gateway error: 500"},
		{"missing key", services.ErrGatewayKeyMissing, http.StatusInternalServerError, services.ErrGatewayKeyMissing.Error()},
		{"transport", errors.New("HTTP request failed: dial tcp"), http.StatusInternalServerError, "HTTP request failed: dial tcp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.createExpense(t, "u1", `{"amount": 20, "category": "Food"}`)
			env.gateway.err = tt.err

			w := env.do(t, http.MethodPost, "/api/v1/insights/analyze", "u1", "{}")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
		})
	}
}

func TestAnalyze_OtherUser(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/v1/insights/analyze", "u1", `{"userId":"u2"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, env.gateway.calls)
}

func TestLatestInsights_None(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/api/v1/insights/latest", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["insights"])
	assert.NotContains(t, body, "created_at")
	assert.NotEmpty(t, body["month_year"])
}
