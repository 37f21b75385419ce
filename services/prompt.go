package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/expensedecoder/api/models"
)

const coachSystemPrompt = "You are a helpful financial coach. Always return valid JSON."

var codeFenceRegex = regexp.MustCompile("```json\\n?|\\n?```")

// ErrNoInsights is returned when the model replies with an empty list.
var ErrNoInsights = errors.New("model returned no insights")

// ============================================================================
// PROMPT BUILDING
// ============================================================================

// BuildPrompt renders the coaching prompt for a spending summary.
func BuildPrompt(s *SpendingSummary) string {
	categories := make(map[string]float64, len(s.CategoryTotals))
	for name, total := range s.CategoryTotals {
		categories[name] = total.InexactFloat64()
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		categoriesJSON = []byte("{}")
	}

	return fmt.Sprintf(`You are ExpenseDecoder, a friendly AI money coach. Analyze these spending patterns and provide insights:

Total Expenses: %d
Total Spent: $%s
Average Expense: $%s
Categories: %s
Max expenses in one day: %d

Provide exactly 3-4 insights as a JSON array. Each insight should have:
- type: "trend", "warning", or "tip"
- message: A friendly, non-judgmental observation (max 100 characters)
- tips: Array of 2-3 actionable tips (optional, each max 80 characters)

Focus on:
1. Spending patterns and trends
2. Potential emotional or impulsive spending (if max expenses in day > %d)
3. Category analysis
4. Positive reinforcement and actionable advice

Be motivating, data-driven, and specific. End with clear tips for next month.

Return ONLY valid JSON array, no other text.`,
		s.Count,
		s.TotalSpent.StringFixed(2),
		s.AverageExpense.StringFixed(2),
		categoriesJSON,
		s.MaxExpensesInOneDay,
		ImpulsiveDayThreshold,
	)
}

// ============================================================================
// RESPONSE PARSING
// ============================================================================

// ParseInsights decodes the model's reply, tolerating markdown code fences.
func ParseInsights(content string) ([]models.Insight, error) {
	content = strings.TrimSpace(codeFenceRegex.ReplaceAllString(content, ""))

	var insights []models.Insight
	if err := json.Unmarshal([]byte(content), &insights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
	}
	if len(insights) == 0 {
		return nil, ErrNoInsights
	}

	for i := range insights {
		if !insights[i].Type.Known() {
			insights[i].Type = models.InsightDefault
		}
	}
	return insights, nil
}

// ============================================================================
// FALLBACKS
// ============================================================================

// OnboardingInsights is shown to users who have not recorded anything yet.
func OnboardingInsights() []models.Insight {
	return []models.Insight{{
		Type:    models.InsightTip,
		Message: "Start adding expenses to get personalized insights!",
		Tips: []string{
			"Track all your purchases, big and small",
			"Be honest about what you spend",
			"Review your expenses weekly",
		},
	}}
}

// FallbackInsights replaces a model reply that could not be parsed.
func FallbackInsights() []models.Insight {
	return []models.Insight{{
		Type:    models.InsightTip,
		Message: "Your spending data has been recorded!",
		Tips: []string{
			"Review your largest expenses this month",
			"Look for patterns in your daily spending",
			"Set a budget for your top spending category",
		},
	}}
}
