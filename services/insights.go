package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/expensedecoder/api/models"
	"github.com/expensedecoder/api/storage"
	"github.com/expensedecoder/api/utils"
)

// Outcome tells which path produced an insight list.
type Outcome string

const (
	OutcomeOnboarding    Outcome = "onboarding"
	OutcomeModel         Outcome = "model"
	OutcomeParseFallback Outcome = "parse_fallback"
)

// ChatCompleter is the model gateway as seen by the insight pipeline.
type ChatCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type GenerationResult struct {
	Insights  []models.Insight
	Outcome   Outcome
	Persisted bool
}

// ============================================================================
// INSIGHT SERVICE
// ============================================================================

type InsightService struct {
	expenses storage.ExpenseStore
	insights storage.InsightStore
	gateway  ChatCompleter
	now      func() time.Time
}

func NewInsightService(expenses storage.ExpenseStore, insights storage.InsightStore, gateway ChatCompleter) *InsightService {
	return &InsightService{
		expenses: expenses,
		insights: insights,
		gateway:  gateway,
		now:      time.Now,
	}
}

type stage int

const (
	stageFetch stage = iota
	stageNoData
	stageModelCall
	stageParsed
	stageParseFallback
	stagePersist
	stageRespond
)

// Generate runs one insight cycle for the user:
// fetch → no-data | model-call → parsed | parse-fallback → persist → respond.
// Only the fetch and the gateway call can fail the cycle.
func (s *InsightService) Generate(ctx context.Context, userID string) (*GenerationResult, error) {
	var (
		expenses []models.Expense
		content  string
		callErr  error
		result   = &GenerationResult{}
	)

	for st := stageFetch; ; {
		switch st {
		case stageFetch:
			var err error
			expenses, err = s.expenses.ListExpenses(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch expenses: %w", err)
			}
			if len(expenses) == 0 {
				st = stageNoData
			} else {
				st = stageModelCall
			}

		case stageNoData:
			utils.LogInsightAction("Onboarding", userID, 0)
			result.Insights = OnboardingInsights()
			result.Outcome = OutcomeOnboarding
			st = stageRespond

		case stageModelCall:
			summary, err := Aggregate(expenses)
			if err != nil {
				return nil, err
			}
			utils.LogInsightAction("Requesting model", userID, summary.Count)
			content, callErr = s.gateway.Complete(ctx, coachSystemPrompt, BuildPrompt(summary))
			switch {
			case errors.Is(callErr, ErrMalformedResponse):
				utils.SafeWarn("[Insights] Unreadable gateway reply: %v", callErr)
				st = stageParseFallback
			case callErr != nil:
				return nil, callErr
			default:
				st = stageParsed
			}

		case stageParsed:
			parsed, err := ParseInsights(content)
			if err != nil {
				utils.SafeWarn("[Insights] Failed to parse AI response: %v", err)
				st = stageParseFallback
				continue
			}
			result.Insights = parsed
			result.Outcome = OutcomeModel
			st = stagePersist

		case stageParseFallback:
			result.Insights = FallbackInsights()
			result.Outcome = OutcomeParseFallback
			st = stagePersist

		case stagePersist:
			snapshot := &models.InsightSnapshot{
				ID:        uuid.NewString(),
				UserID:    userID,
				MonthYear: models.MonthLabel(s.now()),
				Insights:  result.Insights,
				CreatedAt: s.now().UTC(),
			}
			if err := s.insights.InsertInsights(ctx, snapshot); err != nil {
				utils.SafeError("[Insights] Failed to save insights: %v", err)
			} else {
				result.Persisted = true
			}
			st = stageRespond

		case stageRespond:
			utils.LogInsightAction(fmt.Sprintf("Generated (%s)", result.Outcome), userID, len(expenses))
			return result, nil
		}
	}
}

// Latest returns the most recent snapshot for the current month, or nil when
// none exists.
func (s *InsightService) Latest(ctx context.Context, userID string) (*models.InsightSnapshot, string, error) {
	month := models.MonthLabel(s.now())
	snapshot, err := s.insights.LatestInsights(ctx, userID, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, month, nil
	}
	if err != nil {
		return nil, month, fmt.Errorf("failed to load insights: %w", err)
	}
	return snapshot, month, nil
}
