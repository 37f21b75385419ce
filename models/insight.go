package models

import (
	"encoding/json"
	"time"
)

type InsightType string

const (
	InsightTrend   InsightType = "trend"
	InsightWarning InsightType = "warning"
	InsightTip     InsightType = "tip"
	InsightDefault InsightType = "default"
)

// Known reports whether t is one of the types the model is asked to produce.
func (t InsightType) Known() bool {
	switch t {
	case InsightTrend, InsightWarning, InsightTip:
		return true
	}
	return false
}

type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
	Tips    Tips        `json:"tips,omitempty"`
}

// Tips decodes from a JSON array of strings or from a single string.
type Tips []string

func (t *Tips) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*t = nil
		} else {
			*t = Tips{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = list
	return nil
}

// InsightSnapshot is an immutable, point-in-time list of insights for a user
// and a calendar month.
type InsightSnapshot struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MonthYear string    `json:"month_year"` // YYYY-MM
	Insights  []Insight `json:"insights"`
	CreatedAt time.Time `json:"created_at"`
}

// MonthLabel formats t as the YYYY-MM label snapshots are keyed by.
func MonthLabel(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ============================================================================
// INSIGHT ENDPOINT PAYLOADS
// ============================================================================

type AnalyzeRequest struct {
	UserID string `json:"userId"`
}

type AnalyzeResponse struct {
	Insights  []Insight `json:"insights"`
	Outcome   string    `json:"outcome"`
	Persisted bool      `json:"persisted"`
}

type LatestInsightsResponse struct {
	MonthYear string     `json:"month_year"`
	Insights  []Insight  `json:"insights"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
