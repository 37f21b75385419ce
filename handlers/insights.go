package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expensedecoder/api/middleware"
	"github.com/expensedecoder/api/models"
	"github.com/expensedecoder/api/services"
	"github.com/expensedecoder/api/utils"
)

type InsightHandler struct {
	Service  *services.InsightService
	Notifier Notifier
}

func NewInsightHandler(svc *services.InsightService, notifier Notifier) *InsightHandler {
	return &InsightHandler{Service: svc, Notifier: notifier}
}

// AnalyzeExpenses generates a fresh set of insights for the user
func (h *InsightHandler) AnalyzeExpenses(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID != "" && req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	result, err := h.Service.Generate(c.Request.Context(), userID)
	if err != nil {
		utils.SafeError("[Insights] Generation failed: %v", err)
		switch {
		case errors.Is(err, services.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Please try again later."})
		case errors.Is(err, services.ErrPaymentRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment required. Please add credits to continue."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if result.Persisted && h.Notifier != nil {
		h.Notifier.Notify(userID, EventInsightsUpdated)
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Insights:  result.Insights,
		Outcome:   string(result.Outcome),
		Persisted: result.Persisted,
	})
}

// GetLatestInsights returns this month's most recent snapshot
func (h *InsightHandler) GetLatestInsights(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	snapshot, month, err := h.Service.Latest(c.Request.Context(), userID)
	if err != nil {
		utils.SafeError("[Insights] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch insights"})
		return
	}

	resp := models.LatestInsightsResponse{MonthYear: month}
	if snapshot != nil {
		resp.Insights = snapshot.Insights
		resp.CreatedAt = &snapshot.CreatedAt
	}
	c.JSON(http.StatusOK, resp)
}
