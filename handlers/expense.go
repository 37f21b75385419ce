package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/expensedecoder/api/middleware"
	"github.com/expensedecoder/api/models"
	"github.com/expensedecoder/api/services"
	"github.com/expensedecoder/api/storage"
	"github.com/expensedecoder/api/utils"
)

type ExpenseHandler struct {
	Service  *services.ExpenseService
	Notifier Notifier
}

func NewExpenseHandler(svc *services.ExpenseService, notifier Notifier) *ExpenseHandler {
	return &ExpenseHandler{Service: svc, Notifier: notifier}
}

// CreateExpense records a new expense for the authenticated user
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.Service.Create(c.Request.Context(), userID, req)
	if err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		utils.SafeError("[Expenses] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create expense"})
		return
	}

	h.notify(userID)
	c.JSON(http.StatusCreated, expense)
}

// ListExpenses returns the most recent expenses, newest date first
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	expenses, err := h.Service.ListRecent(c.Request.Context(), userID, limit)
	if err != nil {
		utils.SafeError("[Expenses] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
		return
	}

	c.JSON(http.StatusOK, expenses)
}

// DeleteExpense removes one of the user's expenses
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	if err := h.Service.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}
		utils.SafeError("[Expenses] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
		return
	}

	h.notify(userID)
	c.Status(http.StatusNoContent)
}

// GetBreakdown returns per-category totals for the spending chart
func (h *ExpenseHandler) GetBreakdown(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	breakdown, err := h.Service.Breakdown(c.Request.Context(), userID)
	if err != nil {
		utils.SafeError("[Expenses] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute breakdown"})
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

func (h *ExpenseHandler) notify(userID string) {
	if h.Notifier != nil {
		h.Notifier.Notify(userID, EventExpensesUpdated)
	}
}
