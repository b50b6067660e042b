// internal/handler/budgets.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pennywise/internal/domain"
	"pennywise/internal/report"
	"pennywise/internal/storage"
)

type BudgetHandler struct {
	store  CombinedStorage
	report *report.Service
}

func NewBudgetHandler(store CombinedStorage, reportSvc *report.Service) *BudgetHandler {
	return &BudgetHandler{store: store, report: reportSvc}
}

// List returns the user's budgets with derived spent/remaining/percentage
// numbers for the requested month.
func (h *BudgetHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	from, to, err := report.MonthRange(c.Query("month"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	budgets, err := h.report.Budgets(c.Request.Context(), userID, from, to)
	if err != nil {
		slog.Error("budget report failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, budgets)
}

func (h *BudgetHandler) Create(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if errs := validateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	visible, err := h.store.CategoryVisible(c.Request.Context(), userID, req.CategoryID)
	if err != nil {
		slog.Error("category check failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if !visible {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"category_id references an unknown category"}})
		return
	}

	id, err := h.store.CreateBudget(c.Request.Context(), domain.Budget{
		UserID:     userID,
		CategoryID: req.CategoryID,
		MaxAmount:  decimal.NewFromInt(req.MaxAmount),
	})
	if err != nil {
		slog.Error("CreateBudget failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create budget"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *BudgetHandler) Update(c *gin.Context) {
	budgetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget id"})
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if errs := validateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	err = h.store.UpdateBudget(c.Request.Context(), userID, budgetID, decimal.NewFromInt(req.MaxAmount))
	if err != nil {
		// A foreign or missing budget id is ignored, not an error.
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		slog.Error("UpdateBudget failed", "error", err, "user_id", userID, "budget_id", budgetID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	budgetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget id"})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.store.DeleteBudget(c.Request.Context(), userID, budgetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		slog.Error("DeleteBudget failed", "error", err, "user_id", userID, "budget_id", budgetID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// === DTO ===

type CreateBudgetRequest struct {
	CategoryID int64 `json:"category_id" validate:"required"`
	MaxAmount  int64 `json:"max_amount" validate:"required,min=1"`
}

type UpdateBudgetRequest struct {
	MaxAmount int64 `json:"max_amount" validate:"required,min=1"`
}
