// internal/handler/transactions.go
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pennywise/internal/domain"
	"pennywise/internal/export"
	"pennywise/internal/report"
)

type TransactionHandler struct {
	store       CombinedStorage
	syncer      Syncer
	categorizer Categorizer
}

func NewTransactionHandler(store CombinedStorage, syncer Syncer, categorizer Categorizer) *TransactionHandler {
	return &TransactionHandler{store: store, syncer: syncer, categorizer: categorizer}
}

// Create stores a manually entered transaction. Manual entries carry no
// aggregator id and are always USD, mirroring the entry form.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
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

	date, _ := time.Parse("2006-01-02", req.Date)

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

	if !h.ownsAccount(c, userID, req.LinkedAccountID) {
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	id, err := h.store.CreateTransaction(c.Request.Context(), domain.Transaction{
		UserID:          userID,
		LinkedAccountID: req.LinkedAccountID,
		Amount:          amount,
		Currency:        "USD",
		Date:            date,
		MerchantName:    req.Merchant,
		Pending:         false,
		CategoryID:      &req.CategoryID,
		ExternalID:      domain.ManualExternalID,
	})
	if err != nil {
		slog.Error("CreateTransaction failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// List splits the user's transactions into uncategorized and categorized,
// the latter filtered to the requested month.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	from, to, err := report.MonthRange(c.Query("month"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txns, err := h.store.ListTransactions(c.Request.Context(), userID)
	if err != nil {
		slog.Error("ListTransactions failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	categorized := []domain.Transaction{}
	uncategorized := []domain.Transaction{}
	for _, t := range txns {
		switch {
		case t.CategoryID == nil:
			uncategorized = append(uncategorized, t)
		case !t.Date.Before(from) && !t.Date.After(to):
			categorized = append(categorized, t)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"categorized":   categorized,
		"uncategorized": uncategorized,
	})
}

// Sync runs one incremental pull across all linked accounts. Accounts whose
// credential was rejected are reported back so the client can prompt
// re-authentication; they never abort the other accounts.
func (h *TransactionHandler) Sync(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.syncer.SyncAll(c.Request.Context(), userID)
	if err != nil {
		slog.Error("sync finished with errors", "error", err, "user_id", userID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sync failed for one or more accounts", "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetCategories applies a manual categorization batch.
func (h *TransactionHandler) SetCategories(c *gin.Context) {
	var req SetCategoriesRequest
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

	applied, err := h.categorizer.ApplyManual(c.Request.Context(), userID, req.Updates)
	if err != nil {
		slog.Error("ApplyManual failed", "error", err, "user_id", userID)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

// Categorize runs the AI suggestion pass over every uncategorized
// transaction of the user.
func (h *TransactionHandler) Categorize(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.categorizer.CategorizeWithAI(c.Request.Context(), userID)
	if err != nil {
		slog.Error("CategorizeWithAI finished with errors", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Categorization failed", "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export streams the month's categorized transactions as an xlsx download.
func (h *TransactionHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	from, to, err := report.MonthRange(c.Query("month"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.store.ListExportRows(c.Request.Context(), userID, from, to)
	if err != nil {
		slog.Error("ListExportRows failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	buf, err := export.Workbook(rows)
	if err != nil {
		slog.Error("workbook build failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export"})
		return
	}

	filename := fmt.Sprintf("transactions-%s.xlsx", from.Format("2006-01"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

func (h *TransactionHandler) ownsAccount(c *gin.Context, userID, accountID int64) bool {
	accounts, err := h.store.ListLinkedAccounts(c.Request.Context(), userID)
	if err != nil {
		slog.Error("ListLinkedAccounts failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return false
	}
	for _, acc := range accounts {
		if acc.ID == accountID {
			return true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"linked_account_id references an unknown account"}})
	return false
}

// === DTO ===

type CreateTransactionRequest struct {
	Merchant        string  `json:"merchant" validate:"required,notblank,max=255"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Date            string  `json:"date" validate:"required,dateonly"`
	CategoryID      int64   `json:"category_id" validate:"required"`
	LinkedAccountID int64   `json:"linked_account_id" validate:"required"`
}

type SetCategoriesRequest struct {
	Updates []domain.CategoryUpdate `json:"updates" validate:"required,min=1,dive"`
}
