// internal/handler/categories.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pennywise/internal/domain"
	"pennywise/internal/storage"
)

type CategoryHandler struct {
	store CombinedStorage
}

func NewCategoryHandler(store CombinedStorage) *CategoryHandler {
	return &CategoryHandler{store: store}
}

// List returns the user's category vocabulary: system categories plus their
// own custom ones.
func (h *CategoryHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	cats, err := h.store.ListCategories(c.Request.Context(), userID)
	if err != nil {
		slog.Error("ListCategories failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, cats)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
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

	id, err := h.store.CreateCategory(c.Request.Context(), userID, req.Name)
	if err != nil {
		slog.Error("CreateCategory failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Delete removes a custom category. Transactions referencing it become
// uncategorized and budgets referencing it are removed first.
func (h *CategoryHandler) Delete(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.store.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		slog.Error("DeleteCategory failed", "error", err, "user_id", userID, "category_id", categoryID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// === DTO ===

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}
