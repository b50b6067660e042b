// internal/handler/handler.go
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"pennywise/internal/categorize"
	"pennywise/internal/domain"
	"pennywise/internal/storage"
	syncengine "pennywise/internal/sync"
	val "pennywise/internal/validator"
)

type CombinedStorage interface {
	storage.AccountStorage
	storage.TransactionStorage
	storage.CategoryStorage
	storage.BudgetStorage
	storage.ReportStorage
}

// Linker is the account-link slice of the aggregator client.
type Linker interface {
	CreateLinkToken(ctx context.Context, userID int64) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
}

// Syncer runs one incremental sync pass over a user's linked accounts.
type Syncer interface {
	SyncAll(ctx context.Context, userID int64) (syncengine.Result, error)
}

// Categorizer reconciles category assignments from manual and AI sources.
type Categorizer interface {
	ApplyManual(ctx context.Context, userID int64, updates []domain.CategoryUpdate) (int, error)
	CategorizeWithAI(ctx context.Context, userID int64) (categorize.AIResult, error)
}

// currentUser pulls the authenticated user id placed by the auth middleware.
func currentUser(c *gin.Context) (int64, bool) {
	userIDVal, ok := c.Get("user_id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user_id missing"})
		return 0, false
	}
	userID, ok := userIDVal.(int64)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return userID, true
}

// validateStruct runs the shared validator and flattens failures into
// per-field messages.
func validateStruct(v any) []string {
	err := val.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs []string
	for _, e := range err.(validator.ValidationErrors) {
		errs = append(errs, fieldErrorToString(e))
	}
	return errs
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "yearmonth":
		return fmt.Sprintf("%s must be in YYYY-MM format", e.Field())
	case "dateonly":
		return fmt.Sprintf("%s must be in YYYY-MM-DD format", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "gt":
		return fmt.Sprintf("%s must be positive", e.Field())
	case "min":
		if e.Param() == "1" {
			return fmt.Sprintf("%s must not be empty", e.Field())
		}
		return fmt.Sprintf("%s is too short", e.Field())
	case "max":
		return fmt.Sprintf("%s is too long", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
