// internal/categorize/reconciler.go
package categorize

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"pennywise/internal/ai"
	"pennywise/internal/domain"
)

// Store is the slice of storage the reconciler needs.
type Store interface {
	ListCategories(ctx context.Context, userID int64) ([]domain.Category, error)
	ListUncategorized(ctx context.Context, userID int64) ([]domain.Transaction, error)
	SetCategory(ctx context.Context, userID, transactionID, categoryID int64) (bool, error)
	CategoryVisible(ctx context.Context, userID, categoryID int64) (bool, error)
}

// Reconciler assigns categories to transactions, either from a manual batch
// or from AI suggestions constrained to the user's category vocabulary.
type Reconciler struct {
	store     Store
	suggester ai.Suggester
}

func NewReconciler(store Store, suggester ai.Suggester) *Reconciler {
	return &Reconciler{store: store, suggester: suggester}
}

// ApplyManual applies a batch of (transaction, category) assignments. Every
// referenced category must be visible to the user or the whole batch is
// rejected before any mutation. Transactions the user does not own are
// dropped item by item, not treated as fatal. Re-applying the same batch is
// a no-op state-wise.
func (r *Reconciler) ApplyManual(ctx context.Context, userID int64, updates []domain.CategoryUpdate) (int, error) {
	seen := make(map[int64]bool)
	for _, u := range updates {
		if seen[u.CategoryID] {
			continue
		}
		visible, err := r.store.CategoryVisible(ctx, userID, u.CategoryID)
		if err != nil {
			return 0, fmt.Errorf("check category %d: %w", u.CategoryID, err)
		}
		if !visible {
			return 0, fmt.Errorf("unknown category %d", u.CategoryID)
		}
		seen[u.CategoryID] = true
	}

	applied := 0
	for _, u := range updates {
		ok, err := r.store.SetCategory(ctx, userID, u.TransactionID, u.CategoryID)
		if err != nil {
			return applied, fmt.Errorf("set category on transaction %d: %w", u.TransactionID, err)
		}
		if !ok {
			// Not owned by the caller, or gone. Dropped silently.
			slog.Debug("categorization update dropped", "user_id", userID, "transaction_id", u.TransactionID)
			continue
		}
		applied++
	}
	return applied, nil
}

// AIResult reports what an AI categorization pass did.
type AIResult struct {
	Categorized int `json:"categorized"`
	Skipped     int `json:"skipped"`
}

// CategorizeWithAI asks the suggester for a category for every currently
// uncategorized transaction of the user. Transactions are processed
// independently: a failed round-trip or a label outside the vocabulary
// leaves that transaction uncategorized and moves on.
func (r *Reconciler) CategorizeWithAI(ctx context.Context, userID int64) (AIResult, error) {
	categories, err := r.store.ListCategories(ctx, userID)
	if err != nil {
		return AIResult{}, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return AIResult{}, nil
	}

	names := make([]string, 0, len(categories))
	byName := make(map[string]int64, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
		byName[c.Name] = c.ID
	}

	txns, err := r.store.ListUncategorized(ctx, userID)
	if err != nil {
		return AIResult{}, fmt.Errorf("list uncategorized transactions: %w", err)
	}

	var result AIResult
	var errs error
	for _, txn := range txns {
		label, err := r.suggester.SuggestCategory(ctx, txn, names)
		if err != nil {
			slog.Warn("category suggestion failed", "error", err, "transaction_id", txn.ID)
			result.Skipped++
			continue
		}

		categoryID, ok := byName[label]
		if !ok {
			// Hallucinated or malformed label: leave the transaction
			// uncategorized, no error.
			slog.Info("suggested label not in vocabulary", "transaction_id", txn.ID, "label", label)
			result.Skipped++
			continue
		}

		updated, err := r.store.SetCategory(ctx, userID, txn.ID, categoryID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("set category on transaction %d: %w", txn.ID, err))
			result.Skipped++
			continue
		}
		if updated {
			result.Categorized++
		} else {
			result.Skipped++
		}
	}
	return result, errs
}
