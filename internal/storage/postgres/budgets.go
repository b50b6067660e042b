// internal/storage/postgres/budgets.go
package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pennywise/internal/domain"
	"pennywise/internal/storage"
)

// === BudgetStorage ===

func (s *Storage) CreateBudget(ctx context.Context, b domain.Budget) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO budgets (user_id, category_id, max_amount)
		VALUES ($1, $2, $3)
		RETURNING id
	`, b.UserID, b.CategoryID, b.MaxAmount).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create budget: %w", err)
	}
	return id, nil
}

func (s *Storage) UpdateBudget(ctx context.Context, userID, budgetID int64, maxAmount decimal.Decimal) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE budgets SET max_amount = $1 WHERE id = $2 AND user_id = $3
	`, maxAmount, budgetID, userID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteBudget(ctx context.Context, userID, budgetID int64) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM budgets WHERE id = $1 AND user_id = $2
	`, budgetID, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, category_id, max_amount FROM budgets
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		var b domain.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.MaxAmount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
