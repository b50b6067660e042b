// internal/storage/postgres/report.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/domain"
)

// === ReportStorage ===

func (s *Storage) SumCategorized(ctx context.Context, userID int64, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND category_id IS NOT NULL AND date BETWEEN $2 AND $3
	`, userID, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum categorized spend: %w", err)
	}
	return total, nil
}

func (s *Storage) SpendByCategory(ctx context.Context, userID int64, from, to time.Time) ([]domain.CategorySpend, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.name, SUM(t.amount)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.category_id IS NOT NULL AND t.date BETWEEN $2 AND $3
		GROUP BY t.category_id, c.name
		ORDER BY c.name
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("spend by category: %w", err)
	}
	defer rows.Close()

	var out []domain.CategorySpend
	for rows.Next() {
		var cs domain.CategorySpend
		if err := rows.Scan(&cs.CategoryName, &cs.Amount); err != nil {
			return nil, fmt.Errorf("scan category spend: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *Storage) ListBudgetStatuses(ctx context.Context, userID int64, from, to time.Time) ([]domain.BudgetStatus, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.user_id, b.category_id, b.max_amount, c.name,
			COALESCE((
				SELECT SUM(t.amount) FROM transactions t
				WHERE t.user_id = b.user_id AND t.category_id = b.category_id
					AND t.date BETWEEN $2 AND $3
			), 0) AS spent
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = $1
		ORDER BY b.id
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list budget statuses: %w", err)
	}
	defer rows.Close()

	var out []domain.BudgetStatus
	for rows.Next() {
		var bs domain.BudgetStatus
		if err := rows.Scan(&bs.ID, &bs.UserID, &bs.CategoryID, &bs.MaxAmount,
			&bs.CategoryName, &bs.SpentAmount); err != nil {
			return nil, fmt.Errorf("scan budget status: %w", err)
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}
