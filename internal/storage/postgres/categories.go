// internal/storage/postgres/categories.go
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"pennywise/internal/domain"
	"pennywise/internal/storage"
)

// === CategoryStorage ===

func (s *Storage) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, user_id FROM categories
		WHERE user_id IS NULL OR user_id = $1
		ORDER BY user_id NULLS FIRST, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Storage) CreateCategory(ctx context.Context, userID int64, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO categories (name, user_id) VALUES ($1, $2) RETURNING id
	`, name, userID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return id, nil
}

func (s *Storage) DeleteCategory(ctx context.Context, userID, categoryID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Referential cleanup must run before the row itself goes: referencing
	// transactions become uncategorized, referencing budgets are deleted.
	if _, err := tx.Exec(ctx, `
		UPDATE transactions SET category_id = NULL WHERE category_id = $1
	`, categoryID); err != nil {
		return fmt.Errorf("uncategorize transactions: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM budgets WHERE category_id = $1
	`, categoryID); err != nil {
		return fmt.Errorf("delete budgets for category: %w", err)
	}

	// Only the owner's custom categories are deletable; system rows have
	// a NULL user_id and never match.
	tag, err := tx.Exec(ctx, `
		DELETE FROM categories WHERE id = $1 AND user_id = $2
	`, categoryID, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	slog.Debug("category deleted", "user_id", userID, "category_id", categoryID)
	return nil
}

func (s *Storage) CategoryVisible(ctx context.Context, userID, categoryID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories WHERE id = $1 AND (user_id IS NULL OR user_id = $2)
		)
	`, categoryID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category visibility: %w", err)
	}
	return exists, nil
}
