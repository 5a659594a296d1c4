package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"lingodrip/internal/model"
)

type TipRepository struct {
	db *pgxpool.Pool
}

func NewTipRepository(db *pgxpool.Pool) *TipRepository {
	return &TipRepository{db: db}
}

// ListActiveForLevel returns the active tips of one level pool.
func (r *TipRepository) ListActiveForLevel(ctx context.Context, level int) ([]model.Tip, error) {
	query := `
        SELECT id, level, title, body, category, is_active, created_at
        FROM tips
        WHERE level = $1 AND is_active
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tips []model.Tip
	for rows.Next() {
		var t model.Tip
		if err := rows.Scan(&t.ID, &t.Level, &t.Title, &t.Body, &t.Category, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		tips = append(tips, t)
	}
	return tips, rows.Err()
}

// FindByID returns one tip.
func (r *TipRepository) FindByID(ctx context.Context, id int) (*model.Tip, error) {
	query := `
        SELECT id, level, title, body, category, is_active, created_at
        FROM tips
        WHERE id = $1
    `
	var t model.Tip
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Level, &t.Title, &t.Body, &t.Category, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
