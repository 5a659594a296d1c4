package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingodrip/internal/model"
)

type InteractionRepository struct {
	db *pgxpool.Pool
}

func NewInteractionRepository(db *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// UpsertUnlocked records a tip unlock. Keyed on the (user_id, tip_id)
// unique index, so replaying the same unlock is a no-op write.
func (r *InteractionRepository) UpsertUnlocked(ctx context.Context, userID, tipID int, unlockedAt time.Time, unlockOrder int) error {
	query := `
        INSERT INTO tip_interactions (user_id, tip_id, is_unlocked, unlocked_at, unlock_order, created_at)
        VALUES ($1, $2, TRUE, $3, $4, NOW())
        ON CONFLICT (user_id, tip_id)
        DO UPDATE SET is_unlocked = TRUE, unlocked_at = EXCLUDED.unlocked_at, unlock_order = EXCLUDED.unlock_order
    `
	_, err := r.db.Exec(ctx, query, userID, tipID, unlockedAt, unlockOrder)
	return err
}

// BulkReset clears the unlocked markers on all of the user's interactions
// for one level pool and reports how many rows changed. Read and favorite
// flags stay.
func (r *InteractionRepository) BulkReset(ctx context.Context, userID, level int) (int, error) {
	query := `
        UPDATE tip_interactions
        SET is_unlocked = FALSE, unlock_order = 0
        WHERE user_id = $1
          AND is_unlocked
          AND tip_id IN (SELECT id FROM tips WHERE level = $2)
    `
	tag, err := r.db.Exec(ctx, query, userID, level)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListUnlockedTipIDs returns the tips of one level the user has unlocked.
func (r *InteractionRepository) ListUnlockedTipIDs(ctx context.Context, userID, level int) ([]int, error) {
	query := `
        SELECT i.tip_id
        FROM tip_interactions i
        JOIN tips t ON t.id = i.tip_id
        WHERE i.user_id = $1 AND i.is_unlocked AND t.level = $2
    `
	rows, err := r.db.Query(ctx, query, userID, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindByUserAndTip returns one interaction, nil when none exists.
func (r *InteractionRepository) FindByUserAndTip(ctx context.Context, userID, tipID int) (*model.TipInteraction, error) {
	query := `
        SELECT id, user_id, tip_id, is_unlocked, unlocked_at, unlock_order, is_read, is_favorite, created_at
        FROM tip_interactions
        WHERE user_id = $1 AND tip_id = $2
    `
	var i model.TipInteraction
	err := r.db.QueryRow(ctx, query, userID, tipID).Scan(
		&i.ID, &i.UserID, &i.TipID, &i.IsUnlocked, &i.UnlockedAt, &i.UnlockOrder, &i.IsRead, &i.IsFavorite, &i.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// MarkRead flags an unlocked tip as read.
func (r *InteractionRepository) MarkRead(ctx context.Context, userID, tipID int) error {
	query := `
        UPDATE tip_interactions SET is_read = TRUE
        WHERE user_id = $1 AND tip_id = $2
    `
	_, err := r.db.Exec(ctx, query, userID, tipID)
	return err
}

// SetFavorite toggles the favorite flag.
func (r *InteractionRepository) SetFavorite(ctx context.Context, userID, tipID int, favorite bool) error {
	query := `
        UPDATE tip_interactions SET is_favorite = $3
        WHERE user_id = $1 AND tip_id = $2
    `
	_, err := r.db.Exec(ctx, query, userID, tipID, favorite)
	return err
}
