package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"lingodrip/internal/model"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	query := `
        INSERT INTO notifications (user_id, type, content, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, n.UserID, n.Type, n.Content).Scan(&n.ID)
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.Notification, error) {
	query := `
        SELECT id, user_id, type, content, is_read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ns []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, rows.Err()
}
