package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (email, password_hash, level, quiz_done, is_active, created_at)
        VALUES ($1, $2, 1, FALSE, TRUE, NOW())
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, u.Email, u.PasswordHash).Scan(&u.ID)
}

// FindByEmail returns the user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, level, quiz_done, is_active, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Level, &u.QuizDone, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID returns the user by id, mapping a miss to drip.ErrUserNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, level, quiz_done, is_active, created_at
        FROM users
        WHERE id = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Level, &u.QuizDone, &u.IsActive, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, drip.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetPlacement stores the level the placement quiz mapped to and marks the
// quiz as completed, which makes the user eligible for drip content.
func (r *UserRepository) SetPlacement(ctx context.Context, userID, level int) error {
	query := `
        UPDATE users SET level = $2, quiz_done = TRUE
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, userID, level)
	return err
}

// ListEligibleIDs returns the ids of active users who completed the quiz.
func (r *UserRepository) ListEligibleIDs(ctx context.Context) ([]int, error) {
	query := `
        SELECT id FROM users
        WHERE is_active AND quiz_done
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query)
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
