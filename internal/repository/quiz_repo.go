package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"lingodrip/internal/model"
)

type QuizRepository struct {
	db *pgxpool.Pool
}

func NewQuizRepository(db *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{db: db}
}

// ListActiveQuestions returns the placement questions in id order. Choices
// are stored as a JSON array.
func (r *QuizRepository) ListActiveQuestions(ctx context.Context) ([]model.QuizQuestion, error) {
	query := `
        SELECT id, prompt, choices, answer, is_active, created_at
        FROM quiz_questions
        WHERE is_active
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qs []model.QuizQuestion
	for rows.Next() {
		var q model.QuizQuestion
		var choices []byte
		if err := rows.Scan(&q.ID, &q.Prompt, &choices, &q.Answer, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(choices, &q.Choices); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

// InsertResult records a finished placement attempt.
func (r *QuizRepository) InsertResult(ctx context.Context, res *model.QuizResult) error {
	query := `
        INSERT INTO quiz_results (user_id, score, total, level, completed_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, res.UserID, res.Score, res.Total, res.Level, res.CompletedAt).Scan(&res.ID)
}
