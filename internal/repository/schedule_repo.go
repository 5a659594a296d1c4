package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

const pgUniqueViolation = "23505"

type ScheduleRepository struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByUserAndDay loads the schedule and its slots for a (user, day) pair.
func (r *ScheduleRepository) FindByUserAndDay(ctx context.Context, userID int, dayStart time.Time) (*model.DailySchedule, error) {
	query := `
        SELECT id, user_id, day_start, first_at, second_at, third_at
        FROM daily_schedules
        WHERE user_id = $1 AND day_start = $2
    `
	var s model.DailySchedule
	err := r.db.QueryRow(ctx, query, userID, dayStart).Scan(
		&s.ID, &s.UserID, &s.DayStart, &s.First, &s.Second, &s.Third,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, drip.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}

	slotQuery := `
        SELECT tip_id, position, unlocked_at
        FROM unlock_slots
        WHERE schedule_id = $1
        ORDER BY position
    `
	rows, err := r.db.Query(ctx, slotQuery, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sl model.UnlockSlot
		if err := rows.Scan(&sl.TipID, &sl.Position, &sl.UnlockedAt); err != nil {
			return nil, err
		}
		s.Slots = append(s.Slots, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert writes the schedule and its slots in one transaction. A unique
// violation on (user_id, day_start) comes back as drip.ErrScheduleExists so
// the builder can pick up the concurrent writer's record.
func (r *ScheduleRepository) Insert(ctx context.Context, s *model.DailySchedule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO daily_schedules (user_id, day_start, first_at, second_at, third_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	err = tx.QueryRow(ctx, query, s.UserID, s.DayStart, s.First, s.Second, s.Third).Scan(&s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return drip.ErrScheduleExists
		}
		return err
	}

	slotQuery := `
        INSERT INTO unlock_slots (schedule_id, tip_id, position, unlocked_at)
        VALUES ($1, $2, $3, $4)
    `
	for _, sl := range s.Slots {
		if _, err := tx.Exec(ctx, slotQuery, s.ID, sl.TipID, sl.Position, sl.UnlockedAt); err != nil {
			return fmt.Errorf("insert slot %d: %w", sl.Position, err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateTimes rewrites the unlock instants only; slot state is untouched.
func (r *ScheduleRepository) UpdateTimes(ctx context.Context, scheduleID int, first, second, third time.Time) error {
	query := `
        UPDATE daily_schedules
        SET first_at = $2, second_at = $3, third_at = $4
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, scheduleID, first, second, third)
	return err
}

// MarkSlotUnlocked is the pending-to-unlocked transition. The WHERE clause
// makes it first-writer-wins; everyone else sees zero rows affected.
func (r *ScheduleRepository) MarkSlotUnlocked(ctx context.Context, scheduleID, position int, at time.Time) (bool, error) {
	query := `
        UPDATE unlock_slots
        SET unlocked_at = $3
        WHERE schedule_id = $1 AND position = $2 AND unlocked_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, scheduleID, position, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
