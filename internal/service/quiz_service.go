package service

import (
	"context"
	"errors"
	"time"

	"lingodrip/internal/model"
)

var ErrAnswerCountMismatch = errors.New("answer count does not match question count")

type (
	// QuestionStore is the slice of persistence the quiz needs.
	QuestionStore interface {
		ListActiveQuestions(ctx context.Context) ([]model.QuizQuestion, error)
		InsertResult(ctx context.Context, res *model.QuizResult) error
	}

	// PlacementStore sets the level the quiz mapped to.
	PlacementStore interface {
		SetPlacement(ctx context.Context, userID, level int) error
	}

	QuizService struct {
		questions QuestionStore
		users     PlacementStore
	}
)

func NewQuizService(questions QuestionStore, users PlacementStore) *QuizService {
	return &QuizService{questions: questions, users: users}
}

// Submit grades a placement attempt, assigns the level and marks the quiz
// completed, which makes the user eligible for drip content. Answers are
// choice indexes in question order.
func (s *QuizService) Submit(ctx context.Context, userID int, answers []int) (*model.QuizResult, error) {
	questions, err := s.questions.ListActiveQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(answers) != len(questions) {
		return nil, ErrAnswerCountMismatch
	}

	score := 0
	for i, q := range questions {
		if answers[i] == q.Answer {
			score++
		}
	}

	res := &model.QuizResult{
		UserID:      userID,
		Score:       score,
		Total:       len(questions),
		Level:       LevelForScore(score, len(questions)),
		CompletedAt: time.Now(),
	}
	if err := s.questions.InsertResult(ctx, res); err != nil {
		return nil, err
	}
	if err := s.users.SetPlacement(ctx, userID, res.Level); err != nil {
		return nil, err
	}
	return res, nil
}

// LevelForScore maps a quiz score to a proficiency level: below 40% is
// level 1, below 75% level 2, the rest level 3. An empty quiz places at
// level 1.
func LevelForScore(score, total int) int {
	if total == 0 {
		return 1
	}
	pct := score * 100 / total
	switch {
	case pct < 40:
		return 1
	case pct < 75:
		return 2
	default:
		return 3
	}
}
