package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingodrip/internal/model"
)

type fakeQuestionStore struct {
	questions []model.QuizQuestion
	results   []*model.QuizResult
}

func (f *fakeQuestionStore) ListActiveQuestions(ctx context.Context) ([]model.QuizQuestion, error) {
	return f.questions, nil
}

func (f *fakeQuestionStore) InsertResult(ctx context.Context, res *model.QuizResult) error {
	res.ID = len(f.results) + 1
	f.results = append(f.results, res)
	return nil
}

type fakePlacementStore struct {
	placements map[int]int
}

func (f *fakePlacementStore) SetPlacement(ctx context.Context, userID, level int) error {
	if f.placements == nil {
		f.placements = make(map[int]int)
	}
	f.placements[userID] = level
	return nil
}

func fourQuestions() []model.QuizQuestion {
	qs := make([]model.QuizQuestion, 4)
	for i := range qs {
		qs[i] = model.QuizQuestion{ID: i + 1, Prompt: "q", Choices: []string{"a", "b", "c"}, Answer: 1, IsActive: true}
	}
	return qs
}

func TestQuizSubmitGradesAndPlaces(t *testing.T) {
	questions := &fakeQuestionStore{questions: fourQuestions()}
	users := &fakePlacementStore{}
	svc := NewQuizService(questions, users)

	// 3 of 4 correct: 75% places at level 3
	res, err := svc.Submit(context.Background(), 7, []int{1, 1, 1, 0})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 3, res.Level)
	assert.Equal(t, 3, users.placements[7])
	require.Len(t, questions.results, 1)
}

func TestQuizSubmitAnswerCountMismatch(t *testing.T) {
	svc := NewQuizService(&fakeQuestionStore{questions: fourQuestions()}, &fakePlacementStore{})

	_, err := svc.Submit(context.Background(), 7, []int{1, 1})
	assert.ErrorIs(t, err, ErrAnswerCountMismatch)
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{0, 10, 1},
		{3, 10, 1},
		{4, 10, 2},
		{7, 10, 2},
		{8, 10, 3},
		{10, 10, 3},
		{0, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score, tt.total), "score %d/%d", tt.score, tt.total)
	}
}
