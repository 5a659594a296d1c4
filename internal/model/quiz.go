package model

import "time"

// QuizQuestion is one placement-quiz question. Answer is the index of the
// correct choice.
type QuizQuestion struct {
	ID        int
	Prompt    string
	Choices   []string
	Answer    int
	IsActive  bool
	CreatedAt time.Time
}

// QuizResult records a finished placement attempt and the level it mapped to.
type QuizResult struct {
	ID          int
	UserID      int
	Score       int
	Total       int
	Level       int
	CompletedAt time.Time
}
