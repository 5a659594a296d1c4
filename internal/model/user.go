package model

import "time"

type User struct {
	ID           int
	Email        string
	PasswordHash string
	Level        int
	QuizDone     bool
	IsActive     bool
	CreatedAt    time.Time
}
