package model

import "time"

// Notification is an in-app notification row, written by the worker when
// it consumes unlock events off the queue.
type Notification struct {
	ID        int
	UserID    int
	Type      string
	Content   string
	IsRead    bool
	CreatedAt time.Time
}
