package model

import "time"

// Tip is one piece of drip content. Level matches the user's placement
// level; only active tips are served.
type Tip struct {
	ID        int
	Level     int
	Title     string
	Body      string
	Category  string
	IsActive  bool
	CreatedAt time.Time
}
