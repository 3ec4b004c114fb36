package models

import "time"

// Task belongs to exactly one user. UserID is used only for ownership
// filtering and is stripped before a task leaves the API.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	IsCompleted bool
	Priority    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries the optional fields of a partial task update.
// Nil means "leave unchanged".
type TaskPatch struct {
	Title       *string
	IsCompleted *bool
	Priority    *string
}
