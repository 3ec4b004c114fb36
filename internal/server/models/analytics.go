package models

import "time"

// TaskStat counts a user's tasks for one completion state.
type TaskStat struct {
	IsCompleted bool
	Count       int64
}

// TaskOverview is a task row enriched with its owner's display name, used by
// analytics listings and search results.
type TaskOverview struct {
	ID          int64
	Title       string
	IsCompleted bool
	Priority    string
	CreatedAt   time.Time
	OwnerName   string
}

// DailyCount is the number of tasks created on one day.
type DailyCount struct {
	Day   time.Time
	Count int64
}

// UserTaskSummary is a user row with aggregate task counts and a short
// preview of the user's newest open task ids.
type UserTaskSummary struct {
	ID            int64
	Email         string
	Name          string
	CreatedAt     time.Time
	TaskCount     int64
	OpenTaskCount int64
	OpenTaskIDs   []int64
}
