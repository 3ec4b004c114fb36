package models

import "time"

// Attachment is a file linked to a task. The blob itself lives in object
// storage under StorageKey; the row only records the linkage. Ownership is
// derived through the task row, never stored twice.
type Attachment struct {
	ID         int64
	TaskID     int64
	FileName   string
	StorageKey string
	CreatedAt  time.Time
}
