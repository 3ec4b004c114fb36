// Package models defines the persisted server-side records.
package models

import "time"

// User is a registered principal. PasswordHash holds the salted argon2id
// digest produced by auth.HashPassword; it is write-only from the outside
// and never included in API responses.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
