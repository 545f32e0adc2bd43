package model

import "time"

// Notification mirrors the `notifications` table. Created when someone
// comments on or reacts to a record owned by a different user, and read
// back by its owner only.
type Notification struct {
	ID        string
	UserID    string
	Type      string // "comment" or "reaction"
	Message   string
	Link      string
	Read      bool
	CreatedAt time.Time
}
