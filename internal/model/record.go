package model

import (
	"database/sql"
	"time"
)

// Record mirrors the `records` table: a user-authored activity post tied
// to a gathering and a date. Deletion is soft; deleted records stay in the
// table with Deleted set and are excluded from every feed query.
type Record struct {
	ID        string
	UserID    string
	Date      time.Time
	City      string
	Content   string
	Gathering string
	Deleted   bool
	DeletedAt sql.NullTime
	DeletedBy sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment mirrors the `comments` table. Same soft-deletion scheme as
// records.
type Comment struct {
	ID        string
	RecordID  string
	UserID    string
	Content   string
	Deleted   bool
	DeletedAt sql.NullTime
	DeletedBy sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reaction types. A reaction is unique per (record, user, type).
const (
	ReactionLike     = "like"
	ReactionHeart    = "heart"
	ReactionThumbsUp = "thumbs-up"
)

// ValidReactionType reports whether s is an accepted reaction type.
func ValidReactionType(s string) bool {
	return s == ReactionLike || s == ReactionHeart || s == ReactionThumbsUp
}

// Reaction mirrors the `reactions` table.
type Reaction struct {
	ID        string
	RecordID  string
	UserID    string
	Type      string
	CreatedAt time.Time
}

// AuthorPublic carries the author fields that are safe to expose on feed
// items and comments. Scanned alongside the owning row by the feed
// queries.
type AuthorPublic struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Nickname  sql.NullString `json:"-"`
	FirstName sql.NullString `json:"-"`
	LastName  sql.NullString `json:"-"`
	City      sql.NullString `json:"-"`
	Country   sql.NullString `json:"-"`
}
