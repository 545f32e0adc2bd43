package model

import (
	"database/sql"
	"time"
)

// Report target types and reasons; both enumerations are closed.
const (
	ReportTypeRecord  = "record"
	ReportTypeComment = "comment"
	ReportTypeUser    = "user"
)

const (
	ReasonSpam          = "spam"
	ReasonInappropriate = "inappropriate"
	ReasonHarassment    = "harassment"
	ReasonOther         = "other"
)

// Report statuses walked by the moderation queue.
const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

func ValidReportType(s string) bool {
	return s == ReportTypeRecord || s == ReportTypeComment || s == ReportTypeUser
}

func ValidReportReason(s string) bool {
	return s == ReasonSpam || s == ReasonInappropriate || s == ReasonHarassment || s == ReasonOther
}

func ValidReportStatus(s string) bool {
	return s == ReportPending || s == ReportReviewed || s == ReportResolved || s == ReportDismissed
}

// Report mirrors the `reports` table. Exactly one of RecordID, CommentID
// and ReportedUserID is set, matching Type.
type Report struct {
	ID             string
	Type           string
	Reason         string
	Description    sql.NullString
	Status         string
	ReportedByID   string
	RecordID       sql.NullString
	CommentID      sql.NullString
	ReportedUserID sql.NullString
	ReviewedBy     sql.NullString
	ReviewedAt     sql.NullTime
	CreatedAt      time.Time
}
