// Package repository implements data access over database/sql. Sentinel
// errors let handlers distinguish failure scenarios (missing rows, unique
// violations) from infrastructure faults without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is the base "no such row" failure. Entity-specific
// sentinels wrap it so errors.Is(err, ErrNotFound) works on all of them.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound         = wrapNotFound("user")
	ErrRecordNotFound       = wrapNotFound("record")
	ErrCommentNotFound      = wrapNotFound("comment")
	ErrReactionNotFound     = wrapNotFound("reaction")
	ErrReportNotFound       = wrapNotFound("report")
	ErrNotificationNotFound = wrapNotFound("notification")
	ErrTokenNotFound        = wrapNotFound("token")
)

// ErrEmailExists is returned when a registration collides with an
// existing account.
var ErrEmailExists = errors.New("email already exists")

type notFoundError struct{ entity string }

func (e *notFoundError) Error() string { return e.entity + " not found" }
func (e *notFoundError) Unwrap() error { return ErrNotFound }

func wrapNotFound(entity string) error { return &notFoundError{entity: entity} }
