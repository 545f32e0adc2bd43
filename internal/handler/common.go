// Package handler exposes the HTTP handlers behind every route. Handlers
// validate and sanitize input, enforce ownership, and return typed
// application errors; the uniform JSON error shape is produced by the
// central error handler, never here.
package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/model"
)

// dbTimeout bounds every store round trip made on behalf of a request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// authorView is the public author projection attached to records and
// comments.
type authorView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Nickname  *string `json:"nickname"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	City      *string `json:"city,omitempty"`
	Country   *string `json:"country,omitempty"`
}

func newAuthorView(a model.AuthorPublic) authorView {
	return authorView{
		ID:        a.ID,
		Email:     a.Email,
		Nickname:  nullStr(a.Nickname),
		FirstName: nullStr(a.FirstName),
		LastName:  nullStr(a.LastName),
		City:      nullStr(a.City),
		Country:   nullStr(a.Country),
	}
}

// paginationView is the standard success pagination shape.
type paginationView struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

func newPaginationView(page, limit int, total int64) paginationView {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return paginationView{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasMore:    int64(page) < totalPages,
	}
}
