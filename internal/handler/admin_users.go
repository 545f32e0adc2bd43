package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/repository"
)

// AdminUserHandler serves the moderation console's user surface.
type AdminUserHandler struct {
	Users *repository.UserRepo
}

func NewAdminUserHandler(u *repository.UserRepo) *AdminUserHandler {
	return &AdminUserHandler{Users: u}
}

type adminUserView struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Nickname      *string   `json:"nickname"`
	FirstName     *string   `json:"firstName"`
	LastName      *string   `json:"lastName"`
	Role          string    `json:"role"`
	Blocked       bool      `json:"blocked"`
	RecordCount   int64     `json:"recordCount"`
	CommentCount  int64     `json:"commentCount"`
	ReactionCount int64     `json:"reactionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newAdminUserView(row repository.AdminUserRow) adminUserView {
	u := row.User
	return adminUserView{
		ID:            u.ID,
		Email:         u.Email,
		Nickname:      nullStr(u.Nickname),
		FirstName:     nullStr(u.FirstName),
		LastName:      nullStr(u.LastName),
		Role:          u.Role,
		Blocked:       u.Blocked,
		RecordCount:   row.RecordCount,
		CommentCount:  row.CommentCount,
		ReactionCount: row.ReactionCount,
		CreatedAt:     u.CreatedAt,
	}
}

// List serves GET /v1/admin/users with search, role and blocked filters.
func (h *AdminUserHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	f := repository.AdminUserFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Page:   page,
		Limit:  limit,
	}
	if role := c.QueryParam("role"); role != "" {
		if !model.ValidRole(role) {
			return apperr.Validation("Invalid role filter")
		}
		f.Role = role
	}
	switch c.QueryParam("blocked") {
	case "":
	case "true":
		b := true
		f.Blocked = &b
	case "false":
		b := false
		f.Blocked = &b
	default:
		return apperr.Validation("Invalid blocked filter")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Users.AdminList(ctx, f)
	if err != nil {
		return apperr.Database("Failed to fetch users")
	}
	views := make([]adminUserView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newAdminUserView(row))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users":      views,
		"pagination": newPaginationView(page, limit, total),
	})
}

type adminUserUpdateReq struct {
	Role    *string `json:"role"`
	Blocked *bool   `json:"blocked"`
}

// Update serves PUT /v1/admin/users/:id: role changes and block toggles.
// Admins cannot edit their own row, so an admin can never lock themselves
// out or silently self-promote.
func (h *AdminUserHandler) Update(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	targetID := c.Param("id")
	if targetID == id.ID {
		return apperr.Forbidden("You cannot modify your own account")
	}

	var req adminUserUpdateReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if req.Role == nil && req.Blocked == nil {
		return apperr.Validation("Nothing to update")
	}
	if req.Role != nil && !model.ValidRole(*req.Role) {
		return apperr.Validation("Invalid role")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.UpdateModeration(ctx, targetID, req.Role, req.Blocked)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Database("Failed to update user")
	}
	return c.JSON(http.StatusOK, adminUserView{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  nullStr(u.Nickname),
		FirstName: nullStr(u.FirstName),
		LastName:  nullStr(u.LastName),
		Role:      u.Role,
		Blocked:   u.Blocked,
		CreatedAt: u.CreatedAt,
	})
}
