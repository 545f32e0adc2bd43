package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/queue"
	"github.com/studio730/community-api/internal/repository"
	"github.com/studio730/community-api/internal/sanitize"
	queue_publisher "github.com/studio730/community-api/internal/service"
	"github.com/studio730/community-api/internal/utils"
)

const deleteTokenTTL = time.Hour

type ProfileHandler struct {
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewProfileHandler(u *repository.UserRepo, t *repository.TokenRepo) *ProfileHandler {
	return &ProfileHandler{Users: u, Tokens: t}
}

type profileView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Nickname    *string   `json:"nickname"`
	FirstName   *string   `json:"firstName"`
	LastName    *string   `json:"lastName"`
	City        *string   `json:"city"`
	Country     *string   `json:"country"`
	Bio         *string   `json:"bio"`
	Role        string    `json:"role"`
	HasPassword bool      `json:"hasPassword"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newProfileView(u model.User) profileView {
	return profileView{
		ID:          u.ID,
		Email:       u.Email,
		Nickname:    nullStr(u.Nickname),
		FirstName:   nullStr(u.FirstName),
		LastName:    nullStr(u.LastName),
		City:        nullStr(u.City),
		Country:     nullStr(u.Country),
		Bio:         nullStr(u.Bio),
		Role:        u.Role,
		HasPassword: u.PasswordHash.Valid && u.PasswordHash.String != "",
		CreatedAt:   u.CreatedAt,
	}
}

// Get serves GET /v1/profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid := middleware.CurrentUserID(c)
	if uid == "" {
		return apperr.Unauthorized("Unauthorized")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch profile")
	}
	return c.JSON(http.StatusOK, newProfileView(u))
}

type profileReq struct {
	Nickname  *string `json:"nickname"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	City      *string `json:"city"`
	Country   *string `json:"country"`
	Bio       *string `json:"bio"`
}

// cleanField trims and sanitizes an optional field, enforcing max first
// so the length check sees what the user actually typed, not the escaped
// expansion.
func cleanField(v *string, max int) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if max > 0 {
		if err := sanitize.ValidateLength(s, max); err != nil {
			return nil, err
		}
	}
	s = sanitize.Text(s)
	return &s, nil
}

// Update serves PUT /v1/profile. Fields absent from the body stay
// untouched; fields present but empty are cleared.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid := middleware.CurrentUserID(c)
	if uid == "" {
		return apperr.Unauthorized("Unauthorized")
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}

	var p repository.ProfileUpdate
	var err error
	if p.Nickname, err = cleanField(req.Nickname, sanitize.MaxNickname); err != nil {
		return err
	}
	if p.FirstName, err = cleanField(req.FirstName, sanitize.MaxNickname); err != nil {
		return err
	}
	if p.LastName, err = cleanField(req.LastName, sanitize.MaxNickname); err != nil {
		return err
	}
	if p.City, err = cleanField(req.City, sanitize.MaxNickname); err != nil {
		return err
	}
	if p.Country, err = cleanField(req.Country, sanitize.MaxNickname); err != nil {
		return err
	}
	if p.Bio, err = cleanField(req.Bio, sanitize.MaxBio); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, uid, p); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Database("Failed to update profile")
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return apperr.Database("Failed to update profile")
	}
	return c.JSON(http.StatusOK, newProfileView(u))
}

type deleteReq struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

// RequestDeleteToken serves POST /v1/profile/delete-token. It exists for
// accounts created through email verification that never set a password:
// they prove ownership with a single-use emailed token instead. The
// token's raw value leaves the service only via the broker event.
func (h *ProfileHandler) RequestDeleteToken(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		return apperr.Database("Failed to process request")
	}
	if u.PasswordHash.Valid && u.PasswordHash.String != "" {
		return apperr.Validation("This account deletes with password confirmation")
	}

	raw, err := utils.RandomHex(32)
	if err != nil {
		return apperr.Internal("Failed to process request")
	}
	expires := time.Now().UTC().Add(deleteTokenTTL)
	if err := h.Tokens.StoreDeleteToken(ctx, u.ID, utils.HashToken(raw), expires); err != nil {
		return apperr.Database("Failed to process request")
	}

	event := queue.NotificationEvent{
		Kind:      queue.KindAccountDelete,
		UserID:    u.ID,
		Email:     u.Email,
		Message:   "Confirm deletion of your Studio 7:30 account",
		Link:      "/profile/delete?token=" + raw,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishNotification(pubCtx, event)
	}()

	return c.JSON(http.StatusOK, echo.Map{"sent": true})
}

// Delete serves DELETE /v1/profile. The caller re-proves ownership with
// their password, or with a previously requested deletion token when the
// account has no password. All sessions are revoked before the row goes.
func (h *ProfileHandler) Delete(c echo.Context) error {
	uid := middleware.CurrentUserID(c)
	if uid == "" {
		return apperr.Unauthorized("Unauthorized")
	}
	var req deleteReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Database("Failed to delete account")
	}

	hasPassword := u.PasswordHash.Valid && u.PasswordHash.String != ""
	switch {
	case hasPassword:
		if req.Password == "" {
			return apperr.Validation("Password is required")
		}
		if !utils.VerifyPassword(u.PasswordHash.String, req.Password) {
			return apperr.Forbidden("Password is incorrect")
		}
	default:
		if req.Token == "" {
			return apperr.Validation("Deletion token is required")
		}
		err := h.Tokens.ConsumeDeleteToken(ctx, u.ID, utils.HashToken(req.Token))
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperr.Forbidden("Deletion token is invalid or expired")
		}
		if err != nil {
			return apperr.Database("Failed to delete account")
		}
	}

	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return apperr.Database("Failed to delete account")
	}
	if err := h.Users.Delete(ctx, u.ID); err != nil {
		return apperr.Database("Failed to delete account")
	}
	return c.NoContent(http.StatusNoContent)
}
