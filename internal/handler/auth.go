package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/config"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/repository"
	"github.com/studio730/community-api/internal/sanitize"
	"github.com/studio730/community-api/internal/utils"
)

// AuthHandler bundles dependencies for session endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type sessionUser struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Nickname *string `json:"nickname"`
	Role     string  `json:"role"`
}
type authResp struct {
	User    sessionUser `json:"user"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// Register creates an account and returns a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("Email and password are required")
	}
	req.Nickname = strings.TrimSpace(req.Nickname)
	if err := sanitize.ValidateLength(req.Nickname, sanitize.MaxNickname); err != nil {
		return err
	}
	nickname := sanitize.Text(req.Nickname)

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return apperr.Internal("Failed to create account")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, nickname, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.Validation("Email already registered")
		}
		return apperr.Database("Failed to create account")
	}

	return h.issuePair(c, http.StatusCreated, uid)
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("Email and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return apperr.Database("Login failed")
	}
	if !u.PasswordHash.Valid || !utils.VerifyPassword(u.PasswordHash.String, req.Password) {
		return apperr.Unauthorized("Invalid email or password")
	}
	if u.Blocked {
		return apperr.Forbidden("Your account has been blocked")
	}

	return h.issuePair(c, http.StatusOK, u.ID)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return apperr.Validation("Refresh token is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash := utils.HashToken(req.RefreshToken)
	uid, err := h.Tokens.FindRefresh(ctx, hash)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return apperr.Unauthorized("Invalid or expired refresh token")
	}
	if err != nil {
		return apperr.Database("Refresh failed")
	}
	if err := h.Tokens.RevokeRefresh(ctx, hash); err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return apperr.Database("Refresh failed")
	}

	return h.issuePair(c, http.StatusOK, uid)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return apperr.Validation("Refresh token is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tokens.RevokeRefresh(ctx, utils.HashToken(req.RefreshToken)); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperr.Unauthorized("Invalid or expired refresh token")
		}
		return apperr.Database("Logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's identity as resolved by the role
// guard for this request.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	var nick *string
	if id.Nickname != "" {
		nick = &id.Nickname
	}
	return c.JSON(http.StatusOK, sessionUser{ID: id.ID, Email: id.Email, Nickname: nick, Role: id.Role})
}

func (h *AuthHandler) issuePair(c echo.Context, status int, userID string) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return apperr.Database("Failed to load user")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return apperr.Internal("Failed to issue access token")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return apperr.Internal("Failed to issue refresh token")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return apperr.Database("Failed to persist session")
	}

	return c.JSON(status, authResp{
		User:    sessionUser{ID: u.ID, Email: u.Email, Nickname: nullStr(u.Nickname), Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
