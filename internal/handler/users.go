package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/repository"
)

const (
	publicRecordsMaxLimit = 50
	// Profile pages show a short comment preview per record; the full
	// thread lives on the record itself.
	publicCommentPreview = 3
)

// UserHandler serves public member profiles: the visible subset of the
// user row, content counts and a paginated slice of their records.
type UserHandler struct {
	Users     *repository.UserRepo
	Records   *repository.RecordRepo
	Comments  *repository.CommentRepo
	Reactions *repository.ReactionRepo
}

func NewUserHandler(u *repository.UserRepo, rec *repository.RecordRepo, com *repository.CommentRepo, rx *repository.ReactionRepo) *UserHandler {
	return &UserHandler{Users: u, Records: rec, Comments: com, Reactions: rx}
}

type publicProfileView struct {
	ID        string    `json:"id"`
	Nickname  *string   `json:"nickname"`
	FirstName *string   `json:"firstName"`
	City      *string   `json:"city"`
	Country   *string   `json:"country"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// Get serves GET /v1/users/:id. Email, role and moderation state are
// never exposed here.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch user")
	}

	stats, err := h.Users.Stats(ctx, u.ID)
	if err != nil {
		return apperr.Database("Failed to fetch user")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	q := repository.FeedQuery{Page: page, Limit: limit, UserID: u.ID, MaxLimit: publicRecordsMaxLimit}
	q.Normalize()

	recs, total, err := h.Records.Feed(ctx, q)
	if err != nil {
		return apperr.Database("Failed to fetch user")
	}
	items, err := composeFeedItems(ctx, h.Comments, h.Reactions, recs, middleware.CurrentUserID(c))
	if err != nil {
		return apperr.Database("Failed to fetch user")
	}
	for i := range items {
		if len(items[i].Comments) > publicCommentPreview {
			items[i].Comments = items[i].Comments[:publicCommentPreview]
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": publicProfileView{
			ID:        u.ID,
			Nickname:  nullStr(u.Nickname),
			FirstName: nullStr(u.FirstName),
			City:      nullStr(u.City),
			Country:   nullStr(u.Country),
			Bio:       nullStr(u.Bio),
			CreatedAt: u.CreatedAt,
		},
		"stats": echo.Map{
			"records":   stats.Records,
			"comments":  stats.Comments,
			"reactions": stats.Reactions,
		},
		"records":    items,
		"pagination": newPaginationView(q.Page, q.Limit, total),
	})
}
