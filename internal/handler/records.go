package handler

import (
	"context"
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
	"github.com/studio730/community-api/internal/sanitize"
)

// RecordHandler serves the records feed and the record CRUD surface. The
// feed joins each page of records with author profiles, ordered comments
// and reaction aggregates; a page is returned whole or not at all.
type RecordHandler struct {
	Records   *repository.RecordRepo
	Comments  *repository.CommentRepo
	Reactions *repository.ReactionRepo
}

func NewRecordHandler(rec *repository.RecordRepo, com *repository.CommentRepo, rx *repository.ReactionRepo) *RecordHandler {
	return &RecordHandler{Records: rec, Comments: com, Reactions: rx}
}

type commentView struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	User      authorView `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type reactionView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// feedItem is a record plus its denormalized aggregates. It is a view
// built per response, never stored.
type feedItem struct {
	ID             string         `json:"id"`
	User           authorView     `json:"user"`
	Date           time.Time      `json:"date"`
	City           string         `json:"city"`
	Content        string         `json:"content"`
	Gathering      string         `json:"gathering"`
	Comments       []commentView  `json:"comments"`
	CommentCount   int            `json:"commentCount"`
	ReactionCounts map[string]int `json:"reactionCounts"`
	UserReaction   *reactionView  `json:"userReaction"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func newCommentView(cw repository.CommentWithAuthor) commentView {
	return commentView{
		ID:        cw.Comment.ID,
		Content:   cw.Comment.Content,
		User:      newAuthorView(cw.Author),
		CreatedAt: cw.Comment.CreatedAt,
		UpdatedAt: cw.Comment.UpdatedAt,
	}
}

func newReactionView(x model.Reaction) reactionView {
	return reactionView{ID: x.ID, Type: x.Type, UserID: x.UserID, CreatedAt: x.CreatedAt}
}

// composeFeedItems attaches comments and reaction aggregates to one page
// of records. viewerID may be empty for anonymous readers.
func composeFeedItems(ctx context.Context, comments *repository.CommentRepo, reactions *repository.ReactionRepo, recs []repository.FeedRecord, viewerID string) ([]feedItem, error) {
	ids := make([]string, len(recs))
	for i, fr := range recs {
		ids[i] = fr.Record.ID
	}
	commentsByRec, err := comments.ListByRecordIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	reactionsByRec, err := reactions.ListByRecordIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]feedItem, 0, len(recs))
	for _, fr := range recs {
		rec := fr.Record
		item := feedItem{
			ID:        rec.ID,
			User:      newAuthorView(fr.Author),
			Date:      rec.Date,
			City:      rec.City,
			Content:   rec.Content,
			Gathering: rec.Gathering,
			Comments:  []commentView{},
			ReactionCounts: map[string]int{
				model.ReactionLike:     0,
				model.ReactionHeart:    0,
				model.ReactionThumbsUp: 0,
			},
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}
		for _, cw := range commentsByRec[rec.ID] {
			item.Comments = append(item.Comments, newCommentView(cw))
		}
		item.CommentCount = len(item.Comments)
		for _, x := range reactionsByRec[rec.ID] {
			item.ReactionCounts[x.Type]++
			if viewerID != "" && x.UserID == viewerID && item.UserReaction == nil {
				v := newReactionView(x)
				item.UserReaction = &v
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// resolveGathering accepts either a group id or a group display name and
// returns the stored name. Unknown values pass through unchanged so the
// filter simply matches nothing.
func resolveGathering(s string) string {
	if g, ok := model.GroupByID(s); ok {
		return g.Name
	}
	return s
}

// List serves GET /v1/records: the paginated, filterable public feed.
func (h *RecordHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	q := repository.FeedQuery{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	if g := strings.TrimSpace(c.QueryParam("gathering")); g != "" {
		q.Gathering = resolveGathering(g)
	}
	q.Normalize()

	ctx, cancel := reqCtx(c)
	defer cancel()

	recs, total, err := h.Records.Feed(ctx, q)
	if err != nil {
		return apperr.Database("Failed to fetch records")
	}
	items, err := composeFeedItems(ctx, h.Comments, h.Reactions, recs, middleware.CurrentUserID(c))
	if err != nil {
		return apperr.Database("Failed to fetch records")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"records":    items,
		"pagination": newPaginationView(q.Page, q.Limit, total),
	})
}

// Get serves GET /v1/records/:id.
func (h *RecordHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	fr, err := h.Records.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrRecordNotFound) {
		return apperr.NotFound("Record not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch record")
	}
	items, err := composeFeedItems(ctx, h.Comments, h.Reactions, []repository.FeedRecord{fr}, middleware.CurrentUserID(c))
	if err != nil {
		return apperr.Database("Failed to fetch record")
	}
	return c.JSON(http.StatusOK, items[0])
}

type recordReq struct {
	Date      string `json:"date"`
	City      string `json:"city"`
	Content   string `json:"content"`
	Gathering string `json:"gathering"`
}

// validate checks the explicit input schema before any business logic:
// required fields, date format, known gathering and the content length
// limit. It returns the parsed date and the sanitized fields.
func (r *recordReq) validate() (time.Time, string, string, string, error) {
	if r.Date == "" || strings.TrimSpace(r.Content) == "" {
		return time.Time{}, "", "", "", apperr.Validation("Date and content are required")
	}
	gathering := strings.TrimSpace(r.Gathering)
	if gathering == "" {
		return time.Time{}, "", "", "", apperr.Validation("Please select a gathering")
	}
	if _, ok := model.GroupByName(gathering); !ok {
		if g, ok := model.GroupByID(gathering); ok {
			gathering = g.Name
		} else {
			return time.Time{}, "", "", "", apperr.Validation("Unknown gathering")
		}
	}
	date, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		date, err = time.Parse("2006-01-02", r.Date)
	}
	if err != nil {
		return time.Time{}, "", "", "", apperr.Validation("Invalid date format")
	}

	content := strings.TrimSpace(r.Content)
	if err := sanitize.ValidateLength(content, sanitize.MaxRecordContent); err != nil {
		return time.Time{}, "", "", "", err
	}
	city := strings.TrimSpace(r.City)

	return date, sanitize.Text(city), sanitize.Text(content), gathering, nil
}

// Create serves POST /v1/records.
func (h *RecordHandler) Create(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	var req recordReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	date, city, content, gathering, err := req.validate()
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	fr, err := h.Records.Create(ctx, id.ID, date, city, content, gathering)
	if err != nil {
		return apperr.Database("Failed to save record")
	}
	items, err := composeFeedItems(ctx, h.Comments, h.Reactions, []repository.FeedRecord{fr}, id.ID)
	if err != nil {
		return apperr.Database("Failed to save record")
	}
	return c.JSON(http.StatusCreated, items[0])
}

// Update serves PUT /v1/records/:id. Only the owner may edit; moderation
// removals go through report resolution instead.
func (h *RecordHandler) Update(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := h.Records.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrRecordNotFound) {
		return apperr.NotFound("Record not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch record")
	}
	if existing.Record.UserID != id.ID {
		return apperr.Forbidden("You can only edit your own records")
	}

	var req recordReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	date, city, content, gathering, err := req.validate()
	if err != nil {
		return err
	}

	fr, err := h.Records.Update(ctx, existing.Record.ID, date, city, content, gathering)
	if err != nil {
		return apperr.Database("Failed to update record")
	}
	items, err := composeFeedItems(ctx, h.Comments, h.Reactions, []repository.FeedRecord{fr}, id.ID)
	if err != nil {
		return apperr.Database("Failed to update record")
	}
	return c.JSON(http.StatusOK, items[0])
}
