package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/queue"
	"github.com/studio730/community-api/internal/repository"
	"github.com/studio730/community-api/internal/sanitize"
)

type CommentHandler struct {
	Comments      *repository.CommentRepo
	Records       *repository.RecordRepo
	Notifications *repository.NotificationRepo
}

func NewCommentHandler(com *repository.CommentRepo, rec *repository.RecordRepo, n *repository.NotificationRepo) *CommentHandler {
	return &CommentHandler{Comments: com, Records: rec, Notifications: n}
}

type commentReq struct {
	RecordID string `json:"recordId"`
	Content  string `json:"content"`
}

func (r *commentReq) validate() (string, error) {
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return "", apperr.Validation("Comment content is required")
	}
	if err := sanitize.ValidateLength(content, sanitize.MaxCommentContent); err != nil {
		return "", err
	}
	return sanitize.Text(content), nil
}

// Create serves POST /v1/comments. The record owner gets a notification
// unless they commented on their own record.
func (h *CommentHandler) Create(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if strings.TrimSpace(req.RecordID) == "" {
		return apperr.Validation("Record id is required")
	}
	content, err := req.validate()
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Records.GetByID(ctx, strings.TrimSpace(req.RecordID))
	if errors.Is(err, repository.ErrRecordNotFound) {
		return apperr.NotFound("Record not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch record")
	}

	cw, err := h.Comments.Create(ctx, rec.Record.ID, id.ID, content)
	if err != nil {
		return apperr.Database("Failed to save comment")
	}

	if rec.Record.UserID != id.ID {
		msg := id.DisplayName() + " commented on your record"
		notifyRecordOwner(c, h.Notifications, queue.KindComment, rec.Record.UserID, msg, rec.Record.ID)
	}

	return c.JSON(http.StatusCreated, newCommentView(cw))
}

// Update serves PUT /v1/comments/:id. Owner only.
func (h *CommentHandler) Update(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := h.Comments.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrCommentNotFound) {
		return apperr.NotFound("Comment not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch comment")
	}
	if existing.Comment.UserID != id.ID {
		return apperr.Forbidden("You can only edit your own comments")
	}

	var req commentReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	content, err := req.validate()
	if err != nil {
		return err
	}

	cw, err := h.Comments.Update(ctx, existing.Comment.ID, content)
	if err != nil {
		return apperr.Database("Failed to update comment")
	}
	return c.JSON(http.StatusOK, newCommentView(cw))
}
