package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/queue"
	"github.com/studio730/community-api/internal/repository"
)

type ReactionHandler struct {
	Reactions     *repository.ReactionRepo
	Records       *repository.RecordRepo
	Notifications *repository.NotificationRepo
}

func NewReactionHandler(rx *repository.ReactionRepo, rec *repository.RecordRepo, n *repository.NotificationRepo) *ReactionHandler {
	return &ReactionHandler{Reactions: rx, Records: rec, Notifications: n}
}

type reactionReq struct {
	RecordID string `json:"recordId"`
	Type     string `json:"type"`
}

// Create serves POST /v1/reactions. Reacting twice with the same type is
// a no-op returning the existing row, so retries and double-clicks are
// safe. Only the first insert notifies the record owner.
func (h *ReactionHandler) Create(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	var req reactionReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	req.RecordID = strings.TrimSpace(req.RecordID)
	if req.RecordID == "" {
		return apperr.Validation("Record id is required")
	}
	if !model.ValidReactionType(req.Type) {
		return apperr.Validation("Invalid reaction type")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Records.GetByID(ctx, req.RecordID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return apperr.NotFound("Record not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch record")
	}

	if existing, err := h.Reactions.GetByKey(ctx, rec.Record.ID, id.ID, req.Type); err == nil {
		return c.JSON(http.StatusOK, newReactionView(existing))
	} else if !errors.Is(err, repository.ErrReactionNotFound) {
		return apperr.Database("Failed to save reaction")
	}

	x, err := h.Reactions.Create(ctx, rec.Record.ID, id.ID, req.Type)
	if err != nil {
		return apperr.Database("Failed to save reaction")
	}

	if rec.Record.UserID != id.ID {
		msg := id.DisplayName() + " reacted to your record"
		notifyRecordOwner(c, h.Notifications, queue.KindReaction, rec.Record.UserID, msg, rec.Record.ID)
	}

	return c.JSON(http.StatusCreated, newReactionView(x))
}

// Delete serves DELETE /v1/reactions?recordId=..&type=... A reaction is
// addressed by its natural key, never by row id, so the client does not
// have to remember ids it may never have seen.
func (h *ReactionHandler) Delete(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	recordID := strings.TrimSpace(c.QueryParam("recordId"))
	typ := c.QueryParam("type")
	if recordID == "" || !model.ValidReactionType(typ) {
		return apperr.Validation("recordId and a valid type are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Reactions.Delete(ctx, recordID, id.ID, typ)
	if errors.Is(err, repository.ErrReactionNotFound) {
		return apperr.NotFound("Reaction not found")
	}
	if err != nil {
		return apperr.Database("Failed to remove reaction")
	}
	return c.NoContent(http.StatusNoContent)
}
