package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/repository"
	"github.com/studio730/community-api/internal/sanitize"
)

type ReportHandler struct {
	Reports  *repository.ReportRepo
	Records  *repository.RecordRepo
	Comments *repository.CommentRepo
	Users    *repository.UserRepo
}

func NewReportHandler(rp *repository.ReportRepo, rec *repository.RecordRepo, com *repository.CommentRepo, u *repository.UserRepo) *ReportHandler {
	return &ReportHandler{Reports: rp, Records: rec, Comments: com, Users: u}
}

type reportReq struct {
	Type        string `json:"type"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
	RecordID    string `json:"recordId"`
	CommentID   string `json:"commentId"`
	UserID      string `json:"userId"`
}

type reportView struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Create serves POST /v1/reports. The target id must match the report
// type and the target must exist and be visible; reporting an already
// removed record is rejected rather than silently queued.
func (h *ReportHandler) Create(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	var req reportReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if !model.ValidReportType(req.Type) {
		return apperr.Validation("Invalid report type")
	}
	if !model.ValidReportReason(req.Reason) {
		return apperr.Validation("Invalid report reason")
	}

	n := repository.NewReport{
		Type:         req.Type,
		Reason:       req.Reason,
		Description:  sanitize.Text(strings.TrimSpace(req.Description)),
		ReportedByID: id.ID,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch req.Type {
	case model.ReportTypeRecord:
		if req.RecordID == "" {
			return apperr.Validation("recordId is required for record reports")
		}
		if _, err := h.Records.GetByID(ctx, req.RecordID); err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return apperr.NotFound("Record not found")
			}
			return apperr.Database("Failed to submit report")
		}
		n.RecordID = req.RecordID
	case model.ReportTypeComment:
		if req.CommentID == "" {
			return apperr.Validation("commentId is required for comment reports")
		}
		if _, err := h.Comments.GetByID(ctx, req.CommentID); err != nil {
			if errors.Is(err, repository.ErrCommentNotFound) {
				return apperr.NotFound("Comment not found")
			}
			return apperr.Database("Failed to submit report")
		}
		n.CommentID = req.CommentID
	case model.ReportTypeUser:
		if req.UserID == "" {
			return apperr.Validation("userId is required for user reports")
		}
		if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperr.NotFound("User not found")
			}
			return apperr.Database("Failed to submit report")
		}
		n.ReportedUserID = req.UserID
	}

	rp, err := h.Reports.Create(ctx, n)
	if err != nil {
		return apperr.Database("Failed to submit report")
	}
	return c.JSON(http.StatusCreated, reportView{
		ID:        rp.ID,
		Type:      rp.Type,
		Reason:    rp.Reason,
		Status:    rp.Status,
		CreatedAt: rp.CreatedAt.UTC().Format(time.RFC3339),
	})
}
