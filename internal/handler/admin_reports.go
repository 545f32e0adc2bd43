package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/repository"
)

// Resolution actions a moderator may attach to a report review.
const (
	actionDeleteRecord  = "delete_record"
	actionDeleteComment = "delete_comment"
	actionBlockUser     = "block_user"
)

// AdminReportHandler drives the moderation queue: listing open reports
// with their reported content and resolving them, optionally removing
// the content or blocking the offender in the same step.
type AdminReportHandler struct {
	Reports  *repository.ReportRepo
	Records  *repository.RecordRepo
	Comments *repository.CommentRepo
	Users    *repository.UserRepo
}

func NewAdminReportHandler(rp *repository.ReportRepo, rec *repository.RecordRepo, com *repository.CommentRepo, u *repository.UserRepo) *AdminReportHandler {
	return &AdminReportHandler{Reports: rp, Records: rec, Comments: com, Users: u}
}

type reportedContentView struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Author  authorView `json:"author"`
}

type adminReportView struct {
	ID             string               `json:"id"`
	Type           string               `json:"type"`
	Reason         string               `json:"reason"`
	Description    *string              `json:"description"`
	Status         string               `json:"status"`
	Reporter       authorView           `json:"reporter"`
	Record         *reportedContentView `json:"record"`
	Comment        *reportedContentView `json:"comment"`
	ReportedUserID *string              `json:"reportedUserId"`
	ReviewedBy     *string              `json:"reviewedBy"`
	ReviewedAt     *time.Time           `json:"reviewedAt"`
	CreatedAt      time.Time            `json:"createdAt"`
}

func newAdminReportView(row repository.AdminReportRow) adminReportView {
	rp := row.Report
	v := adminReportView{
		ID:             rp.ID,
		Type:           rp.Type,
		Reason:         rp.Reason,
		Description:    nullStr(rp.Description),
		Status:         rp.Status,
		Reporter:       newAuthorView(row.Reporter),
		ReportedUserID: nullStr(rp.ReportedUserID),
		ReviewedBy:     nullStr(rp.ReviewedBy),
		CreatedAt:      rp.CreatedAt,
	}
	if rp.ReviewedAt.Valid {
		t := rp.ReviewedAt.Time
		v.ReviewedAt = &t
	}
	if row.Record != nil {
		v.Record = &reportedContentView{ID: row.Record.ID, Content: row.Record.Content, Author: newAuthorView(row.Record.Author)}
	}
	if row.Comment != nil {
		v.Comment = &reportedContentView{ID: row.Comment.ID, Content: row.Comment.Content, Author: newAuthorView(row.Comment.Author)}
	}
	return v
}

// List serves GET /v1/admin/reports?status=pending.
func (h *AdminReportHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = model.ReportPending
	}
	if !model.ValidReportStatus(status) {
		return apperr.Validation("Invalid report status")
	}
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

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Reports.AdminList(ctx, status, page, limit)
	if err != nil {
		return apperr.Database("Failed to fetch reports")
	}
	views := make([]adminReportView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newAdminReportView(row))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reports":    views,
		"pagination": newPaginationView(page, limit, total),
	})
}

type reportReviewReq struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

// Update serves PUT /v1/admin/reports/:id. The status moves out of
// pending; an optional action removes the reported content or blocks the
// reported user. The action runs before the status write so a failed
// removal leaves the report open.
func (h *AdminReportHandler) Update(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	var req reportReviewReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if !model.ValidReportStatus(req.Status) || req.Status == model.ReportPending {
		return apperr.Validation("Invalid report status")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rp, err := h.Reports.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrReportNotFound) {
		return apperr.NotFound("Report not found")
	}
	if err != nil {
		return apperr.Database("Failed to fetch report")
	}

	switch req.Action {
	case "":
	case actionDeleteRecord:
		if !rp.RecordID.Valid {
			return apperr.Validation("Report has no record to delete")
		}
		if err := h.Records.SoftDelete(ctx, rp.RecordID.String, id.ID); err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
			return apperr.Database("Failed to delete record")
		}
	case actionDeleteComment:
		if !rp.CommentID.Valid {
			return apperr.Validation("Report has no comment to delete")
		}
		if err := h.Comments.SoftDelete(ctx, rp.CommentID.String, id.ID); err != nil && !errors.Is(err, repository.ErrCommentNotFound) {
			return apperr.Database("Failed to delete comment")
		}
	case actionBlockUser:
		target, err := h.blockTarget(ctx, rp)
		if err != nil {
			return err
		}
		if err := h.Users.SetBlocked(ctx, target, true); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return apperr.Database("Failed to block user")
		}
	default:
		return apperr.Validation("Invalid action")
	}

	updated, err := h.Reports.SetStatus(ctx, rp.ID, req.Status, id.ID)
	if err != nil {
		return apperr.Database("Failed to update report")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":         updated.ID,
		"status":     updated.Status,
		"reviewedBy": nullStr(updated.ReviewedBy),
	})
}

// blockTarget resolves the user a block action should hit: the directly
// reported user, or the author of the reported record or comment.
func (h *AdminReportHandler) blockTarget(ctx context.Context, rp model.Report) (string, error) {
	if rp.ReportedUserID.Valid {
		return rp.ReportedUserID.String, nil
	}
	if rp.RecordID.Valid {
		rec, err := h.Records.GetByID(ctx, rp.RecordID.String)
		if err == nil {
			return rec.Record.UserID, nil
		}
		if !errors.Is(err, repository.ErrRecordNotFound) {
			return "", apperr.Database("Failed to block user")
		}
	}
	if rp.CommentID.Valid {
		cw, err := h.Comments.GetByID(ctx, rp.CommentID.String)
		if err == nil {
			return cw.Comment.UserID, nil
		}
		if !errors.Is(err, repository.ErrCommentNotFound) {
			return "", apperr.Database("Failed to block user")
		}
	}
	return "", apperr.Validation("Report has no user to block")
}
