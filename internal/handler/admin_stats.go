package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/repository"
)

// AdminStatsHandler aggregates the numbers shown on the admin dashboard.
type AdminStatsHandler struct {
	Users     *repository.UserRepo
	Records   *repository.RecordRepo
	Comments  *repository.CommentRepo
	Reactions *repository.ReactionRepo
	Reports   *repository.ReportRepo
}

func NewAdminStatsHandler(u *repository.UserRepo, rec *repository.RecordRepo, com *repository.CommentRepo, rx *repository.ReactionRepo, rp *repository.ReportRepo) *AdminStatsHandler {
	return &AdminStatsHandler{Users: u, Records: rec, Comments: com, Reactions: rx, Reports: rp}
}

// Get serves GET /v1/admin/stats. Counts are live queries; the response
// is small enough that a cache would save nothing here.
func (h *AdminStatsHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	weekAgo := time.Now().UTC().Add(-7 * 24 * time.Hour)

	totalUsers, err := h.Users.Count(ctx)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}
	blockedUsers, err := h.Users.CountBlocked(ctx)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}
	newUsers, err := h.Users.CountCreatedSince(ctx, weekAgo)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}
	totalRecords, err := h.Records.CountActive(ctx)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}
	newRecords, err := h.Records.CountCreatedSince(ctx, weekAgo)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}
	totalComments, err := h.Comments.CountActive(ctx)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}
	totalReactions, err := h.Reactions.Count(ctx)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}
	pendingReports, err := h.Reports.CountByStatus(ctx, model.ReportPending)
	if err != nil {
		return apperr.Database("Failed to fetch stats")
	}

	groups := make([]echo.Map, 0, len(model.AvailableGroups))
	for _, g := range model.AvailableGroups {
		s, err := h.Records.StatsByGathering(ctx, g.Name)
		if err != nil {
			return apperr.Database("Failed to fetch stats")
		}
		groups = append(groups, echo.Map{
			"id":          g.ID,
			"name":        g.Name,
			"recordCount": s.RecordCount,
			"memberCount": s.MemberCount,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": echo.Map{
			"total":       totalUsers,
			"blocked":     blockedUsers,
			"newThisWeek": newUsers,
		},
		"records": echo.Map{
			"total":       totalRecords,
			"newThisWeek": newRecords,
		},
		"comments":  echo.Map{"total": totalComments},
		"reactions": echo.Map{"total": totalReactions},
		"reports":   echo.Map{"pending": pendingReports},
		"groups":    groups,
	})
}
