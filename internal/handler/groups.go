package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/repository"
)

type GroupHandler struct {
	Records *repository.RecordRepo
}

func NewGroupHandler(rec *repository.RecordRepo) *GroupHandler {
	return &GroupHandler{Records: rec}
}

type groupView struct {
	model.Group
	RecordCount  int64      `json:"recordCount"`
	MemberCount  int64      `json:"memberCount"`
	LastRecordAt *time.Time `json:"lastRecordAt"`
	LastAuthor   *string    `json:"lastAuthor"`
}

// List serves GET /v1/groups: the fixed gathering catalogue with live
// activity stats per group.
func (h *GroupHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	views := make([]groupView, 0, len(model.AvailableGroups))
	for _, g := range model.AvailableGroups {
		stats, err := h.Records.StatsByGathering(ctx, g.Name)
		if err != nil {
			return apperr.Database("Failed to fetch groups")
		}
		v := groupView{Group: g, RecordCount: stats.RecordCount, MemberCount: stats.MemberCount}
		if stats.LastRecordAt.Valid {
			t := stats.LastRecordAt.Time
			v.LastRecordAt = &t
		}
		if stats.LastAuthor.Valid {
			a := stats.LastAuthor.String
			v.LastAuthor = &a
		}
		views = append(views, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"groups": views})
}
