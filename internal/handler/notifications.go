package handler

import (
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

type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

type notificationView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func newNotificationView(n model.Notification) notificationView {
	return notificationView{ID: n.ID, Type: n.Type, Message: n.Message, Link: n.Link, Read: n.Read, CreatedAt: n.CreatedAt}
}

// List serves GET /v1/notifications?unreadOnly=&limit=. The viewer only
// ever sees their own rows; limit is clamped to [1,100], default 50.
func (h *NotificationHandler) List(c echo.Context) error {
	uid := middleware.CurrentUserID(c)
	if uid == "" {
		return apperr.Unauthorized("Unauthorized")
	}
	unreadOnly := c.QueryParam("unreadOnly") == "true"
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Notifications.ListByUser(ctx, uid, unreadOnly, limit)
	if err != nil {
		return apperr.Database("Failed to fetch notifications")
	}
	unread, err := h.Notifications.CountUnread(ctx, uid)
	if err != nil {
		return apperr.Database("Failed to fetch notifications")
	}

	views := make([]notificationView, 0, len(rows))
	for _, n := range rows {
		views = append(views, newNotificationView(n))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": views,
		"unreadCount":   unread,
	})
}

type markReadReq struct {
	NotificationID string `json:"notificationId"`
	MarkAllAsRead  bool   `json:"markAllAsRead"`
}

// MarkRead serves PUT /v1/notifications. Either a single id or the
// markAllAsRead flag must be present; a single id must belong to the
// caller.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid := middleware.CurrentUserID(c)
	if uid == "" {
		return apperr.Unauthorized("Unauthorized")
	}
	var req markReadReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.MarkAllAsRead {
		if err := h.Notifications.MarkAllRead(ctx, uid); err != nil {
			return apperr.Database("Failed to update notifications")
		}
		return c.JSON(http.StatusOK, echo.Map{"updated": true})
	}

	if req.NotificationID == "" {
		return apperr.Validation("notificationId or markAllAsRead is required")
	}

	existing, err := h.Notifications.GetByID(ctx, req.NotificationID)
	if errors.Is(err, repository.ErrNotificationNotFound) {
		return apperr.NotFound("Notification not found")
	}
	if err != nil {
		return apperr.Database("Failed to update notification")
	}
	if existing.UserID != uid {
		return apperr.Forbidden("You can only update your own notifications")
	}

	n, err := h.Notifications.MarkRead(ctx, existing.ID)
	if err != nil {
		return apperr.Database("Failed to update notification")
	}
	return c.JSON(http.StatusOK, newNotificationView(n))
}
