package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/queue"
	"github.com/studio730/community-api/internal/repository"
	queue_publisher "github.com/studio730/community-api/internal/service"
)

// notifyRecordOwner writes an in-app notification for the record owner
// and forwards the event to the broker. The notification row is written
// within the request; the broker publish runs detached so a slow or down
// broker cannot stall the response. Failures are logged by the layers
// that produced them and otherwise ignored, so a notification hiccup
// never fails the comment or reaction that triggered it.
func notifyRecordOwner(c echo.Context, notifs *repository.NotificationRepo, kind, ownerID, message, recordID string) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	link := "/records/" + recordID
	if _, err := notifs.Create(ctx, ownerID, kind, message, link); err != nil {
		c.Logger().Warnf("notification insert failed for user %s: %v", ownerID, err)
		return
	}

	event := queue.NotificationEvent{
		Kind:      kind,
		UserID:    ownerID,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishNotification(pubCtx, event)
	}()
}
