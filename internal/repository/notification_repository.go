package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/studio730/community-api/internal/model"
)

type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

const notificationColumns = "id, user_id, type, message, link, `read`, created_at"

func scanNotification(row interface{ Scan(...any) error }) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Link, &n.Read, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return n, ErrNotificationNotFound
	}
	return n, err
}

// Create inserts an unread notification for the given user and returns
// its id.
func (r *NotificationRepo) Create(ctx context.Context, userID, typ, message, link string) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, type, message, link, `read`) VALUES (?,?,?,?,?,0)",
		id, userID, typ, message, link)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetByID fetches one notification.
func (r *NotificationRepo) GetByID(ctx context.Context, id string) (model.Notification, error) {
	return scanNotification(r.DB.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=? LIMIT 1", id))
}

// ListByUser returns the user's notifications newest first, optionally
// unread only, capped at limit.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	q := "SELECT " + notificationColumns + " FROM notifications WHERE user_id=?"
	if unreadOnly {
		q += " AND `read`=0"
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	rows, err := r.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns the user's unread notifications.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id=? AND `read`=0", userID).Scan(&n)
	return n, err
}

// MarkRead marks one notification read and returns the updated row.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string) (model.Notification, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET `read`=1 WHERE id=?", id); err != nil {
		return model.Notification{}, err
	}
	return r.GetByID(ctx, id)
}

// MarkAllRead marks every unread notification of the user read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET `read`=1 WHERE user_id=? AND `read`=0", userID)
	return err
}
