// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// Event kinds carried on the notification queue.
const (
	KindComment       = "comment"
	KindReaction      = "reaction"
	KindAccountDelete = "account_delete"
)

// NotificationEvent is published whenever an in-app notification is
// created, and when an account-deletion confirmation is requested. It
// carries enough for downstream consumers (the email deliverer, audit
// logging) to act without querying the primary database. Email delivery
// itself happens outside this service.
type NotificationEvent struct {
	Kind      string `json:"kind"`
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	CreatedAt string `json:"created_at"`
}
