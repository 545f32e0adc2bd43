package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studio730/community-api/internal/model"
)

type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// CommentWithAuthor is a comment joined with its author's public fields.
type CommentWithAuthor struct {
	Comment model.Comment
	Author  model.AuthorPublic
}

const commentSelect = `SELECT c.id, c.record_id, c.user_id, c.content,
			c.deleted, c.deleted_at, c.deleted_by, c.created_at, c.updated_at,
			u.id, u.email, u.nickname, u.first_name, u.last_name, u.city, u.country
		FROM comments c
		JOIN users u ON u.id = c.user_id`

func scanComment(rows *sql.Rows) (CommentWithAuthor, error) {
	var cw CommentWithAuthor
	c, a := &cw.Comment, &cw.Author
	err := rows.Scan(&c.ID, &c.RecordID, &c.UserID, &c.Content,
		&c.Deleted, &c.DeletedAt, &c.DeletedBy, &c.CreatedAt, &c.UpdatedAt,
		&a.ID, &a.Email, &a.Nickname, &a.FirstName, &a.LastName, &a.City, &a.Country)
	return cw, err
}

// Create inserts a comment and returns it joined with its author.
func (r *CommentRepo) Create(ctx context.Context, recordID, userID, content string) (CommentWithAuthor, error) {
	id := uuid.NewString()
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (id, record_id, user_id, content, deleted) VALUES (?,?,?,?,0)",
		id, recordID, userID, content); err != nil {
		return CommentWithAuthor{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches one comment with its author; soft-deleted comments are
// treated as missing.
func (r *CommentRepo) GetByID(ctx context.Context, id string) (CommentWithAuthor, error) {
	rows, err := r.DB.QueryContext(ctx, commentSelect+" WHERE c.id = ? AND c.deleted = 0 LIMIT 1", id)
	if err != nil {
		return CommentWithAuthor{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return CommentWithAuthor{}, err
		}
		return CommentWithAuthor{}, ErrCommentNotFound
	}
	return scanComment(rows)
}

// Update rewrites a comment's content. Ownership is enforced by the
// handler before calling.
func (r *CommentRepo) Update(ctx context.Context, id, content string) (CommentWithAuthor, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET content=? WHERE id=? AND deleted=0", content, id); err != nil {
		return CommentWithAuthor{}, err
	}
	return r.GetByID(ctx, id)
}

// SoftDelete marks a comment deleted on behalf of a moderator.
func (r *CommentRepo) SoftDelete(ctx context.Context, id, deletedBy string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET deleted=1, deleted_at=?, deleted_by=? WHERE id=? AND deleted=0",
		time.Now().UTC(), deletedBy, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// ListByRecordIDs returns all live comments of the given records keyed by
// record id, each slice ordered by creation time ascending. Called once
// per feed page with at most one page worth of ids.
func (r *CommentRepo) ListByRecordIDs(ctx context.Context, recordIDs []string) (map[string][]CommentWithAuthor, error) {
	out := make(map[string][]CommentWithAuthor, len(recordIDs))
	if len(recordIDs) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(recordIDs)-1) + "?"
	args := make([]any, len(recordIDs))
	for i, id := range recordIDs {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		commentSelect+" WHERE c.record_id IN ("+placeholders+") AND c.deleted = 0 ORDER BY c.created_at ASC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		cw, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out[cw.Comment.RecordID] = append(out[cw.Comment.RecordID], cw)
	}
	return out, rows.Err()
}

// CountActive returns non-deleted comments.
func (r *CommentRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE deleted=0").Scan(&n)
	return n, err
}
