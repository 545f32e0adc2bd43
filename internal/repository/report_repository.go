package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studio730/community-api/internal/model"
)

type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

const reportColumns = "id, type, reason, description, status, reported_by_id, record_id, comment_id, reported_user_id, reviewed_by, reviewed_at, created_at"

func scanReport(row interface{ Scan(...any) error }) (model.Report, error) {
	var rp model.Report
	err := row.Scan(&rp.ID, &rp.Type, &rp.Reason, &rp.Description, &rp.Status,
		&rp.ReportedByID, &rp.RecordID, &rp.CommentID, &rp.ReportedUserID,
		&rp.ReviewedBy, &rp.ReviewedAt, &rp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rp, ErrReportNotFound
	}
	return rp, err
}

// NewReport carries the validated fields of a report submission. Exactly
// one target id is set, matching Type; the handler enforces that before
// calling.
type NewReport struct {
	Type           string
	Reason         string
	Description    string
	ReportedByID   string
	RecordID       string
	CommentID      string
	ReportedUserID string
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a report in pending status.
func (r *ReportRepo) Create(ctx context.Context, n NewReport) (model.Report, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO reports (id, type, reason, description, status, reported_by_id, record_id, comment_id, reported_user_id) VALUES (?,?,?,?, 'pending', ?,?,?,?)",
		id, n.Type, n.Reason, nullable(n.Description), n.ReportedByID,
		nullable(n.RecordID), nullable(n.CommentID), nullable(n.ReportedUserID))
	if err != nil {
		return model.Report{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches one report.
func (r *ReportRepo) GetByID(ctx context.Context, id string) (model.Report, error) {
	return scanReport(r.DB.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE id=? LIMIT 1", id))
}

// SetStatus records the moderation decision and who made it.
func (r *ReportRepo) SetStatus(ctx context.Context, id, status, reviewedBy string) (model.Report, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE reports SET status=?, reviewed_by=?, reviewed_at=? WHERE id=?",
		status, reviewedBy, time.Now().UTC(), id)
	if err != nil {
		return model.Report{}, err
	}
	return r.GetByID(ctx, id)
}

// ReportedContent carries the reported target's excerpt plus its author,
// for display in the moderation queue.
type ReportedContent struct {
	ID      string
	Content string
	Author  model.AuthorPublic
}

// AdminReportRow joins a report with the reporter and the reported
// content so moderators can review without extra lookups.
type AdminReportRow struct {
	Report   model.Report
	Reporter model.AuthorPublic
	Record   *ReportedContent
	Comment  *ReportedContent
}

// AdminList pages through reports of one status, newest first, joining
// reporter and reported record/comment details.
func (r *ReportRepo) AdminList(ctx context.Context, status string, page, limit int) ([]AdminReportRow, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reports WHERE status=?", status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT
			rp.id, rp.type, rp.reason, rp.description, rp.status, rp.reported_by_id,
			rp.record_id, rp.comment_id, rp.reported_user_id, rp.reviewed_by, rp.reviewed_at, rp.created_at,
			ru.id, ru.email, ru.nickname,
			rec.id, rec.content, recu.id, recu.email, recu.nickname,
			c.id, c.content, cu.id, cu.email, cu.nickname
		FROM reports rp
		JOIN users ru ON ru.id = rp.reported_by_id
		LEFT JOIN records rec ON rec.id = rp.record_id
		LEFT JOIN users recu ON recu.id = rec.user_id
		LEFT JOIN comments c ON c.id = rp.comment_id
		LEFT JOIN users cu ON cu.id = c.user_id
		WHERE rp.status = ?
		ORDER BY rp.created_at DESC
		LIMIT ? OFFSET ?`,
		status, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]AdminReportRow, 0, limit)
	for rows.Next() {
		var row AdminReportRow
		rp := &row.Report
		var recID, recContent, recUID, recEmail sql.NullString
		var recNick sql.NullString
		var cID, cContent, cUID, cEmail sql.NullString
		var cNick sql.NullString
		if err := rows.Scan(
			&rp.ID, &rp.Type, &rp.Reason, &rp.Description, &rp.Status, &rp.ReportedByID,
			&rp.RecordID, &rp.CommentID, &rp.ReportedUserID, &rp.ReviewedBy, &rp.ReviewedAt, &rp.CreatedAt,
			&row.Reporter.ID, &row.Reporter.Email, &row.Reporter.Nickname,
			&recID, &recContent, &recUID, &recEmail, &recNick,
			&cID, &cContent, &cUID, &cEmail, &cNick); err != nil {
			return nil, 0, err
		}
		if recID.Valid {
			row.Record = &ReportedContent{
				ID:      recID.String,
				Content: recContent.String,
				Author:  model.AuthorPublic{ID: recUID.String, Email: recEmail.String, Nickname: recNick},
			}
		}
		if cID.Valid {
			row.Comment = &ReportedContent{
				ID:      cID.String,
				Content: cContent.String,
				Author:  model.AuthorPublic{ID: cUID.String, Email: cEmail.String, Nickname: cNick},
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByStatus returns reports with the given status.
func (r *ReportRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reports WHERE status=?", status).Scan(&n)
	return n, err
}
