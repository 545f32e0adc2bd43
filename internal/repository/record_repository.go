package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studio730/community-api/internal/model"
)

type RecordRepo struct{ DB *sql.DB }

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{DB: db} }

// FeedQuery is the resolved, validated pagination/filter state of one feed
// request. Built fresh per request and not mutated after Normalize.
type FeedQuery struct {
	Page      int
	Limit     int
	Gathering string // restrict to one group, by name
	Search    string // case-insensitive contains match
	UserID    string // restrict to one author (public profile listing)
	MaxLimit  int    // clamp ceiling; defaults to 100
}

// Normalize clamps pagination: page >= 1, limit within [1, MaxLimit].
func (q *FeedQuery) Normalize() {
	if q.MaxLimit <= 0 {
		q.MaxLimit = 100
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if q.Limit > q.MaxLimit {
		q.Limit = q.MaxLimit
	}
}

// FeedRecord is a record joined with its author's public fields.
type FeedRecord struct {
	Record model.Record
	Author model.AuthorPublic
}

const feedSelect = `SELECT rec.id, rec.user_id, rec.date, rec.city, rec.content, rec.gathering,
			rec.deleted, rec.deleted_at, rec.deleted_by, rec.created_at, rec.updated_at,
			u.id, u.email, u.nickname, u.first_name, u.last_name, u.city, u.country
		FROM records rec
		JOIN users u ON u.id = rec.user_id`

func scanFeedRecord(rows *sql.Rows) (FeedRecord, error) {
	var fr FeedRecord
	rec, a := &fr.Record, &fr.Author
	err := rows.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.City, &rec.Content, &rec.Gathering,
		&rec.Deleted, &rec.DeletedAt, &rec.DeletedBy, &rec.CreatedAt, &rec.UpdatedAt,
		&a.ID, &a.Email, &a.Nickname, &a.FirstName, &a.LastName, &a.City, &a.Country)
	return fr, err
}

// feedFilter builds the WHERE condition shared by the count and page
// queries. Soft-deleted records are always excluded; search is a
// case-insensitive "contains" across content, city, gathering and the
// author's nickname/email.
func feedFilter(q FeedQuery) (string, []any) {
	where := []string{"rec.deleted = 0"}
	args := []any{}
	if q.Gathering != "" {
		where = append(where, "rec.gathering = ?")
		args = append(args, q.Gathering)
	}
	if q.UserID != "" {
		where = append(where, "rec.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Search != "" {
		needle := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(rec.content) LIKE ? OR LOWER(rec.city) LIKE ? OR LOWER(rec.gathering) LIKE ? OR LOWER(COALESCE(u.nickname,'')) LIKE ? OR LOWER(u.email) LIKE ?)")
		args = append(args, needle, needle, needle, needle, needle)
	}
	return strings.Join(where, " AND "), args
}

// Feed returns one page of records ordered by event date descending plus
// the total count matching the filter. The page is fetched whole or not
// at all; callers surface any error as a store failure.
func (r *RecordRepo) Feed(ctx context.Context, q FeedQuery) ([]FeedRecord, int64, error) {
	q.Normalize()
	cond, args := feedFilter(q)

	var total int64
	countSQL := "SELECT COUNT(*) FROM records rec JOIN users u ON u.id = rec.user_id WHERE " + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := feedSelect + " WHERE " + cond + " ORDER BY rec.date DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]FeedRecord, 0, q.Limit)
	for rows.Next() {
		fr, err := scanFeedRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts a record and returns it joined with its author.
func (r *RecordRepo) Create(ctx context.Context, userID string, date time.Time, city, content, gathering string) (FeedRecord, error) {
	id := uuid.NewString()
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO records (id, user_id, date, city, content, gathering, deleted) VALUES (?,?,?,?,?,?,0)",
		id, userID, date, city, content, gathering); err != nil {
		return FeedRecord{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches one record with its author. Soft-deleted records are
// treated as missing.
func (r *RecordRepo) GetByID(ctx context.Context, id string) (FeedRecord, error) {
	rows, err := r.DB.QueryContext(ctx, feedSelect+" WHERE rec.id = ? AND rec.deleted = 0 LIMIT 1", id)
	if err != nil {
		return FeedRecord{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return FeedRecord{}, err
		}
		return FeedRecord{}, ErrRecordNotFound
	}
	return scanFeedRecord(rows)
}

// Update rewrites the editable fields of a record. Ownership is enforced
// by the handler before calling.
func (r *RecordRepo) Update(ctx context.Context, id string, date time.Time, city, content, gathering string) (FeedRecord, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE records SET date=?, city=?, content=?, gathering=? WHERE id=? AND deleted=0",
		date, city, content, gathering, id)
	if err != nil {
		return FeedRecord{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return FeedRecord{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// SoftDelete marks a record deleted on behalf of a moderator. The row is
// kept for audit; every feed query excludes it from then on.
func (r *RecordRepo) SoftDelete(ctx context.Context, id, deletedBy string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE records SET deleted=1, deleted_at=?, deleted_by=? WHERE id=? AND deleted=0",
		time.Now().UTC(), deletedBy, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CountActive returns non-deleted records.
func (r *RecordRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE deleted=0").Scan(&n)
	return n, err
}

// CountCreatedSince returns non-deleted records created at or after t.
func (r *RecordRepo) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE deleted=0 AND created_at >= ?", t).Scan(&n)
	return n, err
}

// GroupStats summarizes one gathering for the groups listing.
type GroupStats struct {
	RecordCount  int64
	MemberCount  int64
	LastRecordAt sql.NullTime
	LastAuthor   sql.NullString // nickname, falling back to email
}

// StatsByGathering aggregates record count, distinct contributing members
// and the most recent record for a single gathering.
func (r *RecordRepo) StatsByGathering(ctx context.Context, gathering string) (GroupStats, error) {
	var s GroupStats
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT user_id) FROM records WHERE gathering=? AND deleted=0",
		gathering).Scan(&s.RecordCount, &s.MemberCount)
	if err != nil {
		return s, err
	}
	err = r.DB.QueryRowContext(ctx, `SELECT rec.created_at, COALESCE(u.nickname, u.email)
			FROM records rec JOIN users u ON u.id = rec.user_id
			WHERE rec.gathering=? AND rec.deleted=0
			ORDER BY rec.created_at DESC LIMIT 1`,
		gathering).Scan(&s.LastRecordAt, &s.LastAuthor)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	return s, err
}
