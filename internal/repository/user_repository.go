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

const userColumns = "id,email,nickname,first_name,last_name,city,country,bio,password_hash,role,blocked,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Nickname, &u.FirstName, &u.LastName,
		&u.City, &u.Country, &u.Bio, &u.PasswordHash, &u.Role, &u.Blocked,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// Create inserts a user with role "user" and returns its generated ID.
// passwordHash may be empty for accounts created through email
// verification.
func (r *UserRepo) Create(ctx context.Context, email, nickname, passwordHash string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	id := uuid.NewString()
	var hash any
	if passwordHash != "" {
		hash = passwordHash
	}
	var nick any
	if nickname != "" {
		nick = nickname
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, nickname, password_hash, role, blocked) VALUES (?,?,?,?,'user',0)",
		id, email, nick, hash)
	if err != nil {
		// 1062 = MySQL duplicate key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// ProfileUpdate carries the self-service profile fields. Nil pointers
// leave a column untouched; empty strings clear it.
type ProfileUpdate struct {
	Nickname  *string
	FirstName *string
	LastName  *string
	City      *string
	Country   *string
	Bio       *string
}

// UpdateProfile applies a self-service profile edit.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error {
	set := []string{}
	args := []any{}
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			set = append(set, col+"=NULL")
			return
		}
		set = append(set, col+"=?")
		args = append(args, *v)
	}
	add("nickname", p.Nickname)
	add("first_name", p.FirstName)
	add("last_name", p.LastName)
	add("city", p.City)
	add("country", p.Country)
	add("bio", p.Bio)
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// the row may exist with identical values; confirm before failing
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateModeration applies an admin edit of role and/or blocked flag.
func (r *UserRepo) UpdateModeration(ctx context.Context, id string, role *string, blocked *bool) (model.User, error) {
	set := []string{}
	args := []any{}
	if role != nil {
		set = append(set, "role=?")
		args = append(args, *role)
	}
	if blocked != nil {
		set = append(set, "blocked=?")
		args = append(args, *blocked)
	}
	if len(set) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// SetBlocked flips only the blocked flag; used by report resolution.
func (r *UserRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET blocked=? WHERE id=?", blocked, id)
	return err
}

// Delete removes the account row. Owned content is removed through
// foreign keys declared ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AdminUserFilter narrows the admin user listing.
type AdminUserFilter struct {
	Search  string
	Role    string
	Blocked *bool
	Page    int
	Limit   int
}

// AdminUserRow is a user plus content counts for the admin listing.
type AdminUserRow struct {
	User          model.User
	RecordCount   int64
	CommentCount  int64
	ReactionCount int64
}

// AdminList pages through users for the admin console, newest first, with
// per-user content counts and optional search/role/blocked filters.
func (r *UserRepo) AdminList(ctx context.Context, f AdminUserFilter) ([]AdminUserRow, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Search != "" {
		needle := "%" + strings.ToLower(f.Search) + "%"
		where = append(where, "(LOWER(u.email) LIKE ? OR LOWER(COALESCE(u.nickname,'')) LIKE ? OR LOWER(COALESCE(u.first_name,'')) LIKE ? OR LOWER(COALESCE(u.last_name,'')) LIKE ?)")
		args = append(args, needle, needle, needle, needle)
	}
	if f.Role != "" {
		where = append(where, "u.role = ?")
		args = append(args, f.Role)
	}
	if f.Blocked != nil {
		where = append(where, "u.blocked = ?")
		args = append(args, *f.Blocked)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users u WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT u.id,u.email,u.nickname,u.first_name,u.last_name,u.city,u.country,u.bio,u.password_hash,u.role,u.blocked,u.created_at,u.updated_at,
			(SELECT COUNT(*) FROM records rc WHERE rc.user_id = u.id) AS record_count,
			(SELECT COUNT(*) FROM comments cm WHERE cm.user_id = u.id) AS comment_count,
			(SELECT COUNT(*) FROM reactions rx WHERE rx.user_id = u.id) AS reaction_count
		FROM users u
		WHERE ` + cond + `
		ORDER BY u.created_at DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]AdminUserRow, 0, f.Limit)
	for rows.Next() {
		var row AdminUserRow
		u := &row.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Nickname, &u.FirstName, &u.LastName,
			&u.City, &u.Country, &u.Bio, &u.PasswordHash, &u.Role, &u.Blocked,
			&u.CreatedAt, &u.UpdatedAt,
			&row.RecordCount, &row.CommentCount, &row.ReactionCount); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// CountBlocked returns the number of blocked users.
func (r *UserRepo) CountBlocked(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE blocked=1").Scan(&n)
	return n, err
}

// CountCreatedSince returns users created at or after t.
func (r *UserRepo) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE created_at >= ?", t).Scan(&n)
	return n, err
}

// PublicStats are the content counts shown on a public profile.
type PublicStats struct {
	Records   int64
	Comments  int64
	Reactions int64
}

// Stats returns the public content counts for one user.
func (r *UserRepo) Stats(ctx context.Context, id string) (PublicStats, error) {
	var s PublicStats
	err := r.DB.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM records rc WHERE rc.user_id = ? AND rc.deleted = 0),
			(SELECT COUNT(*) FROM comments cm WHERE cm.user_id = ? AND cm.deleted = 0),
			(SELECT COUNT(*) FROM reactions rx WHERE rx.user_id = ?)`,
		id, id, id).Scan(&s.Records, &s.Comments, &s.Reactions)
	return s, err
}
