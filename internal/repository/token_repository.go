package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo stores refresh tokens and account-deletion confirmation
// tokens. Only SHA-256 hashes of the raw values are persisted, so a
// leaked table cannot be replayed.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh persists a refresh token hash with its expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt)
	return err
}

// FindRefresh resolves a live (unexpired, unrevoked) refresh token hash
// to its owning user.
func (r *TokenRepo) FindRefresh(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ? LIMIT 1",
		tokenHash, time.Now().UTC()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTokenNotFound
	}
	return userID, err
}

// RevokeRefresh marks one refresh token revoked. Missing or already
// revoked tokens report ErrTokenNotFound so callers can answer 401.
func (r *TokenRepo) RevokeRefresh(ctx context.Context, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		time.Now().UTC(), tokenHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// RevokeAllForUser revokes every live refresh token of a user; called on
// account deletion.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL",
		time.Now().UTC(), userID)
	return err
}

// StoreDeleteToken persists an account-deletion confirmation token hash.
// Any previous unused token of the user is superseded.
func (r *TokenRepo) StoreDeleteToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM delete_tokens WHERE user_id=? AND used_at IS NULL", userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO delete_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt)
	return err
}

// ConsumeDeleteToken validates and single-uses a deletion confirmation
// token for the given user.
func (r *TokenRepo) ConsumeDeleteToken(ctx context.Context, userID, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE delete_tokens SET used_at=? WHERE user_id=? AND token_hash=? AND used_at IS NULL AND expires_at > ?",
		time.Now().UTC(), userID, tokenHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenNotFound
	}
	return nil
}
