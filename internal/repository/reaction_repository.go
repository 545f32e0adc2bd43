package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/studio730/community-api/internal/model"
)

type ReactionRepo struct{ DB *sql.DB }

func NewReactionRepo(db *sql.DB) *ReactionRepo { return &ReactionRepo{DB: db} }

const reactionColumns = "id, record_id, user_id, type, created_at"

func scanReaction(row interface{ Scan(...any) error }) (model.Reaction, error) {
	var x model.Reaction
	err := row.Scan(&x.ID, &x.RecordID, &x.UserID, &x.Type, &x.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return x, ErrReactionNotFound
	}
	return x, err
}

// GetByKey fetches the reaction identified by its unique
// (record, user, type) triple.
func (r *ReactionRepo) GetByKey(ctx context.Context, recordID, userID, typ string) (model.Reaction, error) {
	return scanReaction(r.DB.QueryRowContext(ctx,
		"SELECT "+reactionColumns+" FROM reactions WHERE record_id=? AND user_id=? AND type=? LIMIT 1",
		recordID, userID, typ))
}

// Create inserts a reaction. Idempotence lives one level up: callers check
// GetByKey first and return the existing row; the unique index backstops
// the race between two concurrent creates.
func (r *ReactionRepo) Create(ctx context.Context, recordID, userID, typ string) (model.Reaction, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO reactions (id, record_id, user_id, type) VALUES (?,?,?,?)",
		id, recordID, userID, typ)
	if err != nil {
		// lost the unique-index race: the reaction now exists, return it
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return r.GetByKey(ctx, recordID, userID, typ)
		}
		return model.Reaction{}, err
	}
	return r.GetByKey(ctx, recordID, userID, typ)
}

// Delete removes the viewer's reaction of the given type.
func (r *ReactionRepo) Delete(ctx context.Context, recordID, userID, typ string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM reactions WHERE record_id=? AND user_id=? AND type=?",
		recordID, userID, typ)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReactionNotFound
	}
	return nil
}

// ListByRecordIDs returns all reactions of the given records keyed by
// record id. Called once per feed page.
func (r *ReactionRepo) ListByRecordIDs(ctx context.Context, recordIDs []string) (map[string][]model.Reaction, error) {
	out := make(map[string][]model.Reaction, len(recordIDs))
	if len(recordIDs) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(recordIDs)-1) + "?"
	args := make([]any, len(recordIDs))
	for i, id := range recordIDs {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reactionColumns+" FROM reactions WHERE record_id IN ("+placeholders+") ORDER BY created_at ASC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		x, err := scanReaction(rows)
		if err != nil {
			return nil, err
		}
		out[x.RecordID] = append(out[x.RecordID], x)
	}
	return out, rows.Err()
}

// Count returns the total number of reactions.
func (r *ReactionRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM reactions").Scan(&n)
	return n, err
}
