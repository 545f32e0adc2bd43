package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedQueryNormalize(t *testing.T) {
	cases := []struct {
		name      string
		in        FeedQuery
		wantPage  int
		wantLimit int
	}{
		{"defaults", FeedQuery{}, 1, 20},
		{"negative page", FeedQuery{Page: -3, Limit: 10}, 1, 10},
		{"zero limit", FeedQuery{Page: 2}, 2, 20},
		{"limit clamped to ceiling", FeedQuery{Page: 1, Limit: 500}, 1, 100},
		{"custom ceiling", FeedQuery{Page: 1, Limit: 80, MaxLimit: 50}, 1, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			assert.Equal(t, tc.wantPage, tc.in.Page)
			assert.Equal(t, tc.wantLimit, tc.in.Limit)
		})
	}
}

var feedCols = []string{
	"rec.id", "rec.user_id", "rec.date", "rec.city", "rec.content", "rec.gathering",
	"rec.deleted", "rec.deleted_at", "rec.deleted_by", "rec.created_at", "rec.updated_at",
	"u.id", "u.email", "u.nickname", "u.first_name", "u.last_name", "u.city", "u.country",
}

func feedRows(n int) *sqlmock.Rows {
	rows := sqlmock.NewRows(feedCols)
	now := time.Now()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("rec-%d", i)
		rows.AddRow(id, "u1", now, "Cupertino", "content", "Studio 7:30 (Cupertino)",
			false, nil, nil, now, now,
			"u1", "a@b.c", "nick", nil, nil, nil, nil)
	}
	return rows
}

func TestFeedReturnsPageAndTotal(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM records rec JOIN users u").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(45))
	mock.ExpectQuery("SELECT rec.id, rec.user_id,.+ORDER BY rec.date DESC LIMIT \\? OFFSET \\?").
		WithArgs(20, 0).
		WillReturnRows(feedRows(20))

	repo := NewRecordRepo(db)
	recs, total, err := repo.Feed(context.Background(), FeedQuery{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, recs, 20)
	assert.EqualValues(t, 45, total)
	assert.Equal(t, "rec-0", recs[0].Record.ID)
	assert.Equal(t, "a@b.c", recs[0].Author.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedLastPageOffset(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM records rec JOIN users u").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(45))
	mock.ExpectQuery("ORDER BY rec.date DESC LIMIT \\? OFFSET \\?").
		WithArgs(20, 40).
		WillReturnRows(feedRows(5))

	repo := NewRecordRepo(db)
	recs, total, err := repo.Feed(context.Background(), FeedQuery{Page: 3, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, recs, 5)
	assert.EqualValues(t, 45, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedGatheringAndSearchFilters(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	needle := "%coffee%"
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM records rec JOIN users u.+rec.gathering = \\?.+LIKE").
		WithArgs("Studio 7:30 (Cupertino)", needle, needle, needle, needle, needle).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY rec.date DESC LIMIT \\? OFFSET \\?").
		WithArgs("Studio 7:30 (Cupertino)", needle, needle, needle, needle, needle, 20, 0).
		WillReturnRows(feedRows(1))

	repo := NewRecordRepo(db)
	recs, total, err := repo.Feed(context.Background(), FeedQuery{
		Gathering: "Studio 7:30 (Cupertino)",
		Search:    "Coffee",
	})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.EqualValues(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDTreatsDeletedAsMissing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("WHERE rec.id = \\? AND rec.deleted = 0").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(feedCols))

	repo := NewRecordRepo(db)
	_, err = repo.GetByID(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
