package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio730/community-api/internal/repository"
)

func newUserHandler(t *testing.T) (*UserHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	h := NewUserHandler(
		repository.NewUserRepo(db),
		repository.NewRecordRepo(db),
		repository.NewCommentRepo(db),
		repository.NewReactionRepo(db),
	)
	return h, mock, func() { db.Close() }
}

func TestPublicProfileTrimsCommentsToPreview(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("FROM users WHERE id=\\? LIMIT 1").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice@x.y", "Alice", nil, nil, nil, nil, nil, nil, "user", false, now, now))
	mock.ExpectQuery("FROM reactions rx WHERE rx.user_id = \\?").
		WithArgs("u-1", "u-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"records", "comments", "reactions"}).AddRow(1, 5, 2))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM records rec JOIN users u").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY rec.date DESC LIMIT \\? OFFSET \\?").
		WithArgs("u-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(feedCols).
			AddRow("rec-1", "u-1", now, "Cupertino", "hi", "Studio 7:30 (Cupertino)",
				false, nil, nil, now, now,
				"u-1", "alice@x.y", "Alice", nil, nil, nil, nil))

	commentRows := sqlmock.NewRows(commentCols)
	for i := 1; i <= 5; i++ {
		commentRows.AddRow(fmt.Sprintf("cm-%d", i), "rec-1", "u-2", fmt.Sprintf("comment %d", i),
			false, nil, nil, now, now,
			"u-2", "bob@x.y", "Bob", nil, nil, nil, nil)
	}
	mock.ExpectQuery("WHERE c.record_id IN").
		WithArgs("rec-1").
		WillReturnRows(commentRows)
	mock.ExpectQuery("FROM reactions WHERE record_id IN").
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(reactionCols))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/u-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("u-1")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stats struct {
			Comments int `json:"comments"`
		} `json:"stats"`
		Records []struct {
			Comments     []commentView `json:"comments"`
			CommentCount int           `json:"commentCount"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Len(t, body.Records[0].Comments, 3, "profile records carry a three comment preview")
	assert.Equal(t, 5, body.Records[0].CommentCount, "count still reflects the full thread")
	assert.Equal(t, "comment 1", body.Records[0].Comments[0].Content)
	assert.Equal(t, 5, body.Stats.Comments)
	require.NoError(t, mock.ExpectationsWereMet())
}
