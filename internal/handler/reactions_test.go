package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/repository"
)

func newReactionHandler(t *testing.T) (*ReactionHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	h := NewReactionHandler(
		repository.NewReactionRepo(db),
		repository.NewRecordRepo(db),
		repository.NewNotificationRepo(db),
	)
	return h, mock, func() { db.Close() }
}

func reactionCtx(e *echo.Echo, method, body, viewer string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/v1/reactions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("identity", model.Identity{ID: viewer, Role: model.RoleUser})
	return c, rec
}

func TestCreateReactionIsIdempotent(t *testing.T) {
	h, mock, done := newReactionHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("WHERE rec.id = \\? AND rec.deleted = 0").
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(feedCols).
			AddRow("rec-1", "owner", now, "Cupertino", "hi", "Studio 7:30 (Cupertino)",
				false, nil, nil, now, now,
				"owner", "owner@x.y", "Owner", nil, nil, nil, nil))
	// the triple already exists: no insert, no notification
	mock.ExpectQuery("FROM reactions WHERE record_id=\\? AND user_id=\\? AND type=\\?").
		WithArgs("rec-1", "viewer", "like").
		WillReturnRows(sqlmock.NewRows(reactionCols).
			AddRow("rx-1", "rec-1", "viewer", "like", now))

	e := echo.New()
	c, rec := reactionCtx(e, http.MethodPost, `{"recordId":"rec-1","type":"like"}`, "viewer")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusOK, rec.Code, "repeat reaction answers 200, not 201")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rx-1", body["id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReactionOnOwnRecordSkipsNotification(t *testing.T) {
	h, mock, done := newReactionHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("WHERE rec.id = \\? AND rec.deleted = 0").
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(feedCols).
			AddRow("rec-1", "owner", now, "Cupertino", "hi", "Studio 7:30 (Cupertino)",
				false, nil, nil, now, now,
				"owner", "owner@x.y", "Owner", nil, nil, nil, nil))
	mock.ExpectQuery("FROM reactions WHERE record_id=\\? AND user_id=\\? AND type=\\?").
		WithArgs("rec-1", "owner", "heart").
		WillReturnRows(sqlmock.NewRows(reactionCols))
	mock.ExpectExec("INSERT INTO reactions").
		WithArgs(sqlmock.AnyArg(), "rec-1", "owner", "heart").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM reactions WHERE record_id=\\? AND user_id=\\? AND type=\\?").
		WithArgs("rec-1", "owner", "heart").
		WillReturnRows(sqlmock.NewRows(reactionCols).
			AddRow("rx-9", "rec-1", "owner", "heart", now))

	e := echo.New()
	c, rec := reactionCtx(e, http.MethodPost, `{"recordId":"rec-1","type":"heart"}`, "owner")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet(), "no notification insert expected")
}

func TestCreateReactionRejectsUnknownType(t *testing.T) {
	h, _, done := newReactionHandler(t)
	defer done()

	e := echo.New()
	c, _ := reactionCtx(e, http.MethodPost, `{"recordId":"rec-1","type":"fire"}`, "viewer")

	err := h.Create(c)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
}

func TestDeleteReactionByNaturalKey(t *testing.T) {
	h, mock, done := newReactionHandler(t)
	defer done()

	mock.ExpectExec("DELETE FROM reactions WHERE record_id=\\? AND user_id=\\? AND type=\\?").
		WithArgs("rec-1", "viewer", "like").
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/reactions?recordId=rec-1&type=like", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("identity", model.Identity{ID: "viewer", Role: model.RoleUser})

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingReactionIs404(t *testing.T) {
	h, mock, done := newReactionHandler(t)
	defer done()

	mock.ExpectExec("DELETE FROM reactions").
		WithArgs("rec-1", "viewer", "like").
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/reactions?recordId=rec-1&type=like", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("identity", model.Identity{ID: "viewer", Role: model.RoleUser})

	err := h.Delete(c)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.Status)
}
