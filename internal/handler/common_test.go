package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
)

func TestValidatorUsernameRule(t *testing.T) {
	v := NewValidator()

	type dto struct {
		Nickname string `validate:"required,min=3,max=16,username"`
	}

	assert.NoError(t, v.Validate(&dto{Nickname: "good_name42"}))

	for _, bad := range []string{"has space", "кирилиця", "semi;colon", "ab"} {
		err := v.Validate(&dto{Nickname: bad})
		assert.True(t, apperr.IsKind(err, apperr.BadRequest), "nickname %q", bad)
	}
}

func TestRespondErrorMapsTypedErrors(t *testing.T) {
	e := echo.New()

	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{apperr.New(apperr.NotFound, "application not found"), http.StatusNotFound, "application not found"},
		{apperr.New(apperr.Conflict, "already exists"), http.StatusConflict, "already exists"},
		{errors.New("sql: connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, respondError(c, tc.err))
		assert.Equal(t, tc.wantStatus, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.wantMsg)
		// raw internals never reach the client
		if tc.wantStatus == http.StatusInternalServerError {
			assert.NotContains(t, rec.Body.String(), "connection reset")
		}
	}
}

func TestPathID(t *testing.T) {
	e := echo.New()

	newCtx := func(raw string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		return c
	}

	id, err := pathID(newCtx("42"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, raw := range []string{"0", "-1", "abc", ""} {
		_, err := pathID(newCtx(raw))
		assert.True(t, apperr.IsKind(err, apperr.BadRequest), "id %q", raw)
	}
}
