package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Age      int    `json:"age" validate:"gte=0"`
}

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecode(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		var req signupRequest
		err := Decode(newRequest(`{"email":"a@b.co","password":"longenough"}`), &req)
		require.NoError(t, err)
		assert.Equal(t, "a@b.co", req.Email)
	})

	t.Run("field level detail uses json names", func(t *testing.T) {
		var req signupRequest
		err := Decode(newRequest(`{"email":"nope","password":"short"}`), &req)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "must be a valid email", verr.Fields["email"])
		assert.Equal(t, "must be at least 8 characters", verr.Fields["password"])
	})

	t.Run("wrong type", func(t *testing.T) {
		var req signupRequest
		err := Decode(newRequest(`{"email":"a@b.co","password":"longenough","age":"x"}`), &req)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "age")
	})

	t.Run("empty body", func(t *testing.T) {
		var req signupRequest
		err := Decode(newRequest(``), &req)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "request body is required", verr.Fields["body"])
	})

	t.Run("unknown field", func(t *testing.T) {
		var req signupRequest
		err := Decode(newRequest(`{"email":"a@b.co","password":"longenough","admin":true}`), &req)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "body")
	})
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError("b", "bad").Add("a", "worse")
	assert.True(t, verr.HasErrors())
	assert.Equal(t, "validation failed: a: worse; b: bad", verr.Error())

	var empty *ValidationError
	assert.False(t, empty.HasErrors())
}

func TestWriteDomainError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	t.Run("validation keeps fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteDomainError(rec, logger, req, NewValidationError("amount", "must be positive"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"validation failed","fields":{"amount":"must be positive"}}`, rec.Body.String())
	})

	t.Run("other errors are opaque", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteDomainError(rec, logger, req, errors.New("pq: relation does not exist"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	})
}

func TestParseDate(t *testing.T) {
	d, dateOnly, err := ParseDate("2024-01-15", time.UTC)
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)

	ts, dateOnly, err := ParseDate("2024-01-15T10:30:00Z", time.UTC)
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, 10, ts.Hour())

	_, _, err = ParseDate("15/01/2024", time.UTC)
	assert.Error(t, err)
}
