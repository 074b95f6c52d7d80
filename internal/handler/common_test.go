package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/service"
)

func runServiceError(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, serviceError(c, err))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestServiceErrorMapping(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("validation", func(t *testing.T) {
		code, body := runServiceError(t, &service.ValidationError{Field: "purpose", Reason: "cannot be empty"})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid purpose: cannot be empty", body["error"])
	})

	t.Run("conflict carries owner and slot", func(t *testing.T) {
		code, body := runServiceError(t, &service.ConflictError{
			BookedBy: "Arjun Shah", StartTime: start, EndTime: start.Add(time.Hour),
		})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "BOOKING_CONFLICT", body["code"])
		assert.Equal(t, "Arjun Shah", body["booked_by"])
		assert.Equal(t, "2026-03-02T10:00:00Z", body["start_time"])
		assert.Contains(t, body["error"], "please choose a different time slot")
	})

	t.Run("not found", func(t *testing.T) {
		for _, err := range []error{service.ErrBookingNotFound, service.ErrRoomNotFound, service.ErrUserNotFound} {
			code, _ := runServiceError(t, err)
			assert.Equal(t, http.StatusNotFound, code)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		code, _ := runServiceError(t, service.ErrForbidden)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("invalid transitions are 400 with codes", func(t *testing.T) {
		code, body := runServiceError(t, service.ErrAlreadyCancelled)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "INVALID_CANCELLATION", body["code"])

		code, body = runServiceError(t, service.ErrAlreadyStarted)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "INVALID_UPDATE", body["code"])
	})

	t.Run("unknown errors stay opaque", func(t *testing.T) {
		code, body := runServiceError(t, errors.New("connection reset"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "internal error", body["error"])
	})
}
