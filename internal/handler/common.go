// Package handler contains the echo HTTP handlers. Handlers bind and
// validate request shapes, delegate to the service or repository layer,
// and translate the typed errors coming back into status codes. No
// business rules live here.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/service"
)

// getUserID extracts the authenticated user ID placed in the context by
// the JWT middleware and normalizes it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// serviceError maps booking-engine errors onto HTTP responses. The
// mapping is the single place where error taxonomy meets status codes:
// validation 400, missing resources 404, ownership 403, overlap 409,
// illegal lifecycle transitions 400 with a machine-readable code.
func serviceError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	}
	var ce *service.ConflictError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":      ce.Error(),
			"code":       "BOOKING_CONFLICT",
			"booked_by":  ce.BookedBy,
			"start_time": ce.StartTime.UTC().Format(time.RFC3339),
			"end_time":   ce.EndTime.UTC().Format(time.RFC3339),
		})
	}
	switch {
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": "INVALID_CANCELLATION"})
	case errors.Is(err, service.ErrAlreadyStarted):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": "INVALID_UPDATE"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
