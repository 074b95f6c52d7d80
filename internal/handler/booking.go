package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/repository"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/service"
)

// BookingHandler exposes the booking engine over HTTP. All routes require
// a JWT; the owner checks happen in the service layer against the user ID
// from the token.
type BookingHandler struct {
	Svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

type createBookingReq struct {
	RoomID    uint64    `json:"room_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Purpose   string    `json:"purpose"`
}

type updateBookingReq struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Purpose   *string    `json:"purpose"`
	Status    *string    `json:"status"`
}

// Create handles POST /api/bookings/v1. Exactly one of any set of
// concurrent overlapping requests succeeds; the rest receive 409.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time are required"})
	}

	detail, err := h.Svc.Create(c.Request().Context(), service.CreateBookingInput{
		RoomID:  req.RoomID,
		UserID:  userID,
		Start:   req.StartTime.UTC(),
		End:     req.EndTime.UTC(),
		Purpose: req.Purpose,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Booking created successfully",
		"data":    detail,
	})
}

// List handles GET /api/bookings/v1 with filters, sorting and pagination.
func (h *BookingHandler) List(c echo.Context) error {
	var f repository.BookingFilter
	if v := c.QueryParam("room_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
		}
		f.RoomID = id
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		f.UserID = id
	}
	if v := c.QueryParam("status"); v != "" {
		switch v {
		case "scheduled", "active", "cancelled":
			f.Status = v
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be scheduled, active or cancelled"})
		}
	}
	if v := c.QueryParam("date"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		f.Date = &day
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	p := repository.Page{
		Offset:    (page - 1) * limit,
		Limit:     limit,
		SortField: c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}

	items, total, err := h.Svc.List(c.Request().Context(), f, p)
	if err != nil {
		return serviceError(c, err)
	}
	totalPages := (total + limit - 1) / limit
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"pagination": echo.Map{
			"total":       total,
			"page":        page,
			"limit":       limit,
			"total_pages": totalPages,
			"has_next":    page < totalPages,
			"has_prev":    page > 1,
		},
	})
}

// Get handles GET /api/bookings/v1/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": detail})
}

// Update handles PUT /api/bookings/v1/:id. The body is a partial patch;
// omitted fields keep their values.
func (h *BookingHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StartTime == nil && req.EndTime == nil && req.Purpose == nil && req.Status == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}
	in := service.UpdateBookingInput{Purpose: req.Purpose, Status: req.Status}
	if req.StartTime != nil {
		t := req.StartTime.UTC()
		in.Start = &t
	}
	if req.EndTime != nil {
		t := req.EndTime.UTC()
		in.End = &t
	}

	detail, err := h.Svc.Update(c.Request().Context(), id, userID, in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Booking updated successfully",
		"data":    detail,
	})
}

// Cancel handles PATCH /api/bookings/v1/:id/cancel. The row survives as
// history; cancelling twice is an error, not a no-op.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Svc.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Booking cancelled successfully",
		"data":    detail,
	})
}
