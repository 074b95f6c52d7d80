package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/repository"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/service"
)

// RoomHandler serves room listing and admin room management. Listings are
// decorated with live availability through the availability service.
type RoomHandler struct {
	Rooms *repository.RoomRepo
	Avail *service.AvailabilityService
}

func NewRoomHandler(rooms *repository.RoomRepo, avail *service.AvailabilityService) *RoomHandler {
	if rooms == nil || avail == nil {
		panic("nil dependency passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms, Avail: avail}
}

type roomReq struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Capacity    uint32   `json:"capacity"`
	Amenities   []string `json:"amenities"`
	Status      string   `json:"status"`
	Description *string  `json:"description"`
}

func validRoomStatus(s string) bool {
	switch s {
	case model.RoomAvailable, model.RoomOccupied, model.RoomMaintenance, model.RoomOutOfService:
		return true
	}
	return false
}

func (r *roomReq) validate() (string, bool) {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	if r.Name == "" {
		return "name is required", false
	}
	if r.Location == "" {
		return "location is required", false
	}
	if r.Capacity < 1 || r.Capacity > 1000 {
		return "capacity must be between 1 and 1000", false
	}
	if r.Status == "" {
		r.Status = model.RoomAvailable
	}
	if !validRoomStatus(r.Status) {
		return "invalid status", false
	}
	if r.Description != nil && len(*r.Description) > 500 {
		return "description cannot exceed 500 characters", false
	}
	return "", true
}

// List handles GET /api/rooms/v1. Every room carries
// isCurrentlyAvailable and dynamicStatus computed against the clock;
// ?available_only=true keeps only bookable, currently free rooms.
func (h *RoomHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	rooms, err := h.Rooms.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	decorated, err := h.Avail.DecorateRooms(ctx, rooms)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	if c.QueryParam("available_only") == "true" {
		filtered := decorated[:0]
		for _, r := range decorated {
			if r.IsCurrentlyAvailable {
				filtered = append(filtered, r)
			}
		}
		decorated = filtered
	}
	return c.JSON(http.StatusOK, echo.Map{"data": decorated, "count": len(decorated)})
}

// Availability handles GET /api/rooms/v1/availability. It returns the
// rooms free for the whole requested interval.
func (h *RoomHandler) Availability(c echo.Context) error {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start_time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end_time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC3339"})
	}
	rooms, err := h.Avail.AvailableRooms(c.Request().Context(), model.Interval{Start: start.UTC(), End: end.UTC()})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rooms, "count": len(rooms)})
}

// CheckAvailability handles GET /api/rooms/v1/:id/available. It answers
// whether one room is free for the requested interval.
func (h *RoomHandler) CheckAvailability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("start_time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end_time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC3339"})
	}
	iv := model.Interval{Start: start.UTC(), End: end.UTC()}
	if !iv.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start time must be before end time"})
	}
	ok, err := h.Avail.IsAvailable(c.Request().Context(), id, iv)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":    id,
		"start_time": iv.Start,
		"end_time":   iv.End,
		"available":  ok,
	})
}

// Schedule handles GET /api/rooms/v1/:id/schedule. It returns the room's
// non-cancelled bookings intersecting [from, to), earliest first. The
// range defaults to the next seven days.
func (h *RoomHandler) Schedule(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	from := time.Now().UTC()
	if v := c.QueryParam("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be RFC3339"})
		}
	}
	to := from.Add(7 * 24 * time.Hour)
	if v := c.QueryParam("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be RFC3339"})
		}
	}
	if !to.After(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be before to"})
	}
	items, err := h.Avail.Schedule(c.Request().Context(), id, from.UTC(), to.UTC())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

// Get handles GET /api/rooms/v1/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	rm, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rm})
}

// Create handles POST /api/rooms/v1 (admin only).
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rm := model.Room{
		Name:        req.Name,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Amenities:   req.Amenities,
		Status:      req.Status,
		Description: req.Description,
	}
	if err := h.Rooms.Create(ctx, &rm); err != nil {
		if err == repository.ErrRoomNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Room created successfully", "data": rm})
}

// Update handles PUT /api/rooms/v1/:id (admin only).
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rm, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}
	rm.Name = req.Name
	rm.Location = req.Location
	rm.Capacity = req.Capacity
	rm.Amenities = req.Amenities
	rm.Status = req.Status
	rm.Description = req.Description

	if err := h.Rooms.Update(ctx, &rm); err != nil {
		if err == repository.ErrRoomNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
		}
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Room updated successfully", "data": rm})
}

// Delete handles DELETE /api/rooms/v1/:id (admin only). Soft delete;
// booking history stays intact.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.SoftDelete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Room deleted successfully"})
}

// ListDeleted handles GET /api/rooms/v1/deleted (admin only). Shows the
// soft-deleted rooms available for Restore.
func (h *RoomHandler) ListDeleted(c echo.Context) error {
	rooms, err := h.Rooms.ListDeleted(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list deleted rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rooms, "count": len(rooms)})
}

// Restore handles PATCH /api/rooms/v1/:id/restore (admin only). It undoes
// a soft delete; 409 if a live room took the name in the meantime.
func (h *RoomHandler) Restore(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rm, err := h.Rooms.Restore(ctx, id)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no deleted room with that id"})
		case repository.ErrRoomNameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "a room with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "restore room failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Room restored successfully", "data": rm})
}

type roomStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/rooms/v1/:id/status (admin only). It
// flips a room between available, occupied, maintenance and
// out-of-service without touching the other fields.
func (h *RoomHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Status = strings.TrimSpace(req.Status)
	if !validRoomStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rm, err := h.Rooms.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room status failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Room status updated successfully", "data": rm})
}
