package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shuttle/internal/services"
)

type createBookingRequest struct {
	RouteID         int64     `json:"routeId" binding:"required,gt=0"`
	PickupLocation  string    `json:"pickupLocation" binding:"required,max=255"`
	DropoffLocation string    `json:"dropoffLocation" binding:"required,max=255"`
	DepartureTime   time.Time `json:"departureTime" binding:"required"`
	NumberOfSeats   *int      `json:"numberOfSeats" binding:"omitempty,min=1,max=10"`
}

// POST /api/bookings
func (h Handler) CreateBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	seats := 1
	if req.NumberOfSeats != nil {
		seats = *req.NumberOfSeats
	}
	res, err := h.Bookings.CreateBooking(c.Request.Context(), uid, services.CreateBookingInput{
		RouteID:         req.RouteID,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		DepartureTime:   req.DepartureTime,
		NumberOfSeats:   seats,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "booking created successfully", res)
}

// GET /api/bookings
func (h Handler) ListBookings(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	list, err := h.Bookings.ListBookings(c.Request.Context(), uid, parsePagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", list)
}

// GET /api/bookings/:id
func (h Handler) GetBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	b, err := h.Bookings.GetBooking(c.Request.Context(), uid, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"booking": b})
}

// PATCH /api/bookings/:id/cancel
func (h Handler) CancelBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Cancel.CancelBooking(c.Request.Context(), uid, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "booking cancelled successfully", res)
}
