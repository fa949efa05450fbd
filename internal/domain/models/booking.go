package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

const (
	MinSeatsPerBooking = 1
	MaxSeatsPerBooking = 10
)

// Cancellable reports whether the refund path may move the booking to cancelled.
func (s BookingStatus) Cancellable() bool {
	return s == BookingConfirmed || s == BookingPending
}

// Booking is a seat reservation on a route paid from the user's wallet.
type Booking struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	RouteID         int64           `json:"routeId"`
	PickupLocation  string          `json:"pickupLocation"`
	DropoffLocation string          `json:"dropoffLocation"`
	DepartureTime   time.Time       `json:"departureTime"`
	NumberOfSeats   int             `json:"numberOfSeats"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Status          BookingStatus   `json:"status"`
	BookingCode     string          `json:"bookingCode"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Route           *RouteSummary   `json:"route,omitempty"`
}
