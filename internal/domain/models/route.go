package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Route struct {
	ID                int64           `json:"id"`
	RouteName         string          `json:"routeName"`
	DepartureLocation string          `json:"departureLocation"`
	ArrivalLocation   string          `json:"arrivalLocation"`
	Price             decimal.Decimal `json:"price"`
	EstimatedTime     string          `json:"estimatedTime"`
	AvailableSeats    int             `json:"availableSeats"`
	IsActive          bool            `json:"isActive"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// RouteSummary is the abbreviated route info embedded in booking payloads.
type RouteSummary struct {
	ID                int64           `json:"id"`
	RouteName         string          `json:"routeName"`
	DepartureLocation string          `json:"departureLocation"`
	ArrivalLocation   string          `json:"arrivalLocation"`
	Price             decimal.Decimal `json:"price"`
	AvailableSeats    int             `json:"availableSeats"`
}

func (r Route) Summary() RouteSummary {
	return RouteSummary{
		ID:                r.ID,
		RouteName:         r.RouteName,
		DepartureLocation: r.DepartureLocation,
		ArrivalLocation:   r.ArrivalLocation,
		Price:             r.Price,
		AvailableSeats:    r.AvailableSeats,
	}
}
