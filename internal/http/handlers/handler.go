package handlers

import (
	"context"

	"shuttle/internal/services"
)

// Handler holds the services behind the JSON API.
type Handler struct {
	Auth     services.AuthService
	Routes   services.RouteService
	Bookings services.BookingService
	Cancel   services.CancellationService
	Wallet   services.WalletService
	Tickets  services.TicketService
	// Ping checks the backing store; nil means there is nothing to check.
	Ping func(ctx context.Context) error
}
