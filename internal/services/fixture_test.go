package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"shuttle/internal/domain/models"
	"shuttle/internal/repositories/memory"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type captureDrift struct {
	mu    sync.Mutex
	items []models.Discrepancy
}

func (c *captureDrift) ReportDrift(ctx context.Context, d models.Discrepancy) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
	return nil
}

func (c *captureDrift) all() []models.Discrepancy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Discrepancy(nil), c.items...)
}

type fixture struct {
	store   *memory.Store
	drift   *captureDrift
	booking BookingService
	cancel  CancellationService
	wallet  WalletService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	drift := &captureDrift{}
	return &fixture{
		store: store,
		drift: drift,
		booking: BookingService{
			Users: store, Routes: store, Bookings: store, Transactions: store,
			Drift: drift, Now: fixedClock,
		},
		cancel: CancellationService{
			Users: store, Routes: store, Bookings: store, Transactions: store,
			Drift: drift, Now: fixedClock,
		},
		wallet: WalletService{
			Users: store, Bookings: store, Transactions: store,
			Drift: drift, Now: fixedClock,
		},
	}
}

func (f *fixture) addUser(balance string) int64 {
	return f.store.SeedUser(models.User{
		FullName:   "Ada Obi",
		Email:      "ada@unn.edu.ng",
		StudentID:  "2019/123456",
		Balance:    decimal.RequireFromString(balance),
		TotalSpent: decimal.Zero,
		IsActive:   true,
		CreatedAt:  fixedNow.Add(-720 * time.Hour),
	})
}

func (f *fixture) addRoute(price string, seats int) int64 {
	return f.store.SeedRoute(models.Route{
		RouteName:         "Hostel to Library",
		DepartureLocation: "Hostel",
		ArrivalLocation:   "Library",
		Price:             decimal.RequireFromString(price),
		EstimatedTime:     "15 mins",
		AvailableSeats:    seats,
		IsActive:          true,
		CreatedAt:         fixedNow,
	})
}

func bookingInput(routeID int64, seats int, departIn time.Duration) CreateBookingInput {
	return CreateBookingInput{
		RouteID:         routeID,
		PickupLocation:  "Hostel",
		DropoffLocation: "Library",
		DepartureTime:   fixedNow.Add(departIn),
		NumberOfSeats:   seats,
	}
}

func mustBalance(t *testing.T, f *fixture, userID int64, want string) {
	t.Helper()
	u, ok := f.store.User(userID)
	if !ok {
		t.Fatalf("user %d missing", userID)
	}
	if !u.Balance.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("balance = %s, want %s", u.Balance, want)
	}
}

func mustSeats(t *testing.T, f *fixture, routeID int64, want int) {
	t.Helper()
	r, ok := f.store.Route(routeID)
	if !ok {
		t.Fatalf("route %d missing", routeID)
	}
	if r.AvailableSeats != want {
		t.Fatalf("available seats = %d, want %d", r.AvailableSeats, want)
	}
}
