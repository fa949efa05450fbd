package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/repositories/memory"
)

func TestCreateBookingSettlesWalletAndSeats(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)

	res, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 2, 3*time.Hour))
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	if !res.NewBalance.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("newBalance = %s, want 700", res.NewBalance)
	}
	if res.Route.AvailableSeats != 4 {
		t.Fatalf("route seats in result = %d, want 4", res.Route.AvailableSeats)
	}
	if res.Booking.Status != models.BookingConfirmed {
		t.Fatalf("status = %s", res.Booking.Status)
	}
	if !res.Booking.TotalPrice.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("totalPrice = %s", res.Booking.TotalPrice)
	}
	if !strings.HasPrefix(res.Booking.BookingCode, "BK-20250310-") || len(res.Booking.BookingCode) != len("BK-20250310-ABCDEF") {
		t.Fatalf("unexpected booking code %q", res.Booking.BookingCode)
	}

	mustBalance(t, f, userID, "700")
	mustSeats(t, f, routeID, 4)

	u, _ := f.store.User(userID)
	if u.TotalRides != 2 || !u.TotalSpent.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("stats not updated: rides=%d spent=%s", u.TotalRides, u.TotalSpent)
	}

	txs := f.store.Transactions()
	if len(txs) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(txs))
	}
	tx := txs[0]
	if tx.Type != models.TxBooking || tx.Reference != res.Booking.BookingCode || tx.PaymentMethod != models.PaymentWallet {
		t.Fatalf("unexpected ledger row: %+v", tx)
	}
	if tx.BookingID == nil || *tx.BookingID != res.Booking.ID {
		t.Fatalf("ledger row not linked to booking: %+v", tx)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)

	cases := map[string]CreateBookingInput{
		"zero seats":     bookingInput(routeID, 0, 3*time.Hour),
		"eleven seats":   bookingInput(routeID, 11, 3*time.Hour),
		"past departure": bookingInput(routeID, 1, -time.Minute),
		"same location": func() CreateBookingInput {
			in := bookingInput(routeID, 1, 3*time.Hour)
			in.DropoffLocation = "  hostel "
			return in
		}(),
		"missing pickup": func() CreateBookingInput {
			in := bookingInput(routeID, 1, 3*time.Hour)
			in.PickupLocation = "   "
			return in
		}(),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.booking.CreateBooking(context.Background(), userID, in)
			if !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	mustBalance(t, f, userID, "1000")
	mustSeats(t, f, routeID, 6)
}

func TestCreateBookingInsufficientCapacityMutatesNothing(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("5000")
	routeID := f.addRoute("150", 3)

	_, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 4, 3*time.Hour))
	var capErr domain.InsufficientCapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected InsufficientCapacityError, got %v", err)
	}
	if capErr.Requested != 4 || capErr.Available != 3 {
		t.Fatalf("unexpected details: %+v", capErr)
	}
	mustBalance(t, f, userID, "5000")
	mustSeats(t, f, routeID, 3)
	if len(f.store.Bookings()) != 0 || len(f.store.Transactions()) != 0 {
		t.Fatalf("capacity failure must not write rows")
	}
}

func TestCreateBookingUnknownRouteOrUser(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)

	if _, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID+100, 1, 3*time.Hour)); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFound for route, got %v", err)
	}
	if _, err := f.booking.CreateBooking(context.Background(), userID+100, bookingInput(routeID, 1, 3*time.Hour)); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFound for user, got %v", err)
	}
}

func TestCreateBookingDebitFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	f.store.FailOn(memory.OpDebitForBooking, errors.New("lock wait timeout"))

	_, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 2, 3*time.Hour))
	if domain.SettlementCode(err) != domain.CodePaymentFailed {
		t.Fatalf("expected payment_failed, got %v", err)
	}
	if n := len(f.store.Bookings()); n != 0 {
		t.Fatalf("booking row left behind: %d", n)
	}
	mustBalance(t, f, userID, "1000")
	mustSeats(t, f, routeID, 6)
}

func TestCreateBookingBalanceRaceIsPaymentFailure(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	f.store.FailOn(memory.OpDebitForBooking, repositories.ErrConditionFailed)

	_, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 1, 3*time.Hour))
	if domain.SettlementCode(err) != domain.CodePaymentFailed {
		t.Fatalf("expected payment_failed, got %v", err)
	}
}

func TestCreateBookingSeatFailureRevertsDebit(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	f.store.FailOn(memory.OpReserveSeats, errors.New("deadlock"))

	_, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 2, 3*time.Hour))
	if domain.SettlementCode(err) != domain.CodeSeatReservationFailed {
		t.Fatalf("expected seat_reservation_failed, got %v", err)
	}
	if n := len(f.store.Bookings()); n != 0 {
		t.Fatalf("booking row left behind: %d", n)
	}
	mustBalance(t, f, userID, "1000")
	mustSeats(t, f, routeID, 6)
	u, _ := f.store.User(userID)
	if u.TotalRides != 0 || !u.TotalSpent.IsZero() {
		t.Fatalf("stats not reverted: rides=%d spent=%s", u.TotalRides, u.TotalSpent)
	}
}

func TestCreateBookingInsertFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	f.store.FailOn(memory.OpCreateBooking, errors.New("disk full"))

	_, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 1, 3*time.Hour))
	if !domain.IsPersistence(err) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	mustBalance(t, f, userID, "1000")
	mustSeats(t, f, routeID, 6)
}

func TestCreateBookingRetriesCodeCollisionOnce(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)

	var mu sync.Mutex
	inserts := 0
	f.store.OnOperation(func(op string) {
		if op == memory.OpCreateBooking {
			mu.Lock()
			inserts++
			mu.Unlock()
		}
	})
	f.store.FailOn(memory.OpCreateBooking, repositories.ErrDuplicate)

	_, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 1, 3*time.Hour))
	if !domain.IsPersistence(err) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if inserts != 2 {
		t.Fatalf("expected 2 insert attempts, got %d", inserts)
	}
}

func TestCreateBookingLedgerFailureReportsDrift(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	f.store.FailOn(memory.OpCreateTransaction, errors.New("connection reset"))

	res, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 2, 3*time.Hour))
	if err != nil {
		t.Fatalf("ledger failure must not fail the booking: %v", err)
	}
	mustBalance(t, f, userID, "700")
	mustSeats(t, f, routeID, 4)

	drift := f.drift.all()
	if len(drift) != 1 {
		t.Fatalf("expected one drift report, got %d", len(drift))
	}
	d := drift[0]
	if d.Kind != models.DiscrepancyMissingLedger || d.Reference != res.Booking.BookingCode || d.TxType != models.TxBooking {
		t.Fatalf("unexpected drift: %+v", d)
	}
	if !d.Amount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("drift amount = %s", d.Amount)
	}
}

func TestCreateBookingConcurrentNeverOverbooks(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("100000")
	routeID := f.addRoute("150", 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 1, 3*time.Hour)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 5 {
		t.Fatalf("expected exactly 5 successful bookings, got %d", ok)
	}
	mustSeats(t, f, routeID, 0)
	mustBalance(t, f, userID, "99250")
	if n := len(f.store.Bookings()); n != 5 {
		t.Fatalf("expected 5 booking rows, got %d", n)
	}
}

func TestBookingScenarioRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	expensive := f.addRoute("800", 6)

	res, err := f.booking.CreateBooking(ctx, userID, bookingInput(routeID, 2, 3*time.Hour))
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	mustBalance(t, f, userID, "700")
	mustSeats(t, f, routeID, 4)

	_, err = f.booking.CreateBooking(ctx, userID, bookingInput(expensive, 1, 3*time.Hour))
	var fundsErr domain.InsufficientFundsError
	if !errors.As(err, &fundsErr) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if !fundsErr.Required.Equal(decimal.NewFromInt(800)) || !fundsErr.Available.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("unexpected funds details: %+v", fundsErr)
	}
	mustBalance(t, f, userID, "700")
	mustSeats(t, f, expensive, 6)

	out, err := f.cancel.CancelBooking(ctx, userID, res.Booking.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if !out.RefundAmount.Equal(decimal.NewFromInt(300)) || !out.NewBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected refund result: %+v", out)
	}
	mustBalance(t, f, userID, "1000")
	mustSeats(t, f, routeID, 6)

	b, err := f.booking.GetBooking(ctx, userID, res.Booking.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if b.Status != models.BookingCancelled {
		t.Fatalf("status = %s, want cancelled", b.Status)
	}
}

func TestListBookingsPaginates(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("10000")
	routeID := f.addRoute("100", 20)
	for i := 0; i < 3; i++ {
		if _, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 1, 3*time.Hour)); err != nil {
			t.Fatalf("booking %d failed: %v", i, err)
		}
	}

	list, err := f.booking.ListBookings(context.Background(), userID, domain.NewPagination(1, 2))
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(list.Bookings) != 2 || list.Pagination.Total != 3 || list.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", list.Pagination)
	}
	if list.Bookings[0].Route == nil {
		t.Fatalf("route summary missing")
	}
}

func TestCompleteDepartedMarksPastConfirmed(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("100", 10)
	res, err := f.booking.CreateBooking(context.Background(), userID, bookingInput(routeID, 1, time.Hour))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	later := f.booking
	later.Now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	n, err := later.CompleteDeparted(context.Background())
	if err != nil {
		t.Fatalf("CompleteDeparted failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("completed %d bookings, want 1", n)
	}
	b, _ := f.booking.GetBooking(context.Background(), userID, res.Booking.ID)
	if b.Status != models.BookingCompleted {
		t.Fatalf("status = %s, want completed", b.Status)
	}
}
