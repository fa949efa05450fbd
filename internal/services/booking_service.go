package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

const bookingModule = "booking"

// BookingService settles seat bookings against the user's wallet.
type BookingService struct {
	Users        UserStore
	Routes       RouteStore
	Bookings     BookingStore
	Transactions TransactionStore
	Drift        DriftReporter
	Now          func() time.Time
}

type CreateBookingInput struct {
	RouteID         int64
	PickupLocation  string
	DropoffLocation string
	DepartureTime   time.Time
	NumberOfSeats   int
}

type BookingResult struct {
	Booking    models.Booking      `json:"booking"`
	NewBalance decimal.Decimal     `json:"newBalance"`
	Route      models.RouteSummary `json:"route"`
}

func (in CreateBookingInput) validate(now time.Time) error {
	if in.NumberOfSeats < models.MinSeatsPerBooking || in.NumberOfSeats > models.MaxSeatsPerBooking {
		return domain.ValidationError{Field: "numberOfSeats", Msg: "must be between 1 and 10"}
	}
	if in.RouteID <= 0 {
		return domain.ValidationError{Field: "routeId", Msg: "is required"}
	}
	if in.PickupLocation == "" {
		return domain.ValidationError{Field: "pickupLocation", Msg: "is required"}
	}
	if in.DropoffLocation == "" {
		return domain.ValidationError{Field: "dropoffLocation", Msg: "is required"}
	}
	if utils.SameLocation(in.PickupLocation, in.DropoffLocation) {
		return domain.ValidationError{Field: "dropoffLocation", Msg: "pickup and dropoff locations cannot be the same"}
	}
	if !in.DepartureTime.After(now) {
		return domain.ValidationError{Field: "departureTime", Msg: "must be in the future"}
	}
	return nil
}

// compensation is one undo step of the settlement chain.
type compensation struct {
	name string
	fn   func(context.Context) error
}

// rollback runs the compensations in reverse. Failures are logged and do not
// stop the remaining steps.
func rollback(ctx context.Context, module string, steps []compensation, fields ...zap.Field) {
	ctx = context.WithoutCancel(ctx)
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.fn(ctx); err != nil {
			utils.LogError(ctx, module, "compensate", "compensation step failed", err,
				append(fields, zap.String("step", step.name))...)
			continue
		}
		utils.LogEvent(ctx, module, "compensate", "compensation step applied",
			append(fields, zap.String("step", step.name))...)
	}
}

// CreateBooking validates the request, inserts the booking, debits the wallet
// and reserves seats. A failed debit or reservation undoes the earlier steps.
// The ledger row is written last and only reported as drift when it fails.
func (s BookingService) CreateBooking(ctx context.Context, userID int64, in CreateBookingInput) (BookingResult, error) {
	now := clock(s.Now).now()
	in.PickupLocation = utils.SanitizeText(in.PickupLocation)
	in.DropoffLocation = utils.SanitizeText(in.DropoffLocation)
	if err := in.validate(now); err != nil {
		return BookingResult{}, err
	}

	route, err := s.Routes.GetActiveRoute(ctx, in.RouteID)
	if err != nil {
		return BookingResult{}, lookupErr("route", err)
	}
	if route.AvailableSeats < in.NumberOfSeats {
		return BookingResult{}, domain.InsufficientCapacityError{Requested: in.NumberOfSeats, Available: route.AvailableSeats}
	}

	user, err := s.Users.GetActiveUser(ctx, userID)
	if err != nil {
		return BookingResult{}, lookupErr("user", err)
	}
	total := route.Price.Mul(decimal.NewFromInt(int64(in.NumberOfSeats)))
	if user.Balance.LessThan(total) {
		return BookingResult{}, domain.InsufficientFundsError{Required: total, Available: user.Balance}
	}

	booking := models.Booking{
		UserID:          user.ID,
		RouteID:         route.ID,
		PickupLocation:  in.PickupLocation,
		DropoffLocation: in.DropoffLocation,
		DepartureTime:   in.DepartureTime.UTC(),
		NumberOfSeats:   in.NumberOfSeats,
		TotalPrice:      total,
		Status:          models.BookingConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.insertBooking(ctx, &booking, now); err != nil {
		utils.LogError(ctx, bookingModule, "create", "booking insert failed", err, zap.Int64("user_id", userID))
		return BookingResult{}, domain.PersistenceError{Op: "create booking", Err: err}
	}
	fields := []zap.Field{zap.Int64("booking_id", booking.ID), zap.String("booking_code", booking.BookingCode)}

	undo := []compensation{{
		name: "delete_booking",
		fn:   func(ctx context.Context) error { return s.Bookings.DeleteBooking(ctx, booking.ID) },
	}}

	if err := s.Users.DebitForBooking(ctx, user.ID, total, in.NumberOfSeats); err != nil {
		utils.LogError(ctx, bookingModule, "debit", "wallet debit failed", err, fields...)
		rollback(ctx, bookingModule, undo, fields...)
		return BookingResult{}, domain.SettlementError{Code: domain.CodePaymentFailed, Err: err}
	}
	undo = append(undo, compensation{
		name: "revert_debit",
		fn: func(ctx context.Context) error {
			return s.Users.RevertBookingDebit(ctx, user.ID, total, in.NumberOfSeats)
		},
	})

	if err := s.Routes.ReserveSeats(ctx, route.ID, in.NumberOfSeats); err != nil {
		utils.LogError(ctx, bookingModule, "reserve", "seat reservation failed", err, fields...)
		rollback(ctx, bookingModule, undo, fields...)
		return BookingResult{}, domain.SettlementError{Code: domain.CodeSeatReservationFailed, Err: err}
	}

	bookingID := booking.ID
	entry := models.Transaction{
		UserID:        user.ID,
		BookingID:     &bookingID,
		Amount:        total,
		Type:          models.TxBooking,
		PaymentMethod: models.PaymentWallet,
		Status:        models.TxCompleted,
		Reference:     booking.BookingCode,
		CreatedAt:     now,
	}
	if err := s.Transactions.CreateTransaction(ctx, &entry); err != nil {
		utils.LogWarn(ctx, bookingModule, "ledger", "booking transaction not recorded", err, fields...)
		reportDrift(ctx, s.Drift, bookingModule, models.Discrepancy{
			Kind:          models.DiscrepancyMissingLedger,
			UserID:        user.ID,
			BookingID:     &bookingID,
			Amount:        total,
			Reference:     entry.Reference,
			TxType:        models.TxBooking,
			PaymentMethod: models.PaymentWallet,
			Detail:        err.Error(),
			CreatedAt:     now,
		})
	}

	summary := route.Summary()
	summary.AvailableSeats = route.AvailableSeats - in.NumberOfSeats
	booking.Route = &summary

	utils.LogEvent(ctx, bookingModule, "create", "booking confirmed",
		append(fields, zap.Int64("user_id", user.ID), zap.Int("seats", in.NumberOfSeats),
			zap.String("total", utils.FormatMoney(total)))...)

	return BookingResult{
		Booking:    booking,
		NewBalance: user.Balance.Sub(total),
		Route:      summary,
	}, nil
}

// insertBooking assigns a booking code and inserts the row, retrying once with
// a fresh code when the first one is already taken.
func (s BookingService) insertBooking(ctx context.Context, b *models.Booking, now time.Time) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		b.BookingCode = newBookingCode(now)
		err = s.Bookings.CreateBooking(ctx, b)
		if !errors.Is(err, repositories.ErrDuplicate) {
			return err
		}
		utils.LogWarn(ctx, bookingModule, "create", "booking code collision", err, zap.String("booking_code", b.BookingCode))
	}
	return err
}

type BookingList struct {
	Bookings   []models.Booking  `json:"bookings"`
	Pagination domain.Pagination `json:"pagination"`
}

func (s BookingService) ListBookings(ctx context.Context, userID int64, page domain.Pagination) (BookingList, error) {
	items, total, err := s.Bookings.ListUserBookings(ctx, userID, page)
	if err != nil {
		return BookingList{}, domain.PersistenceError{Op: "list bookings", Err: err}
	}
	return BookingList{Bookings: items, Pagination: page.WithTotal(total)}, nil
}

func (s BookingService) GetBooking(ctx context.Context, userID, bookingID int64) (models.Booking, error) {
	b, err := s.Bookings.GetUserBooking(ctx, userID, bookingID)
	if err != nil {
		return models.Booking{}, lookupErr("booking", err)
	}
	return b, nil
}

// CompleteDeparted moves confirmed bookings whose departure has passed to
// completed.
func (s BookingService) CompleteDeparted(ctx context.Context) (int64, error) {
	n, err := s.Bookings.CompleteDepartedBookings(ctx, clock(s.Now).now())
	if err != nil {
		return 0, domain.PersistenceError{Op: "complete departed bookings", Err: err}
	}
	if n > 0 {
		utils.LogEvent(ctx, bookingModule, "complete", "departed bookings completed", zap.Int64("count", n))
	}
	return n, nil
}
