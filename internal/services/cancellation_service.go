package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/utils"
)

const (
	cancellationModule = "cancellation"

	DefaultCancellationCutoff = 2 * time.Hour
)

// CancellationService refunds bookings cancelled ahead of departure.
type CancellationService struct {
	Users        UserStore
	Routes       RouteStore
	Bookings     BookingStore
	Transactions TransactionStore
	Drift        DriftReporter
	// Cutoff is the minimum time left before departure; zero means two hours.
	Cutoff time.Duration
	Now    func() time.Time
}

type CancellationResult struct {
	RefundAmount decimal.Decimal `json:"refundAmount"`
	NewBalance   decimal.Decimal `json:"newBalance"`
}

func (s CancellationService) cutoff() time.Duration {
	if s.Cutoff > 0 {
		return s.Cutoff
	}
	return DefaultCancellationCutoff
}

// CancelBooking flips the booking to cancelled and credits the full fare back.
// A failed credit restores the previous status. Seat release and the refund
// ledger row are best effort and surface as drift.
func (s CancellationService) CancelBooking(ctx context.Context, userID, bookingID int64) (CancellationResult, error) {
	now := clock(s.Now).now()

	booking, err := s.Bookings.GetUserBooking(ctx, userID, bookingID)
	if err != nil {
		return CancellationResult{}, lookupErr("booking", err)
	}
	switch booking.Status {
	case models.BookingCancelled:
		return CancellationResult{}, domain.AlreadyCancelledError{BookingID: booking.ID}
	case models.BookingCompleted:
		return CancellationResult{}, domain.NotCancellableError{BookingID: booking.ID, Status: string(booking.Status)}
	}
	if !booking.Status.Cancellable() {
		return CancellationResult{}, domain.NotCancellableError{BookingID: booking.ID, Status: string(booking.Status)}
	}

	cutoff := s.cutoff()
	hoursLeft := utils.HoursUntil(now, booking.DepartureTime)
	if hoursLeft < cutoff.Hours() {
		return CancellationResult{}, domain.CancellationWindowClosedError{HoursLeft: hoursLeft, Cutoff: cutoff}
	}

	user, err := s.Users.GetActiveUser(ctx, userID)
	if err != nil {
		return CancellationResult{}, lookupErr("user", err)
	}
	refund := booking.TotalPrice
	newBalance := user.Balance.Add(refund)

	fields := []zap.Field{
		zap.Int64("booking_id", booking.ID),
		zap.String("booking_code", booking.BookingCode),
		zap.Int64("user_id", userID),
	}

	prior := booking.Status
	if err := s.Bookings.UpdateBookingStatus(ctx, booking.ID, prior, models.BookingCancelled); err != nil {
		utils.LogError(ctx, cancellationModule, "status", "booking status update failed", err, fields...)
		return CancellationResult{}, domain.PersistenceError{Op: "cancel booking", Err: err}
	}

	if err := s.Users.CreditBalance(ctx, userID, refund); err != nil {
		utils.LogError(ctx, cancellationModule, "refund", "refund credit failed", err, fields...)
		rollback(ctx, cancellationModule, []compensation{{
			name: "restore_status",
			fn: func(ctx context.Context) error {
				return s.Bookings.UpdateBookingStatus(ctx, booking.ID, models.BookingCancelled, prior)
			},
		}}, fields...)
		return CancellationResult{}, domain.SettlementError{Code: domain.CodeRefundFailed, Err: err}
	}

	bookingRef := booking.ID
	if err := s.Routes.ReleaseSeats(ctx, booking.RouteID, booking.NumberOfSeats); err != nil {
		utils.LogWarn(ctx, cancellationModule, "release", "seats not released", err, fields...)
		routeID := booking.RouteID
		reportDrift(ctx, s.Drift, cancellationModule, models.Discrepancy{
			Kind:      models.DiscrepancySeatRelease,
			UserID:    userID,
			BookingID: &bookingRef,
			RouteID:   &routeID,
			Seats:     booking.NumberOfSeats,
			Reference: booking.BookingCode,
			Detail:    err.Error(),
			CreatedAt: now,
		})
	}

	entry := models.Transaction{
		UserID:        userID,
		BookingID:     &bookingRef,
		Amount:        refund,
		Type:          models.TxRefund,
		PaymentMethod: models.PaymentWallet,
		Status:        models.TxCompleted,
		Reference:     refundReference(booking.BookingCode),
		CreatedAt:     now,
	}
	if err := s.Transactions.CreateTransaction(ctx, &entry); err != nil {
		utils.LogWarn(ctx, cancellationModule, "ledger", "refund transaction not recorded", err, fields...)
		reportDrift(ctx, s.Drift, cancellationModule, models.Discrepancy{
			Kind:          models.DiscrepancyMissingLedger,
			UserID:        userID,
			BookingID:     &bookingRef,
			Amount:        refund,
			Reference:     entry.Reference,
			TxType:        models.TxRefund,
			PaymentMethod: models.PaymentWallet,
			Detail:        err.Error(),
			CreatedAt:     now,
		})
	}

	utils.LogEvent(ctx, cancellationModule, "cancel", "booking cancelled and refunded",
		append(fields, zap.String("refund", utils.FormatMoney(refund)))...)

	return CancellationResult{RefundAmount: refund, NewBalance: newBalance}, nil
}
