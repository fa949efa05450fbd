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

type UserStore interface {
	GetActiveUser(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UserExists(ctx context.Context, email, studentID string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
	DebitForBooking(ctx context.Context, id int64, amount decimal.Decimal, seats int) error
	RevertBookingDebit(ctx context.Context, id int64, amount decimal.Decimal, seats int) error
	CreditBalance(ctx context.Context, id int64, amount decimal.Decimal) error
}

type RouteStore interface {
	ListActiveRoutes(ctx context.Context) ([]models.Route, error)
	GetActiveRoute(ctx context.Context, id int64) (models.Route, error)
	ReserveSeats(ctx context.Context, id int64, seats int) error
	ReleaseSeats(ctx context.Context, id int64, seats int) error
}

type BookingStore interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
	GetUserBooking(ctx context.Context, userID, id int64) (models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error
	ListUserBookings(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, int, error)
	CompleteDepartedBookings(ctx context.Context, before time.Time) (int64, error)
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	ListUserTransactions(ctx context.Context, userID int64, txType models.TransactionType, page domain.Pagination) ([]models.Transaction, int, error)
}

type DiscrepancyStore interface {
	RecordDiscrepancy(ctx context.Context, d *models.Discrepancy) error
	ListOpenDiscrepancies(ctx context.Context, limit int) ([]models.Discrepancy, error)
	ResolveDiscrepancy(ctx context.Context, id int64, resolvedAt time.Time) error
}

// LedgerStore is the full persistence surface; both the MySQL and the memory
// store satisfy it.
type LedgerStore interface {
	UserStore
	RouteStore
	BookingStore
	TransactionStore
	DiscrepancyStore
}

// DriftReporter receives inconsistencies left behind by best-effort steps.
type DriftReporter interface {
	ReportDrift(ctx context.Context, d models.Discrepancy) error
}

// StoreDriftRecorder records drift synchronously in the discrepancy table.
type StoreDriftRecorder struct {
	Store DiscrepancyStore
}

func (r StoreDriftRecorder) ReportDrift(ctx context.Context, d models.Discrepancy) error {
	return r.Store.RecordDiscrepancy(ctx, &d)
}

func reportDrift(ctx context.Context, reporter DriftReporter, module string, d models.Discrepancy) {
	fields := []zap.Field{
		zap.String("kind", string(d.Kind)),
		zap.Int64("user_id", d.UserID),
		zap.String("reference", d.Reference),
		zap.String("detail", d.Detail),
	}
	if reporter == nil {
		utils.LogWarn(ctx, module, "drift_unreported", "ledger drift has no reporter", nil, fields...)
		return
	}
	if err := reporter.ReportDrift(ctx, d); err != nil {
		utils.LogError(ctx, module, "drift_report", "failed to report ledger drift", err, fields...)
	}
}

// lookupErr maps a read failure to NotFound or a generic persistence failure.
func lookupErr(resource string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return domain.PersistenceError{Op: "load " + resource, Err: err}
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
