package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestDebitForBookingGuardsBalance(t *testing.T) {
	db, mock := newMock(t)
	repo := UserRepository{DB: db}
	amount := decimal.RequireFromString("1000")

	mock.ExpectExec(`UPDATE users\s+SET balance = balance - \?`).
		WithArgs(amount, 2, amount, int64(7), amount).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.DebitForBooking(context.Background(), 7, amount, 2); err != nil {
		t.Fatalf("expected debit to apply, got %v", err)
	}

	mock.ExpectExec(`UPDATE users\s+SET balance = balance - \?`).
		WithArgs(amount, 2, amount, int64(7), amount).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.DebitForBooking(context.Background(), 7, amount, 2)
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestReserveSeatsConditionFailed(t *testing.T) {
	db, mock := newMock(t)
	repo := RouteRepository{DB: db}

	mock.ExpectExec(`UPDATE routes SET available_seats = available_seats - \? WHERE id = \? AND available_seats >= \?`).
		WithArgs(3, int64(1), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.ReserveSeats(context.Background(), 1, 3); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestGetActiveRouteNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := RouteRepository{DB: db}

	mock.ExpectQuery(`FROM routes WHERE id = \? AND is_active = 1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetActiveRoute(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateBookingDuplicateCode(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'BK-20250101-ABCDEF'"})

	b := &models.Booking{UserID: 1, RouteID: 1, NumberOfSeats: 1, BookingCode: "BK-20250101-ABCDEF"}
	if err := repo.CreateBooking(context.Background(), b); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateBookingSetsID(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(99, 1))

	b := &models.Booking{UserID: 1, RouteID: 1, NumberOfSeats: 1, Status: models.BookingConfirmed}
	if err := repo.CreateBooking(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != 99 {
		t.Fatalf("booking id not set, got %d", b.ID)
	}
}

func TestGetUserBookingJoinsRoute(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}
	dep := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "user_id", "route_id", "pickup_location", "dropoff_location", "departure_time",
		"number_of_seats", "total_price", "status", "booking_code", "created_at", "updated_at",
		"r_id", "route_name", "departure_location", "arrival_location", "price", "available_seats",
	}
	mock.ExpectQuery(`FROM bookings b\s+JOIN routes r`).
		WithArgs(int64(5), int64(3)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			5, 3, 1, "Main Gate", "Science Complex", dep,
			2, "1000.00", "confirmed", "BK-20250109-ABC123", now, now,
			1, "Main Gate - Science", "Main Gate", "Science Complex", "500.00", 18,
		))

	b, err := repo.GetUserBooking(context.Background(), 3, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != models.BookingConfirmed || b.Route == nil || b.Route.RouteName != "Main Gate - Science" {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if !b.TotalPrice.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("total price = %s", b.TotalPrice)
	}
}

func TestUpdateBookingStatusRequiresPriorStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectExec(`UPDATE bookings SET status = \?, updated_at = \? WHERE id = \? AND status = \?`).
		WithArgs("cancelled", sqlmock.AnyArg(), int64(5), "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateBookingStatus(context.Background(), 5, models.BookingConfirmed, models.BookingCancelled)
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestListUserTransactionsFiltersByType(t *testing.T) {
	db, mock := newMock(t)
	repo := TransactionRepository{DB: db}
	at := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE user_id = \? AND type = \?`).
		WithArgs(int64(3), "refund").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM transactions WHERE user_id = \? AND type = \? ORDER BY`).
		WithArgs(int64(3), "refund", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "booking_id", "amount", "type", "payment_method", "status", "reference", "created_at",
		}).AddRow(11, 3, 5, "1000.00", "refund", "wallet", "completed", "REFUND-BK-20250109-ABC123", at))

	txs, total, err := repo.ListUserTransactions(context.Background(), 3, models.TxRefund, domain.NewPagination(1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(txs) != 1 {
		t.Fatalf("got total=%d len=%d", total, len(txs))
	}
	if txs[0].BookingID == nil || *txs[0].BookingID != 5 {
		t.Fatalf("booking id not scanned: %+v", txs[0])
	}
}

func TestCreateTransactionNullBooking(t *testing.T) {
	db, mock := newMock(t)
	repo := TransactionRepository{DB: db}

	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(int64(3), nil, sqlmock.AnyArg(), "funding", "card", "completed", "TXN-1-ABCDEF", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))

	tx := &models.Transaction{
		UserID: 3, Amount: decimal.NewFromInt(5000), Type: models.TxFunding,
		PaymentMethod: models.PaymentCard, Status: models.TxCompleted, Reference: "TXN-1-ABCDEF",
	}
	if err := repo.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID != 12 {
		t.Fatalf("transaction id not set, got %d", tx.ID)
	}
}

func TestListOpenDiscrepancies(t *testing.T) {
	db, mock := newMock(t)
	repo := DiscrepancyRepository{DB: db}
	at := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM ledger_discrepancies\s+WHERE status = \?`).
		WithArgs("open", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "kind", "user_id", "booking_id", "route_id", "amount", "reference", "tx_type",
			"payment_method", "seats", "detail", "status", "created_at",
		}).AddRow(1, "seat_release_failed", 3, 5, 1, "0.00", "", "", "", 2, "timeout", "open", at))

	out, err := repo.ListOpenDiscrepancies(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].RouteID == nil || *out[0].RouteID != 1 || out[0].Seats != 2 {
		t.Fatalf("unexpected discrepancies: %+v", out)
	}
}
