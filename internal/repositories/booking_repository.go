package repositories

import (
	"context"
	"database/sql"
	"time"

	intconfig "shuttle/internal/config"
	intdb "shuttle/internal/db"
	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingWithRouteSelect = `
	SELECT b.id, b.user_id, b.route_id, b.pickup_location, b.dropoff_location, b.departure_time,
		b.number_of_seats, b.total_price, b.status, b.booking_code, b.created_at, b.updated_at,
		r.id, r.route_name, r.departure_location, r.arrival_location, r.price, r.available_seats
	FROM bookings b
	JOIN routes r ON r.id = b.route_id`

func scanBookingWithRoute(row interface{ Scan(...any) error }) (models.Booking, error) {
	var b models.Booking
	var rs models.RouteSummary
	err := row.Scan(
		&b.ID, &b.UserID, &b.RouteID, &b.PickupLocation, &b.DropoffLocation, &b.DepartureTime,
		&b.NumberOfSeats, &b.TotalPrice, &b.Status, &b.BookingCode, &b.CreatedAt, &b.UpdatedAt,
		&rs.ID, &rs.RouteName, &rs.DepartureLocation, &rs.ArrivalLocation, &rs.Price, &rs.AvailableSeats,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.Route = &rs
	return b, nil
}

// CreateBooking inserts b and fills its ID. A clashing booking code yields ErrDuplicate.
func (r BookingRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO bookings (user_id, route_id, pickup_location, dropoff_location, departure_time,
			number_of_seats, total_price, status, booking_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.RouteID, b.PickupLocation, b.DropoffLocation, b.DepartureTime,
		b.NumberOfSeats, b.TotalPrice, string(b.Status), b.BookingCode, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r BookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	return translate(intdb.ExecOne(ctx, r.db(), `DELETE FROM bookings WHERE id = ?`, id))
}

// GetUserBooking scopes the lookup to the owner so foreign ids read as not found.
func (r BookingRepository) GetUserBooking(ctx context.Context, userID, id int64) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, bookingWithRouteSelect+` WHERE b.id = ? AND b.user_id = ? LIMIT 1`, id, userID)
	b, err := scanBookingWithRoute(row)
	if err != nil {
		return models.Booking{}, translate(err)
	}
	return b, nil
}

// UpdateBookingStatus moves a booking from one status to another. It fails with
// ErrConditionFailed when the row is no longer in the expected status.
func (r BookingRepository) UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error {
	err := intdb.ExecOne(ctx, r.db(),
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, string(from))
	return translate(err)
}

func (r BookingRepository) ListUserBookings(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, int, error) {
	var total int
	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db().QueryContext(ctx,
		bookingWithRouteSelect+` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBookingWithRoute(rows)
		if err != nil {
			return out, total, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// CompleteDepartedBookings marks confirmed bookings whose departure is before
// the cutoff as completed.
func (r BookingRepository) CompleteDepartedBookings(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db().ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE status = ? AND departure_time < ?`,
		string(models.BookingCompleted), time.Now().UTC(), string(models.BookingConfirmed), before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
