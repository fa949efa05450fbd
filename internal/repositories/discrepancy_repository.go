package repositories

import (
	"context"
	"database/sql"
	"time"

	intconfig "shuttle/internal/config"
	intdb "shuttle/internal/db"
	"shuttle/internal/domain/models"
)

type DiscrepancyRepository struct {
	DB *sql.DB
}

func (r DiscrepancyRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r DiscrepancyRepository) RecordDiscrepancy(ctx context.Context, d *models.Discrepancy) error {
	if d.Status == "" {
		d.Status = models.DiscrepancyOpen
	}
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO ledger_discrepancies (kind, user_id, booking_id, route_id, amount, reference, tx_type,
			payment_method, seats, detail, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(d.Kind), d.UserID, intdb.NullInt64(d.BookingID), intdb.NullInt64(d.RouteID), d.Amount,
		d.Reference, string(d.TxType), d.PaymentMethod, d.Seats, d.Detail, string(d.Status), d.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

// ListOpenDiscrepancies returns the oldest open rows first.
func (r DiscrepancyRepository) ListOpenDiscrepancies(ctx context.Context, limit int) ([]models.Discrepancy, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, kind, user_id, booking_id, route_id, amount, reference, tx_type, payment_method,
			seats, detail, status, created_at
		FROM ledger_discrepancies
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?`, string(models.DiscrepancyOpen), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Discrepancy{}
	for rows.Next() {
		var d models.Discrepancy
		var bookingID, routeID sql.NullInt64
		if err := rows.Scan(&d.ID, &d.Kind, &d.UserID, &bookingID, &routeID, &d.Amount, &d.Reference,
			&d.TxType, &d.PaymentMethod, &d.Seats, &d.Detail, &d.Status, &d.CreatedAt); err != nil {
			return out, err
		}
		if bookingID.Valid {
			v := bookingID.Int64
			d.BookingID = &v
		}
		if routeID.Valid {
			v := routeID.Int64
			d.RouteID = &v
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r DiscrepancyRepository) ResolveDiscrepancy(ctx context.Context, id int64, resolvedAt time.Time) error {
	err := intdb.ExecOne(ctx, r.db(),
		`UPDATE ledger_discrepancies SET status = ?, resolved_at = ? WHERE id = ? AND status = ?`,
		string(models.DiscrepancyResolved), resolvedAt, id, string(models.DiscrepancyOpen))
	return translate(err)
}
