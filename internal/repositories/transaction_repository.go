package repositories

import (
	"context"
	"database/sql"

	intconfig "shuttle/internal/config"
	intdb "shuttle/internal/db"
	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

type TransactionRepository struct {
	DB *sql.DB
}

func (r TransactionRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// CreateTransaction appends a ledger row. References are unique, a repeat
// returns ErrDuplicate.
func (r TransactionRepository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO transactions (user_id, booking_id, amount, type, payment_method, status, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, intdb.NullInt64(t.BookingID), t.Amount, string(t.Type), t.PaymentMethod,
		string(t.Status), t.Reference, t.CreatedAt,
	)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// ListUserTransactions returns newest first. An empty txType lists every type.
func (r TransactionRepository) ListUserTransactions(ctx context.Context, userID int64, txType models.TransactionType, page domain.Pagination) ([]models.Transaction, int, error) {
	where := ` WHERE user_id = ?`
	args := []any{userID}
	if txType != "" {
		where += ` AND type = ?`
		args = append(args, string(txType))
	}

	var total int
	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db().QueryContext(ctx, `
		SELECT id, user_id, booking_id, amount, type, payment_method, status, reference, created_at
		FROM transactions`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var bookingID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &bookingID, &t.Amount, &t.Type, &t.PaymentMethod,
			&t.Status, &t.Reference, &t.CreatedAt); err != nil {
			return out, total, err
		}
		if bookingID.Valid {
			id := bookingID.Int64
			t.BookingID = &id
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}
