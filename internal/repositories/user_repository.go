package repositories

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	intconfig "shuttle/internal/config"
	intdb "shuttle/internal/db"
	"shuttle/internal/domain/models"
)

const userColumns = `id, full_name, email, student_id, password_hash, phone_number, department, level,
	balance, total_rides, total_spent, is_active, created_at`

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.StudentID, &u.PasswordHash,
		&u.PhoneNumber, &u.Department, &u.Level,
		&u.Balance, &u.TotalRides, &u.TotalSpent, &u.IsActive, &u.CreatedAt,
	)
	return u, err
}

// GetActiveUser returns the user only when is_active is set.
func (r UserRepository) GetActiveUser(ctx context.Context, id int64) (models.User, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? AND is_active = 1 LIMIT 1`, id)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (r UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (r UserRepository) UserExists(ctx context.Context, email, studentID string) (bool, error) {
	var n int
	err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ? OR student_id = ?`,
		strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(studentID)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (full_name, email, student_id, password_hash, phone_number, department, level,
			balance, total_rides, total_spent, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0.00, 0, 0.00, 1, ?)`,
		u.FullName, u.Email, u.StudentID, u.PasswordHash, u.PhoneNumber, u.Department, u.Level, u.CreatedAt,
	)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	u.Balance = decimal.Zero
	u.TotalSpent = decimal.Zero
	u.IsActive = true
	return nil
}

// DebitForBooking takes the fare from the wallet and bumps ride stats, only if
// the balance still covers it.
func (r UserRepository) DebitForBooking(ctx context.Context, id int64, amount decimal.Decimal, seats int) error {
	err := intdb.ExecOne(ctx, r.db(), `
		UPDATE users
		SET balance = balance - ?, total_rides = total_rides + ?, total_spent = total_spent + ?
		WHERE id = ? AND is_active = 1 AND balance >= ?`,
		amount, seats, amount, id, amount,
	)
	return translate(err)
}

// RevertBookingDebit undoes DebitForBooking.
func (r UserRepository) RevertBookingDebit(ctx context.Context, id int64, amount decimal.Decimal, seats int) error {
	err := intdb.ExecOne(ctx, r.db(), `
		UPDATE users
		SET balance = balance + ?, total_rides = GREATEST(total_rides - ?, 0), total_spent = GREATEST(total_spent - ?, 0)
		WHERE id = ?`,
		amount, seats, amount, id,
	)
	return translate(err)
}

func (r UserRepository) CreditBalance(ctx context.Context, id int64, amount decimal.Decimal) error {
	err := intdb.ExecOne(ctx, r.db(), `UPDATE users SET balance = balance + ? WHERE id = ?`, amount, id)
	return translate(err)
}
