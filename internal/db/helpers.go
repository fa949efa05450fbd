package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var (
	// ErrNoRowsAffected means a conditional UPDATE/DELETE matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NullInt64 maps an optional id to a nullable column value.
func NullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// IsDuplicateKey reports a MySQL unique constraint violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// ExecOne runs a statement that must touch exactly one row.
func ExecOne(ctx context.Context, q Execer, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
