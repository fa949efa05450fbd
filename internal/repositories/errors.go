package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	intdb "shuttle/internal/db"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConditionFailed means a guarded update did not apply, e.g. the
	// balance or seat count changed since it was read.
	ErrConditionFailed = errors.New("conditional update not applied")
	ErrDuplicate       = errors.New("duplicate record")
)

// translate maps driver level errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, intdb.ErrNoRowsAffected):
		return ErrConditionFailed
	case intdb.IsDuplicateKey(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
