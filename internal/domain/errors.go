package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type UnauthorizedError struct {
	Msg string
	Err error
}

func (e UnauthorizedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unauthorized"
}

func (e UnauthorizedError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// InsufficientCapacityError reports how many seats were asked for against what
// the route still has.
type InsufficientCapacityError struct {
	Requested int
	Available int
}

func (e InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient seats: requested %d, available %d", e.Requested, e.Available)
}

type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s",
		e.Required.StringFixed(2), e.Available.StringFixed(2))
}

type CancellationWindowClosedError struct {
	HoursLeft float64
	Cutoff    time.Duration
}

func (e CancellationWindowClosedError) Error() string {
	return fmt.Sprintf("bookings can only be cancelled at least %.0f hours before departure",
		e.Cutoff.Hours())
}

type AlreadyCancelledError struct {
	BookingID int64
}

func (e AlreadyCancelledError) Error() string { return "booking is already cancelled" }

type NotCancellableError struct {
	BookingID int64
	Status    string
}

func (e NotCancellableError) Error() string {
	if e.Status == "" {
		return "booking cannot be cancelled"
	}
	return fmt.Sprintf("%s bookings cannot be cancelled", e.Status)
}

// PersistenceError is a store failure before any compensation was needed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Op == "" {
		return "persistence failure"
	}
	return fmt.Sprintf("persistence failure: %s", e.Op)
}

func (e PersistenceError) Unwrap() error { return e.Err }

const (
	CodePaymentFailed         = "payment_failed"
	CodeSeatReservationFailed = "seat_reservation_failed"
	CodeRefundFailed          = "refund_failed"
)

// SettlementError is returned after a compensating rollback has been attempted.
type SettlementError struct {
	Code string
	Err  error
}

func (e SettlementError) Error() string {
	switch e.Code {
	case CodePaymentFailed:
		return "payment could not be processed, booking was not created"
	case CodeSeatReservationFailed:
		return "seats could not be reserved, booking was not created"
	case CodeRefundFailed:
		return "refund could not be processed, booking was not cancelled"
	default:
		return "operation did not complete"
	}
}

func (e SettlementError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsInsufficientCapacity(err error) bool {
	var target InsufficientCapacityError
	return errors.As(err, &target)
}

func IsInsufficientFunds(err error) bool {
	var target InsufficientFundsError
	return errors.As(err, &target)
}

func IsCancellationWindowClosed(err error) bool {
	var target CancellationWindowClosedError
	return errors.As(err, &target)
}

func IsAlreadyCancelled(err error) bool {
	var target AlreadyCancelledError
	return errors.As(err, &target)
}

func IsNotCancellable(err error) bool {
	var target NotCancellableError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}

// SettlementCode returns the settlement failure code, or "" when err is not a
// SettlementError.
func SettlementCode(err error) string {
	var target SettlementError
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}
