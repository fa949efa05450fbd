package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscrepancyKind string

const (
	// DiscrepancyMissingLedger: a balance moved but its transaction row was not written.
	DiscrepancyMissingLedger DiscrepancyKind = "missing_ledger_entry"
	// DiscrepancySeatRelease: a booking was refunded but its seats were not returned.
	DiscrepancySeatRelease DiscrepancyKind = "seat_release_failed"
)

type DiscrepancyStatus string

const (
	DiscrepancyOpen     DiscrepancyStatus = "open"
	DiscrepancyResolved DiscrepancyStatus = "resolved"
)

// Discrepancy records an accepted inconsistency left behind by a best-effort
// step so it can be repaired later.
type Discrepancy struct {
	ID            int64             `json:"id"`
	Kind          DiscrepancyKind   `json:"kind"`
	UserID        int64             `json:"userId"`
	BookingID     *int64            `json:"bookingId,omitempty"`
	RouteID       *int64            `json:"routeId,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Reference     string            `json:"reference"`
	TxType        TransactionType   `json:"txType,omitempty"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Seats         int               `json:"seats"`
	Detail        string            `json:"detail"`
	Status        DiscrepancyStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	ResolvedAt    *time.Time        `json:"resolvedAt,omitempty"`
}

// LedgerEntry rebuilds the transaction row a missing_ledger_entry discrepancy
// stands for.
func (d Discrepancy) LedgerEntry() Transaction {
	return Transaction{
		UserID:        d.UserID,
		BookingID:     d.BookingID,
		Amount:        d.Amount,
		Type:          d.TxType,
		PaymentMethod: d.PaymentMethod,
		Status:        TxCompleted,
		Reference:     d.Reference,
	}
}
