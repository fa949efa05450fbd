package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxFunding TransactionType = "funding"
	TxBooking TransactionType = "booking"
	TxRefund  TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxFunding, TxBooking, TxRefund:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
)

const (
	PaymentCard         = "card"
	PaymentBankTransfer = "bank_transfer"
	PaymentUSSD         = "ussd"
	PaymentWallet       = "wallet"
)

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"userId"`
	BookingID     *int64            `json:"bookingId,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Type          TransactionType   `json:"type"`
	PaymentMethod string            `json:"paymentMethod"`
	Status        TransactionStatus `json:"status"`
	Reference     string            `json:"reference"`
	CreatedAt     time.Time         `json:"createdAt"`
}
