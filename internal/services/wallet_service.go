package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/utils"
)

const (
	walletModule = "wallet"
	recentItems  = 5
)

var (
	MinFundingAmount = decimal.NewFromInt(100)
	MaxFundingAmount = decimal.NewFromInt(1_000_000)
)

type WalletService struct {
	Users        UserStore
	Bookings     BookingStore
	Transactions TransactionStore
	Drift        DriftReporter
	Now          func() time.Time
}

type FundingResult struct {
	NewBalance  decimal.Decimal    `json:"newBalance"`
	Reference   string             `json:"reference"`
	Transaction models.Transaction `json:"transaction"`
}

func normalizeFundingMethod(method string) (string, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	switch method {
	case "":
		return models.PaymentCard, nil
	case models.PaymentCard, models.PaymentBankTransfer, models.PaymentUSSD:
		return method, nil
	}
	return "", domain.ValidationError{Field: "paymentMethod", Msg: "must be one of card, bank_transfer, ussd"}
}

// FundAccount credits the wallet and writes the funding ledger row. The ledger
// write is best effort.
func (s WalletService) FundAccount(ctx context.Context, userID int64, amount decimal.Decimal, paymentMethod string) (FundingResult, error) {
	now := clock(s.Now).now()
	if amount.LessThan(MinFundingAmount) || amount.GreaterThan(MaxFundingAmount) {
		return FundingResult{}, domain.ValidationError{
			Field: "amount",
			Msg:   "must be between " + utils.FormatNaira(MinFundingAmount) + " and " + utils.FormatNaira(MaxFundingAmount),
		}
	}
	method, err := normalizeFundingMethod(paymentMethod)
	if err != nil {
		return FundingResult{}, err
	}

	user, err := s.Users.GetActiveUser(ctx, userID)
	if err != nil {
		return FundingResult{}, lookupErr("user", err)
	}
	if err := s.Users.CreditBalance(ctx, userID, amount); err != nil {
		utils.LogError(ctx, walletModule, "fund", "wallet credit failed", err, zap.Int64("user_id", userID))
		return FundingResult{}, domain.PersistenceError{Op: "fund account", Err: err}
	}

	entry := models.Transaction{
		UserID:        userID,
		Amount:        amount,
		Type:          models.TxFunding,
		PaymentMethod: method,
		Status:        models.TxCompleted,
		Reference:     newFundingReference(now),
		CreatedAt:     now,
	}
	if err := s.Transactions.CreateTransaction(ctx, &entry); err != nil {
		utils.LogWarn(ctx, walletModule, "ledger", "funding transaction not recorded", err,
			zap.Int64("user_id", userID), zap.String("reference", entry.Reference))
		reportDrift(ctx, s.Drift, walletModule, models.Discrepancy{
			Kind:          models.DiscrepancyMissingLedger,
			UserID:        userID,
			Amount:        amount,
			Reference:     entry.Reference,
			TxType:        models.TxFunding,
			PaymentMethod: method,
			Detail:        err.Error(),
			CreatedAt:     now,
		})
	}

	utils.LogEvent(ctx, walletModule, "fund", "wallet funded",
		zap.Int64("user_id", userID), zap.String("amount", utils.FormatMoney(amount)),
		zap.String("method", method), zap.String("reference", entry.Reference))

	return FundingResult{
		NewBalance:  user.Balance.Add(amount),
		Reference:   entry.Reference,
		Transaction: entry,
	}, nil
}

type TransactionList struct {
	Transactions []models.Transaction `json:"transactions"`
	Pagination   domain.Pagination    `json:"pagination"`
}

// ListTransactions pages through the user's ledger, newest first. An empty
// txType returns every type.
func (s WalletService) ListTransactions(ctx context.Context, userID int64, txType string, page domain.Pagination) (TransactionList, error) {
	t := models.TransactionType(strings.ToLower(strings.TrimSpace(txType)))
	if t != "" && !t.Valid() {
		return TransactionList{}, domain.ValidationError{Field: "type", Msg: "must be one of funding, booking, refund"}
	}
	items, total, err := s.Transactions.ListUserTransactions(ctx, userID, t, page)
	if err != nil {
		return TransactionList{}, domain.PersistenceError{Op: "list transactions", Err: err}
	}
	return TransactionList{Transactions: items, Pagination: page.WithTotal(total)}, nil
}

type Profile struct {
	User               models.User          `json:"user"`
	Stats              models.UserStats     `json:"stats"`
	RecentBookings     []models.Booking     `json:"recentBookings"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

// Profile is the dashboard view of the wallet owner.
func (s WalletService) Profile(ctx context.Context, userID int64) (Profile, error) {
	user, err := s.Users.GetActiveUser(ctx, userID)
	if err != nil {
		return Profile{}, lookupErr("user", err)
	}
	first := domain.NewPagination(1, recentItems)
	bookings, _, err := s.Bookings.ListUserBookings(ctx, userID, first)
	if err != nil {
		return Profile{}, domain.PersistenceError{Op: "list bookings", Err: err}
	}
	txs, _, err := s.Transactions.ListUserTransactions(ctx, userID, "", first)
	if err != nil {
		return Profile{}, domain.PersistenceError{Op: "list transactions", Err: err}
	}
	return Profile{
		User:               user,
		Stats:              user.Stats(),
		RecentBookings:     bookings,
		RecentTransactions: txs,
	}, nil
}
