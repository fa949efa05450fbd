package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories/memory"
)

func TestFundAccountBounds(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("0")

	for _, amt := range []string{"99.99", "0", "-5", "1000000.01"} {
		if _, err := f.wallet.FundAccount(context.Background(), userID, decimal.RequireFromString(amt), "card"); !domain.IsValidation(err) {
			t.Fatalf("amount %s: expected validation error, got %v", amt, err)
		}
	}
	for _, amt := range []string{"100", "1000000"} {
		if _, err := f.wallet.FundAccount(context.Background(), userID, decimal.RequireFromString(amt), "card"); err != nil {
			t.Fatalf("amount %s: unexpected error %v", amt, err)
		}
	}
	mustBalance(t, f, userID, "1000100")
}

func TestFundAccountWritesLedger(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("250")

	res, err := f.wallet.FundAccount(context.Background(), userID, decimal.NewFromInt(5000), "")
	if err != nil {
		t.Fatalf("FundAccount returned error: %v", err)
	}
	if !res.NewBalance.Equal(decimal.NewFromInt(5250)) {
		t.Fatalf("newBalance = %s", res.NewBalance)
	}
	if !strings.HasPrefix(res.Reference, "TXN-") {
		t.Fatalf("unexpected reference %q", res.Reference)
	}
	if res.Transaction.PaymentMethod != models.PaymentCard || res.Transaction.Type != models.TxFunding {
		t.Fatalf("unexpected transaction: %+v", res.Transaction)
	}
	txs := f.store.Transactions()
	if len(txs) != 1 || txs[0].Reference != res.Reference {
		t.Fatalf("ledger row missing: %+v", txs)
	}
}

func TestFundAccountRejectsUnknownMethod(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("0")
	if _, err := f.wallet.FundAccount(context.Background(), userID, decimal.NewFromInt(500), "crypto"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.wallet.FundAccount(context.Background(), userID, decimal.NewFromInt(500), "wallet"); !domain.IsValidation(err) {
		t.Fatalf("wallet is not a funding method, got %v", err)
	}
}

func TestFundAccountCreditFailure(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("0")
	f.store.FailOn(memory.OpCreditBalance, errors.New("gone away"))

	if _, err := f.wallet.FundAccount(context.Background(), userID, decimal.NewFromInt(500), "ussd"); !domain.IsPersistence(err) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if len(f.store.Transactions()) != 0 {
		t.Fatalf("ledger row written for failed credit")
	}
}

func TestFundAccountLedgerFailureReportsDrift(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("0")
	f.store.FailOn(memory.OpCreateTransaction, errors.New("gone away"))

	res, err := f.wallet.FundAccount(context.Background(), userID, decimal.NewFromInt(500), "bank_transfer")
	if err != nil {
		t.Fatalf("ledger failure must not fail funding: %v", err)
	}
	mustBalance(t, f, userID, "500")
	drift := f.drift.all()
	if len(drift) != 1 || drift[0].Reference != res.Reference || drift[0].PaymentMethod != models.PaymentBankTransfer {
		t.Fatalf("unexpected drift: %+v", drift)
	}
}

func TestListTransactionsTypeFilter(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	if _, err := f.wallet.FundAccount(context.Background(), userID, decimal.NewFromInt(500), "card"); err != nil {
		t.Fatalf("funding failed: %v", err)
	}
	bookFor(t, f, userID, routeID, 1, 3*time.Hour)

	all, err := f.wallet.ListTransactions(context.Background(), userID, "", domain.NewPagination(1, 10))
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if all.Pagination.Total != 2 {
		t.Fatalf("total = %d, want 2", all.Pagination.Total)
	}
	funding, err := f.wallet.ListTransactions(context.Background(), userID, "FUNDING", domain.NewPagination(1, 10))
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(funding.Transactions) != 1 || funding.Transactions[0].Type != models.TxFunding {
		t.Fatalf("unexpected filtered list: %+v", funding.Transactions)
	}
	if _, err := f.wallet.ListTransactions(context.Background(), userID, "bonus", domain.NewPagination(1, 10)); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfileSummarisesWallet(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser("1000")
	routeID := f.addRoute("150", 6)
	bookFor(t, f, userID, routeID, 2, 3*time.Hour)

	p, err := f.wallet.Profile(context.Background(), userID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if p.Stats.TotalRides != 2 || !p.Stats.CurrentBalance.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("unexpected stats: %+v", p.Stats)
	}
	if len(p.RecentBookings) != 1 || len(p.RecentTransactions) != 1 {
		t.Fatalf("unexpected recent items: %d bookings, %d transactions", len(p.RecentBookings), len(p.RecentTransactions))
	}
}
