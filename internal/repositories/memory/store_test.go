package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
)

func TestDebitForBookingRefusesOverdraft(t *testing.T) {
	s := NewStore()
	id := s.SeedUser(models.User{Email: "a@unn.edu.ng", IsActive: true, Balance: decimal.NewFromInt(500)})

	err := s.DebitForBooking(context.Background(), id, decimal.NewFromInt(600), 1)
	if !errors.Is(err, repositories.ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
	u, _ := s.User(id)
	if !u.Balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("balance changed to %s", u.Balance)
	}
}

func TestFailOnInjectsAndClears(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")
	s.FailOn(OpReserveSeats, boom)
	rid := s.SeedRoute(models.Route{AvailableSeats: 3, IsActive: true})

	if err := s.ReserveSeats(context.Background(), rid, 1); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	s.FailOn(OpReserveSeats, nil)
	if err := s.ReserveSeats(context.Background(), rid, 1); err != nil {
		t.Fatalf("unexpected error after clearing: %v", err)
	}
	r, _ := s.Route(rid)
	if r.AvailableSeats != 2 {
		t.Fatalf("seats = %d", r.AvailableSeats)
	}
}

func TestTransactionReferenceUnique(t *testing.T) {
	s := NewStore()
	tx := &models.Transaction{UserID: 1, Reference: "TXN-1-AAAAAA", Type: models.TxFunding}
	if err := s.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup := &models.Transaction{UserID: 1, Reference: "TXN-1-AAAAAA", Type: models.TxFunding}
	if err := s.CreateTransaction(context.Background(), dup); !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListUserTransactionsPaging(t *testing.T) {
	s := NewStore()
	for i, ref := range []string{"A", "B", "C"} {
		_ = s.CreateTransaction(context.Background(), &models.Transaction{
			UserID: 1, Reference: ref, Type: models.TxFunding, Amount: decimal.NewFromInt(int64(i)),
		})
	}
	page := domain.NewPagination(2, 2)
	txs, total, err := s.ListUserTransactions(context.Background(), 1, "", page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(txs) != 1 || txs[0].Reference != "A" {
		t.Fatalf("got total=%d txs=%+v", total, txs)
	}
}
