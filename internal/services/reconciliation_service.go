package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

const (
	reconcileModule    = "reconcile"
	reconcileBatchSize = 100
)

// ReconciliationService repairs recorded ledger drift.
type ReconciliationService struct {
	Routes        RouteStore
	Transactions  TransactionStore
	Discrepancies DiscrepancyStore
	Now           func() time.Time
}

type ReconcileReport struct {
	Scanned  int `json:"scanned"`
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
}

// Run walks open discrepancies oldest first. A missing ledger row is written
// again (an existing row with the same reference counts as repaired) and
// unreleased seats are returned to the route.
func (s ReconciliationService) Run(ctx context.Context) (ReconcileReport, error) {
	open, err := s.Discrepancies.ListOpenDiscrepancies(ctx, reconcileBatchSize)
	if err != nil {
		return ReconcileReport{}, domain.PersistenceError{Op: "list discrepancies", Err: err}
	}
	report := ReconcileReport{Scanned: len(open)}
	for _, d := range open {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fields := []zap.Field{zap.Int64("discrepancy_id", d.ID), zap.String("kind", string(d.Kind))}
		if err := s.repair(ctx, d); err != nil {
			report.Failed++
			utils.LogWarn(ctx, reconcileModule, "repair", "discrepancy not repaired", err, fields...)
			continue
		}
		if err := s.Discrepancies.ResolveDiscrepancy(ctx, d.ID, clock(s.Now).now()); err != nil {
			report.Failed++
			utils.LogWarn(ctx, reconcileModule, "resolve", "discrepancy repaired but not marked resolved", err, fields...)
			continue
		}
		report.Resolved++
		utils.LogEvent(ctx, reconcileModule, "repair", "discrepancy resolved", fields...)
	}
	return report, nil
}

func (s ReconciliationService) repair(ctx context.Context, d models.Discrepancy) error {
	switch d.Kind {
	case models.DiscrepancyMissingLedger:
		entry := d.LedgerEntry()
		entry.CreatedAt = d.CreatedAt
		err := s.Transactions.CreateTransaction(ctx, &entry)
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil
		}
		return err
	case models.DiscrepancySeatRelease:
		if d.RouteID == nil || d.Seats <= 0 {
			return domain.ValidationError{Field: "routeId", Msg: "seat release discrepancy without route or seats"}
		}
		return s.Routes.ReleaseSeats(ctx, *d.RouteID, d.Seats)
	default:
		return domain.ValidationError{Field: "kind", Msg: "unknown discrepancy kind " + string(d.Kind)}
	}
}
