// Package analytics computes owner financial summaries.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/access"
)

// UnitStats counts units by state.
type UnitStats struct {
	TotalUnits       int `json:"totalUnits"`
	OccupiedUnits    int `json:"occupiedUnits"`
	VacantUnits      int `json:"vacantUnits"`
	UnderMaintenance int `json:"underMaintenance"`
}

// Summary is an owner's financial position. When Period is set, rent and expense
// figures cover that month only.
type Summary struct {
	Period        string    `json:"month,omitempty"`
	TotalRevenue  float64   `json:"totalRevenue"`
	OccupancyRate float64   `json:"occupancyRate"`
	PendingRent   float64   `json:"pendingRent"`
	CollectedRent float64   `json:"collectedRent"`
	TotalExpenses float64   `json:"totalExpenses"`
	NetIncome     float64   `json:"netIncome"`
	Stats         UnitStats `json:"stats"`
}

// Service exposes owner analytics.
type Service struct {
	guard    *access.Guard
	units    repository.Units
	rent     repository.Rent
	expenses repository.Expenses
	logger   *zap.Logger
}

// NewService wires a new analytics service instance.
func NewService(guard *access.Guard, store *repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{guard: guard, units: store.Units, rent: store.Rent, expenses: store.Expenses, logger: logger}
}

// Summary aggregates units, rent and expenses across the caller's properties.
func (s *Service) Summary(ctx context.Context, caller models.Identity, period string) (*Summary, error) {
	var from, to *time.Time
	if period != "" {
		start, err := models.ParsePeriod(period)
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		from, to = &start, &end
	}

	ids, err := s.guard.OwnedPropertyIDs(ctx, caller)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Period: period}
	if len(ids) == 0 {
		return summary, nil
	}

	var (
		units    []models.Unit
		records  []models.RentRecord
		expenses []models.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		units, err = s.units.ListByProperties(gctx, ids)
		return wrap("load units", err)
	})
	g.Go(func() (err error) {
		records, err = s.rent.ListByProperties(gctx, ids)
		return wrap("load rent", err)
	})
	g.Go(func() (err error) {
		expenses, err = s.expenses.List(gctx, models.ExpenseFilter{OwnerID: caller.UID, From: from, To: to})
		return wrap("load expenses", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, u := range units {
		summary.Stats.TotalUnits++
		switch u.Status {
		case models.UnitOccupied:
			summary.Stats.OccupiedUnits++
			summary.TotalRevenue += u.RentAmount
		case models.UnitUnderMaintenance:
			summary.Stats.UnderMaintenance++
		default:
			summary.Stats.VacantUnits++
		}
	}
	if summary.Stats.TotalUnits > 0 {
		summary.OccupancyRate = round2(float64(summary.Stats.OccupiedUnits) / float64(summary.Stats.TotalUnits) * 100)
	}

	for _, r := range records {
		if period != "" && r.Period != period {
			continue
		}
		summary.CollectedRent += r.AmountPaid
		if r.Status != models.RentPaid {
			summary.PendingRent += r.Outstanding()
		}
	}
	for _, e := range expenses {
		summary.TotalExpenses += e.Amount
	}

	summary.TotalRevenue = round2(summary.TotalRevenue)
	summary.PendingRent = round2(summary.PendingRent)
	summary.CollectedRent = round2(summary.CollectedRent)
	summary.TotalExpenses = round2(summary.TotalExpenses)
	summary.NetIncome = round2(summary.CollectedRent - summary.TotalExpenses)
	return summary, nil
}

// Digest renders a summary as a short notification body.
func Digest(s *Summary) string {
	if s.Stats.TotalUnits == 0 {
		return "No units registered yet."
	}
	return fmt.Sprintf("Occupancy %.2f%% (%d/%d units). Collected ₹%.2f, pending ₹%.2f, expenses ₹%.2f, net ₹%.2f.",
		s.OccupancyRate, s.Stats.OccupiedUnits, s.Stats.TotalUnits,
		s.CollectedRent, s.PendingRent, s.TotalExpenses, s.NetIncome)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
