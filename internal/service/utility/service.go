// Package utility gates a unit's electricity supply on the state of its electricity bill.
package utility

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/access"
	"github.com/mamadbah2/rental/internal/service/notify"
	"github.com/mamadbah2/rental/pkg/clients/billboard"
)

// ToggleResult is returned when the requested supply state was persisted.
type ToggleResult struct {
	UnitID     string            `json:"unitId"`
	Enabled    bool              `json:"isElectricityActive"`
	BillStatus models.BillStatus `json:"billStatus"`
	Message    string            `json:"message"`
}

// StatusResult is a fresh bill read for a unit.
type StatusResult struct {
	UnitID      string              `json:"unitId"`
	PropertyID  string              `json:"propertyId"`
	UnitNumber  string              `json:"unitNumber"`
	Enabled     bool                `json:"isElectricityActive"`
	BillDetails models.BillSnapshot `json:"billDetails"`
}

// Service is the utility gate.
type Service struct {
	guard         *access.Guard
	units         repository.Units
	board         billboard.Client
	notifier      notify.Notifier
	defaultRegion string
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires the gate. defaultRegion applies to units without a region of their own.
func NewService(guard *access.Guard, units repository.Units, board billboard.Client, notifier notify.Notifier, defaultRegion string, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		guard:         guard,
		units:         units,
		board:         board,
		notifier:      notifier,
		defaultRegion: defaultRegion,
		metrics:       metrics.OrNew(m),
		logger:        logger,
		now:           time.Now,
	}
}

// SetElectricity turns a unit's supply on or off.
//
// The bill is always fetched first, so a board failure leaves the unit untouched.
// Enabling is refused with Denied, carrying the bill, unless the bill is PAID.
// Disabling is always allowed. The tenant is notified in the background.
func (s *Service) SetElectricity(ctx context.Context, caller models.Identity, propertyID, unitID string, enabled bool) (*ToggleResult, error) {
	if _, err := s.guard.OwnedProperty(ctx, caller, propertyID); err != nil {
		return nil, err
	}

	unit, err := s.guard.UnitInProperty(ctx, propertyID, unitID)
	if err != nil {
		return nil, err
	}

	bill, err := s.fetchBill(ctx, unit)
	if err != nil {
		s.metrics.ElectricityToggles.WithLabelValues("upstream_error").Inc()
		return nil, err
	}

	if enabled && !bill.Paid() {
		s.metrics.ElectricityToggles.WithLabelValues("denied").Inc()
		s.logger.Info("electricity enable denied",
			zap.String("unit_id", unitID),
			zap.String("bill_status", string(bill.Status)),
			zap.Float64("bill_amount", bill.Amount))
		return nil, apperr.Denied(
			fmt.Sprintf("cannot turn on electricity: the tenant has an unpaid bill of ₹%.2f", bill.Amount),
			bill)
	}

	checkedAt := s.now().UTC()
	updated, err := s.units.Update(ctx, unitID, func(u *models.Unit) error {
		u.ElectricityEnabled = enabled
		u.ElectricityBillStatus = bill.Status
		u.ElectricityCheckedAt = &checkedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "disabled"
	if enabled {
		outcome = "enabled"
	}
	s.metrics.ElectricityToggles.WithLabelValues(outcome).Inc()
	s.logger.Info("electricity toggled",
		zap.String("unit_id", unitID),
		zap.Bool("enabled", enabled),
		zap.String("bill_status", string(bill.Status)))

	if updated.TenantID != "" {
		s.notifier.NotifyUser(ctx, updated.TenantID, toggleNotification(updated, enabled))
	}

	return &ToggleResult{
		UnitID:     unitID,
		Enabled:    enabled,
		BillStatus: bill.Status,
		Message:    fmt.Sprintf("electricity %s successfully", outcome),
	}, nil
}

// Status reads the current bill for a unit. The owner, staff and the unit's tenant may call it.
func (s *Service) Status(ctx context.Context, caller models.Identity, propertyID, unitID string) (*StatusResult, error) {
	unit, err := s.guard.UnitViewer(ctx, caller, unitID)
	if err != nil {
		return nil, err
	}
	if unit.PropertyID != propertyID {
		return nil, apperr.NotFound("unit %s not found in property %s", unitID, propertyID)
	}

	bill, err := s.fetchBill(ctx, unit)
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		UnitID:      unit.ID,
		PropertyID:  unit.PropertyID,
		UnitNumber:  unit.UnitNumber,
		Enabled:     unit.ElectricityEnabled,
		BillDetails: *bill,
	}, nil
}

func (s *Service) fetchBill(ctx context.Context, unit *models.Unit) (*models.BillSnapshot, error) {
	consumer := unit.ConsumerNumber()
	bill, err := s.board.FetchBill(ctx, consumer, unit.Region(s.defaultRegion))
	if err != nil {
		s.logger.Warn("electricity board request failed", zap.String("consumer_number", consumer), zap.Error(err))
		return nil, apperr.Upstream("electricity board unavailable", err)
	}
	return bill, nil
}

func toggleNotification(unit *models.Unit, enabled bool) models.Notification {
	n := models.Notification{
		Title: "Electricity Cut-off",
		Body:  "Your electricity was turned off by the owner.",
		Data:  map[string]string{"type": "electricity", "unitId": unit.ID, "enabled": "false"},
	}
	if enabled {
		n.Title = "Electricity Restored"
		n.Body = "Your electricity has been turned on as the bill is paid."
		n.Data["enabled"] = "true"
	}
	return n
}
