// Package agreement stores rental agreements signed between owners and tenants.
package agreement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/access"
)

// Input describes an uploaded agreement. Dates are YYYY-MM-DD.
type Input struct {
	UnitID      string
	TenantID    string
	DocumentURL string
	StartDate   string
	EndDate     string
}

// Service implements the agreement use cases.
type Service struct {
	guard      *access.Guard
	agreements repository.Agreements
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the agreement service.
func NewService(guard *access.Guard, agreements repository.Agreements, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{guard: guard, agreements: agreements, logger: logger, now: time.Now}
}

// Create records an agreement for a unit the caller owns. The tenant defaults to the unit's tenant.
func (s *Service) Create(ctx context.Context, caller models.Identity, in Input) (*models.Agreement, error) {
	if in.DocumentURL == "" {
		return nil, apperr.Validation("pdfUrl is required")
	}
	start, err := models.ParseDate(in.StartDate)
	if err != nil {
		return nil, apperr.Validation("startDate: %v", err)
	}
	end, err := models.ParseDate(in.EndDate)
	if err != nil {
		return nil, apperr.Validation("endDate: %v", err)
	}
	if !end.After(start) {
		return nil, apperr.Validation("endDate must be after startDate")
	}

	unit, property, err := s.guard.OwnedUnit(ctx, caller, in.UnitID)
	if err != nil {
		return nil, err
	}

	tenantID := in.TenantID
	if tenantID == "" {
		tenantID = unit.TenantID
	}
	if tenantID == "" {
		return nil, apperr.Validation("tenantId is required for a vacant unit")
	}

	agreement := &models.Agreement{
		ID:          uuid.NewString(),
		PropertyID:  property.ID,
		UnitID:      unit.ID,
		TenantID:    tenantID,
		OwnerID:     property.OwnerID,
		DocumentURL: in.DocumentURL,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.agreements.Create(ctx, agreement); err != nil {
		return nil, fmt.Errorf("create agreement: %w", err)
	}
	s.logger.Info("agreement uploaded", zap.String("agreement_id", agreement.ID), zap.String("unit_id", unit.ID))
	return agreement, nil
}

// ListByUnit returns a unit's agreements to its owner, staff or current tenant.
func (s *Service) ListByUnit(ctx context.Context, caller models.Identity, unitID string) ([]models.Agreement, error) {
	if _, err := s.guard.UnitViewer(ctx, caller, unitID); err != nil {
		return nil, err
	}
	agreements, err := s.agreements.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	return nonNil(agreements), nil
}

// Mine lists the agreements naming the caller as tenant.
func (s *Service) Mine(ctx context.Context, caller models.Identity) ([]models.Agreement, error) {
	agreements, err := s.agreements.ListByTenant(ctx, caller.UID)
	if err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	return nonNil(agreements), nil
}

func nonNil(a []models.Agreement) []models.Agreement {
	if a == nil {
		return []models.Agreement{}
	}
	return a
}
