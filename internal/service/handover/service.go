// Package handover records move-in and move-out inspections.
package handover

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

// Input is a completed inspection.
type Input struct {
	PropertyID string
	UnitID     string
	TenantID   string
	Type       models.HandoverType
	Checklist  []models.ChecklistItem
	Photos     []string
}

// Service implements the handover use cases.
type Service struct {
	guard     *access.Guard
	handovers repository.Handovers
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the handover service.
func NewService(guard *access.Guard, handovers repository.Handovers, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{guard: guard, handovers: handovers, logger: logger, now: time.Now}
}

// Create stores an inspection report written by the owner or staff.
func (s *Service) Create(ctx context.Context, caller models.Identity, in Input) (*models.Handover, error) {
	if in.Type != models.HandoverCheckIn && in.Type != models.HandoverCheckOut {
		return nil, apperr.Validation("type must be check-in or check-out")
	}
	if _, err := s.guard.ManagedProperty(ctx, caller, in.PropertyID); err != nil {
		return nil, err
	}
	unit, err := s.guard.UnitInProperty(ctx, in.PropertyID, in.UnitID)
	if err != nil {
		return nil, err
	}

	tenantID := in.TenantID
	if tenantID == "" {
		tenantID = unit.TenantID
	}
	checklist := in.Checklist
	if checklist == nil {
		checklist = []models.ChecklistItem{}
	}
	photos := in.Photos
	if photos == nil {
		photos = []string{}
	}

	handover := &models.Handover{
		ID:         uuid.NewString(),
		PropertyID: in.PropertyID,
		UnitID:     unit.ID,
		TenantID:   tenantID,
		Type:       in.Type,
		Checklist:  checklist,
		Photos:     photos,
		CheckedBy:  caller.UID,
		Date:       s.now().UTC(),
	}
	if err := s.handovers.Create(ctx, handover); err != nil {
		return nil, fmt.Errorf("create handover: %w", err)
	}
	s.logger.Info("handover recorded",
		zap.String("unit_id", unit.ID),
		zap.String("type", string(in.Type)),
		zap.Int("items", len(checklist)))
	return handover, nil
}

// History lists a unit's inspections, newest first.
func (s *Service) History(ctx context.Context, caller models.Identity, unitID string) ([]models.Handover, error) {
	if _, err := s.guard.UnitViewer(ctx, caller, unitID); err != nil {
		return nil, err
	}
	handovers, err := s.handovers.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("list handovers: %w", err)
	}
	if handovers == nil {
		handovers = []models.Handover{}
	}
	return handovers, nil
}
