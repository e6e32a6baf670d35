// Package occupancy moves units between vacant, occupied and under_maintenance.
package occupancy

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository"
)

// Result describes a committed transition.
type Result struct {
	Unit             models.Unit
	PreviousStatus   models.UnitStatus
	PreviousTenantID string
}

// Changed reports whether the transition altered status or tenant.
func (r Result) Changed() bool {
	return r.PreviousStatus != r.Unit.Status || r.PreviousTenantID != r.Unit.TenantID
}

// Service is the occupancy transition engine. It performs no notification itself;
// callers notify after Transition returns.
type Service struct {
	units   repository.Units
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService builds the engine on top of the unit registry.
func NewService(units repository.Units, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{units: units, metrics: metrics.OrNew(m), logger: logger}
}

// Transition moves unitID to status. tenantID is required for occupied and ignored otherwise.
//
// Occupying a unit already held by tenantID succeeds without change. Occupying a
// unit held by another tenant fails with Conflict. Status and tenant are written
// together inside the registry's per-unit serialized update.
func (s *Service) Transition(ctx context.Context, unitID string, status models.UnitStatus, tenantID string) (*Result, error) {
	if unitID == "" {
		return nil, apperr.Validation("unitId is required")
	}
	if !status.Valid() {
		return nil, apperr.Validation("status %q must be one of vacant, occupied, under_maintenance", status)
	}
	if status == models.UnitOccupied && tenantID == "" {
		return nil, apperr.Validation("tenantId is required to occupy a unit")
	}

	var result Result
	unit, err := s.units.Update(ctx, unitID, func(u *models.Unit) error {
		result.PreviousStatus = u.Status
		result.PreviousTenantID = u.TenantID

		if status == models.UnitOccupied {
			if u.Status == models.UnitOccupied && u.TenantID != "" && u.TenantID != tenantID {
				return apperr.Conflict("unit %s is already occupied by another tenant", unitID)
			}
			u.Status = models.UnitOccupied
			u.TenantID = tenantID
			return nil
		}

		u.Status = status
		u.TenantID = ""
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.metrics.OccupancyConflicts.Inc()
		}
		s.logger.Info("unit transition rejected",
			zap.String("unit_id", unitID),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, err
	}

	result.Unit = *unit
	s.logger.Info("unit transitioned",
		zap.String("unit_id", unitID),
		zap.String("from", string(result.PreviousStatus)),
		zap.String("to", string(unit.Status)),
		zap.String("tenant_id", unit.TenantID))
	return &result, nil
}
