// Package property manages properties, their units and tenant placement.
package property

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
	"github.com/mamadbah2/rental/internal/service/access"
	"github.com/mamadbah2/rental/internal/service/notify"
	"github.com/mamadbah2/rental/internal/service/occupancy"
)

// Dispatcher is the notification surface the property service needs.
type Dispatcher interface {
	notify.Notifier
	Broadcast(ctx context.Context, recipients []models.User, n models.Notification) notify.BroadcastResult
}

// CreateInput describes a new property and its floors.
type CreateInput struct {
	Name      string
	Address   string
	Structure models.PropertyStructure
}

// UnitInput describes a single unit added to an existing property.
type UnitInput struct {
	PropertyID     string
	FloorNumber    int
	UnitNumber     string
	RentAmount     float64
	ConsumerNumber string
	Region         string
}

// Service implements the property and unit use cases.
type Service struct {
	guard      *access.Guard
	users      repository.Users
	properties repository.Properties
	units      repository.Units
	occupancy  *occupancy.Service
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the property service.
func NewService(guard *access.Guard, store *repository.Store, engine *occupancy.Service, dispatcher Dispatcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		guard:      guard,
		users:      store.Users,
		properties: store.Properties,
		units:      store.Units,
		occupancy:  engine,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create stores a property owned by caller together with every unit of its structure.
// Units start vacant with electricity on.
func (s *Service) Create(ctx context.Context, caller models.Identity, in CreateInput) (*models.Property, error) {
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}

	now := s.now().UTC()
	property := &models.Property{
		ID:        uuid.NewString(),
		OwnerID:   caller.UID,
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var units []models.Unit
	for floor, spec := range in.Structure.Floors {
		for i, u := range spec.Units {
			number := u.UnitNumber
			if number == "" {
				number = fmt.Sprintf("Unit %d", i+1)
			}
			if u.RentAmount < 0 {
				return nil, apperr.Validation("rent for unit %s must not be negative", number)
			}
			units = append(units, s.newUnit(property.ID, floor, number, u.RentAmount, u.ElectricityConsumerNumber, "", now))
		}
	}

	if err := s.properties.Create(ctx, property, units); err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}

	s.logger.Info("property created",
		zap.String("property_id", property.ID),
		zap.String("owner_id", caller.UID),
		zap.Int("units", len(units)))

	property.Units = units
	return property, nil
}

// AddUnit appends one vacant unit to a property owned by caller.
func (s *Service) AddUnit(ctx context.Context, caller models.Identity, in UnitInput) (*models.Unit, error) {
	if in.UnitNumber == "" {
		return nil, apperr.Validation("unitNumber is required")
	}
	if in.RentAmount < 0 {
		return nil, apperr.Validation("rentAmount must not be negative")
	}
	if _, err := s.guard.OwnedProperty(ctx, caller, in.PropertyID); err != nil {
		return nil, err
	}

	unit := s.newUnit(in.PropertyID, in.FloorNumber, in.UnitNumber, in.RentAmount, in.ConsumerNumber, in.Region, s.now().UTC())
	if err := s.units.Create(ctx, &unit); err != nil {
		return nil, fmt.Errorf("create unit: %w", err)
	}
	return &unit, nil
}

func (s *Service) newUnit(propertyID string, floor int, number string, rent float64, consumer, region string, now time.Time) models.Unit {
	return models.Unit{
		ID:                        uuid.NewString(),
		PropertyID:                propertyID,
		FloorNumber:               floor,
		UnitNumber:                number,
		RentAmount:                rent,
		Status:                    models.UnitVacant,
		ElectricityConsumerNumber: consumer,
		ElectricityRegion:         region,
		ElectricityEnabled:        true,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
}

// ListOwned returns the caller's properties, each with its units.
func (s *Service) ListOwned(ctx context.Context, caller models.Identity) ([]models.Property, error) {
	properties, err := s.properties.ListByOwner(ctx, caller.UID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if len(properties) == 0 {
		return []models.Property{}, nil
	}

	ids := make([]string, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}
	units, err := s.units.ListByProperties(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	byProperty := make(map[string][]models.Unit, len(properties))
	for _, u := range units {
		byProperty[u.PropertyID] = append(byProperty[u.PropertyID], u)
	}
	for i := range properties {
		properties[i].Units = byProperty[properties[i].ID]
		if properties[i].Units == nil {
			properties[i].Units = []models.Unit{}
		}
	}
	return properties, nil
}

// ListUnits returns the units of a property the caller owns or manages.
func (s *Service) ListUnits(ctx context.Context, caller models.Identity, propertyID string) ([]models.Unit, error) {
	if _, err := s.guard.ManagedProperty(ctx, caller, propertyID); err != nil {
		return nil, err
	}
	units, err := s.units.ListByProperty(ctx, propertyID, "")
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	if units == nil {
		units = []models.Unit{}
	}
	return units, nil
}

// UpdateUnitStatus runs an occupancy transition on behalf of the owner or staff.
//
// After the transition commits, the tenant profile is pointed at the unit (or
// detached on vacate) and the affected tenant is notified. Neither step can fail
// the request.
func (s *Service) UpdateUnitStatus(ctx context.Context, caller models.Identity, unitID string, status models.UnitStatus, tenantID string) (*models.Unit, error) {
	unit, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ManagedProperty(ctx, caller, unit.PropertyID); err != nil {
		return nil, err
	}

	if status == models.UnitOccupied && tenantID != "" {
		if err := s.requireTenant(ctx, tenantID); err != nil {
			return nil, err
		}
	}

	res, err := s.occupancy.Transition(ctx, unitID, status, tenantID)
	if err != nil {
		return nil, err
	}
	if !res.Changed() {
		return &res.Unit, nil
	}

	s.syncTenantProfiles(ctx, res)
	s.notifyTenants(ctx, res)
	return &res.Unit, nil
}

func (s *Service) requireTenant(ctx context.Context, tenantID string) error {
	tenant, err := s.users.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("tenant %s is not registered", tenantID)
		}
		return err
	}
	if tenant.Role != models.RoleTenant {
		return apperr.Validation("user %s is not a tenant", tenantID)
	}
	return nil
}

func (s *Service) syncTenantProfiles(ctx context.Context, res *occupancy.Result) {
	unit := res.Unit
	if prev := res.PreviousTenantID; prev != "" && prev != unit.TenantID {
		_, err := s.users.Update(ctx, prev, func(u *models.User) error {
			if u.UnitID == unit.ID {
				u.UnitID = ""
				u.PropertyID = ""
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("tenant profile detach failed", zap.String("tenant_id", prev), zap.Error(err))
		}
	}

	if unit.TenantID != "" {
		_, err := s.users.Update(ctx, unit.TenantID, func(u *models.User) error {
			u.PropertyID = unit.PropertyID
			u.UnitID = unit.ID
			return nil
		})
		if err != nil {
			s.logger.Warn("tenant profile back-fill failed", zap.String("tenant_id", unit.TenantID), zap.Error(err))
		}
	}
}

func (s *Service) notifyTenants(ctx context.Context, res *occupancy.Result) {
	unit := res.Unit
	data := map[string]string{"type": "unit_status", "unitId": unit.ID, "status": string(unit.Status)}

	if unit.TenantID != "" {
		s.dispatcher.NotifyUser(ctx, unit.TenantID, models.Notification{
			Title: "Welcome home",
			Body:  fmt.Sprintf("You have been assigned unit %s.", unit.UnitNumber),
			Data:  data,
		})
	}
	if prev := res.PreviousTenantID; prev != "" && prev != unit.TenantID {
		s.dispatcher.NotifyUser(ctx, prev, models.Notification{
			Title: "Unit status updated",
			Body:  fmt.Sprintf("Unit %s is now %s.", unit.UnitNumber, unit.Status),
			Data:  data,
		})
	}
}

// Broadcast pushes a message to every tenant of a property the caller owns.
func (s *Service) Broadcast(ctx context.Context, caller models.Identity, propertyID, title, message string) (notify.BroadcastResult, error) {
	if title == "" || message == "" {
		return notify.BroadcastResult{}, apperr.Validation("title and message are required")
	}
	if _, err := s.guard.OwnedProperty(ctx, caller, propertyID); err != nil {
		return notify.BroadcastResult{}, err
	}

	tenants, err := s.users.ListByProperty(ctx, propertyID, models.RoleTenant)
	if err != nil {
		return notify.BroadcastResult{}, fmt.Errorf("list tenants: %w", err)
	}

	reachable := tenants[:0]
	for _, t := range tenants {
		if t.FCMToken != "" || t.Phone != "" {
			reachable = append(reachable, t)
		}
	}
	if len(reachable) == 0 {
		return notify.BroadcastResult{}, nil
	}

	return s.dispatcher.Broadcast(ctx, reachable, models.Notification{
		Title: title,
		Body:  message,
		Data:  map[string]string{"type": "broadcast", "propertyId": propertyID},
	}), nil
}
