// Package access resolves whether a caller may act on a property or unit.
package access

import (
	"context"
	"errors"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
)

// Guard answers ownership questions against the repositories.
type Guard struct {
	users      repository.Users
	properties repository.Properties
	units      repository.Units
}

// NewGuard builds a Guard.
func NewGuard(users repository.Users, properties repository.Properties, units repository.Units) *Guard {
	return &Guard{users: users, properties: properties, units: units}
}

// OwnedProperty returns the property when caller owns it. A missing property is
// reported as Forbidden so callers cannot probe for other owners' ids.
func (g *Guard) OwnedProperty(ctx context.Context, caller models.Identity, propertyID string) (*models.Property, error) {
	property, err := g.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Forbidden("not authorized for property %s", propertyID)
		}
		return nil, err
	}
	if property.OwnerID != caller.UID {
		return nil, apperr.Forbidden("not authorized for property %s", propertyID)
	}
	return property, nil
}

// ManagedProperty is OwnedProperty extended to staff members employed by the owner.
func (g *Guard) ManagedProperty(ctx context.Context, caller models.Identity, propertyID string) (*models.Property, error) {
	if caller.Role != models.RoleStaff {
		return g.OwnedProperty(ctx, caller, propertyID)
	}

	property, err := g.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Forbidden("not authorized for property %s", propertyID)
		}
		return nil, err
	}
	staff, err := g.users.GetByID(ctx, caller.UID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Forbidden("staff profile %s not found", caller.UID)
		}
		return nil, err
	}
	if staff.Role != models.RoleStaff || staff.OwnerID != property.OwnerID {
		return nil, apperr.Forbidden("not authorized for property %s", propertyID)
	}
	return property, nil
}

// UnitInProperty loads a unit and checks that it belongs to propertyID.
func (g *Guard) UnitInProperty(ctx context.Context, propertyID, unitID string) (*models.Unit, error) {
	unit, err := g.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit.PropertyID != propertyID {
		return nil, apperr.NotFound("unit %s not found in property %s", unitID, propertyID)
	}
	return unit, nil
}

// OwnedUnit loads a unit and its property when caller owns the property.
func (g *Guard) OwnedUnit(ctx context.Context, caller models.Identity, unitID string) (*models.Unit, *models.Property, error) {
	unit, err := g.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, nil, err
	}
	property, err := g.OwnedProperty(ctx, caller, unit.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	return unit, property, nil
}

// UnitViewer loads a unit when caller owns its property or is its current tenant.
func (g *Guard) UnitViewer(ctx context.Context, caller models.Identity, unitID string) (*models.Unit, error) {
	unit, err := g.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit.TenantID != "" && unit.TenantID == caller.UID {
		return unit, nil
	}
	if _, err := g.ManagedProperty(ctx, caller, unit.PropertyID); err != nil {
		return nil, err
	}
	return unit, nil
}

// OwnedPropertyIDs lists the ids of every property owned by ownerID. Staff resolve to their employer.
func (g *Guard) OwnedPropertyIDs(ctx context.Context, caller models.Identity) ([]string, error) {
	ownerID := caller.UID
	if caller.Role == models.RoleStaff {
		staff, err := g.users.GetByID(ctx, caller.UID)
		if err != nil {
			return nil, err
		}
		ownerID = staff.OwnerID
	}
	properties, err := g.properties.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
