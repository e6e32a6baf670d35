package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
)

const unitOrder = "floor_number ASC, unit_number ASC"

// Properties implements repository.Properties.
type Properties struct {
	db *gorm.DB
}

func (r *Properties) Create(ctx context.Context, property *models.Property, units []models.Unit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(property).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("property %s already exists", property.ID)
			}
			return fmt.Errorf("failed to insert property: %w", err)
		}
		if len(units) == 0 {
			return nil
		}
		if err := tx.Create(&units).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("a unit of property %s already exists", property.ID)
			}
			return fmt.Errorf("failed to insert units: %w", err)
		}
		return nil
	})
}

func (r *Properties) GetByID(ctx context.Context, id string) (*models.Property, error) {
	return first[models.Property](ctx, r.db, "property", id)
}

func (r *Properties) ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	var out []models.Property
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *Properties) ListAll(ctx context.Context) ([]models.Property, error) {
	var out []models.Property
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error
	return out, err
}

// Units implements repository.Units. Update holds a row lock for the whole mutation.
type Units struct {
	db *gorm.DB
}

func (r *Units) Create(ctx context.Context, unit *models.Unit) error {
	if err := r.db.WithContext(ctx).Create(unit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("unit %s already exists", unit.ID)
		}
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

func (r *Units) GetByID(ctx context.Context, id string) (*models.Unit, error) {
	return first[models.Unit](ctx, r.db, "unit", id)
}

func (r *Units) ListByProperty(ctx context.Context, propertyID string, status models.UnitStatus) ([]models.Unit, error) {
	q := r.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Unit
	err := q.Order(unitOrder).Find(&out).Error
	return out, err
}

func (r *Units) ListByProperties(ctx context.Context, propertyIDs []string) ([]models.Unit, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	var out []models.Unit
	err := r.db.WithContext(ctx).Where("property_id IN ?", propertyIDs).Order("property_id ASC, " + unitOrder).Find(&out).Error
	return out, err
}

func (r *Units) Update(ctx context.Context, id string, mutate repository.UnitMutation) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&unit).Error; err != nil {
			return notFound(err, "unit", id)
		}
		if err := mutate(&unit); err != nil {
			return err
		}
		unit.ID = id
		unit.Version++
		unit.UpdatedAt = time.Now().UTC()
		return tx.Save(&unit).Error
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}
