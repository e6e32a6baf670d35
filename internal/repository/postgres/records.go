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
)

// Users implements repository.Users.
type Users struct {
	db *gorm.DB
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("user %s already exists", user.ID)
		}
		return fmt.Errorf("failed to insert user %s: %w", user.ID, err)
	}
	return nil
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	return first[models.User](ctx, r.db, "user", id)
}

func (r *Users) Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error; err != nil {
			return notFound(err, "user", id)
		}
		if err := mutate(&user); err != nil {
			return err
		}
		user.UpdatedAt = time.Now().UTC()
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert inserts an empty profile when id is unknown, then mutates it under a row lock.
func (r *Users) Upsert(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		placeholder := &models.User{ID: id, CreatedAt: now, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(placeholder).Error; err != nil {
			return fmt.Errorf("failed to insert user %s: %w", id, err)
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error; err != nil {
			return notFound(err, "user", id)
		}
		if err := mutate(&user); err != nil {
			return err
		}
		user.ID = id
		user.UpdatedAt = now
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Users) ListByProperty(ctx context.Context, propertyID string, role models.Role) ([]models.User, error) {
	q := r.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var out []models.User
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

func (r *Users) ListByOwner(ctx context.Context, ownerID string, role models.Role) ([]models.User, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var out []models.User
	err := q.Order("name ASC").Find(&out).Error
	return out, err
}

// Tickets implements repository.Tickets.
type Tickets struct {
	db *gorm.DB
}

func (r *Tickets) Create(ctx context.Context, ticket *models.MaintenanceTicket) error {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

func (r *Tickets) GetByID(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	return first[models.MaintenanceTicket](ctx, r.db, "ticket", id)
}

func (r *Tickets) Update(ctx context.Context, id string, mutate func(*models.MaintenanceTicket) error) (*models.MaintenanceTicket, error) {
	var ticket models.MaintenanceTicket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&ticket).Error; err != nil {
			return notFound(err, "ticket", id)
		}
		if err := mutate(&ticket); err != nil {
			return err
		}
		ticket.UpdatedAt = time.Now().UTC()
		return tx.Save(&ticket).Error
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *Tickets) ListByTenant(ctx context.Context, tenantID string) ([]models.MaintenanceTicket, error) {
	var out []models.MaintenanceTicket
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *Tickets) ListByProperties(ctx context.Context, propertyIDs []string) ([]models.MaintenanceTicket, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	var out []models.MaintenanceTicket
	err := r.db.WithContext(ctx).Where("property_id IN ?", propertyIDs).Order("created_at DESC").Find(&out).Error
	return out, err
}

// Agreements implements repository.Agreements.
type Agreements struct {
	db *gorm.DB
}

func (r *Agreements) Create(ctx context.Context, agreement *models.Agreement) error {
	if err := r.db.WithContext(ctx).Create(agreement).Error; err != nil {
		return fmt.Errorf("failed to insert agreement: %w", err)
	}
	return nil
}

func (r *Agreements) ListByUnit(ctx context.Context, unitID string) ([]models.Agreement, error) {
	var out []models.Agreement
	err := r.db.WithContext(ctx).Where("unit_id = ?", unitID).Order("start_date DESC").Find(&out).Error
	return out, err
}

func (r *Agreements) ListByTenant(ctx context.Context, tenantID string) ([]models.Agreement, error) {
	var out []models.Agreement
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("start_date DESC").Find(&out).Error
	return out, err
}

// Expenses implements repository.Expenses.
type Expenses struct {
	db *gorm.DB
}

func (r *Expenses) Create(ctx context.Context, expense *models.Expense) error {
	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (r *Expenses) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	return first[models.Expense](ctx, r.db, "expense", id)
}

func (r *Expenses) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Expense{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete expense %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("expense %s not found", id)
	}
	return nil
}

func (r *Expenses) List(ctx context.Context, f models.ExpenseFilter) ([]models.Expense, error) {
	q := r.db.WithContext(ctx)
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.PropertyID != "" {
		q = q.Where("property_id = ?", f.PropertyID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	var out []models.Expense
	err := q.Order("date DESC").Find(&out).Error
	return out, err
}

// Handovers implements repository.Handovers.
type Handovers struct {
	db *gorm.DB
}

func (r *Handovers) Create(ctx context.Context, handover *models.Handover) error {
	if err := r.db.WithContext(ctx).Create(handover).Error; err != nil {
		return fmt.Errorf("failed to insert handover: %w", err)
	}
	return nil
}

func (r *Handovers) ListByUnit(ctx context.Context, unitID string) ([]models.Handover, error) {
	var out []models.Handover
	err := r.db.WithContext(ctx).Where("unit_id = ?", unitID).Order("date DESC").Find(&out).Error
	return out, err
}
