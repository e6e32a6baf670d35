package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// Users implements repository.Users. Writes go through the version compare-and-swap.
type Users struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("user %s already exists", user.ID)
		}
		return fmt.Errorf("failed to insert user %s: %w", user.ID, err)
	}
	return nil
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"_id": id}, "user", id)
}

func (r *Users) Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	return replaceVersioned(ctx, r.coll, id, "user", userVersion, func(u *models.User) error {
		if err := mutate(u); err != nil {
			return err
		}
		u.UpdatedAt = time.Now().UTC()
		return nil
	}, r.logger)
}

// Upsert updates the user, or inserts mutate's result over an empty profile when
// none exists. A concurrent insert of the same id falls back to the update path.
func (r *Users) Upsert(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		user, err := r.Update(ctx, id, mutate)
		if err == nil || !errors.Is(err, apperr.ErrNotFound) {
			return user, err
		}

		fresh := &models.User{ID: id}
		if err := mutate(fresh); err != nil {
			return nil, err
		}
		fresh.ID = id
		fresh.Version = 0
		err = r.Create(ctx, fresh)
		if err == nil {
			return fresh, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}
	}
	return nil, apperr.Conflict("user %s is being modified concurrently", id)
}

func (r *Users) ListByProperty(ctx context.Context, propertyID string, role models.Role) ([]models.User, error) {
	filter := bson.M{"property_id": propertyID}
	if role != "" {
		filter["role"] = role
	}
	return findAll[models.User](ctx, r.coll, filter, bson.D{{Key: "_id", Value: 1}})
}

func (r *Users) ListByOwner(ctx context.Context, ownerID string, role models.Role) ([]models.User, error) {
	filter := bson.M{"owner_id": ownerID}
	if role != "" {
		filter["role"] = role
	}
	return findAll[models.User](ctx, r.coll, filter, bson.D{{Key: "name", Value: 1}})
}

// Tickets implements repository.Tickets.
type Tickets struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func (r *Tickets) Create(ctx context.Context, ticket *models.MaintenanceTicket) error {
	if _, err := r.coll.InsertOne(ctx, ticket); err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

func (r *Tickets) GetByID(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	return findOne[models.MaintenanceTicket](ctx, r.coll, bson.M{"_id": id}, "ticket", id)
}

func (r *Tickets) Update(ctx context.Context, id string, mutate func(*models.MaintenanceTicket) error) (*models.MaintenanceTicket, error) {
	return replaceVersioned(ctx, r.coll, id, "ticket", ticketVersion, func(t *models.MaintenanceTicket) error {
		if err := mutate(t); err != nil {
			return err
		}
		t.UpdatedAt = time.Now().UTC()
		return nil
	}, r.logger)
}

func userVersion(u *models.User) *int64 { return &u.Version }

func ticketVersion(t *models.MaintenanceTicket) *int64 { return &t.Version }

func (r *Tickets) ListByTenant(ctx context.Context, tenantID string) ([]models.MaintenanceTicket, error) {
	return findAll[models.MaintenanceTicket](ctx, r.coll, bson.M{"tenant_id": tenantID}, newestFirst)
}

func (r *Tickets) ListByProperties(ctx context.Context, propertyIDs []string) ([]models.MaintenanceTicket, error) {
	return findAll[models.MaintenanceTicket](ctx, r.coll, bson.M{"property_id": bson.M{"$in": propertyIDs}}, newestFirst)
}

// Agreements implements repository.Agreements.
type Agreements struct {
	coll *mongo.Collection
}

func (r *Agreements) Create(ctx context.Context, agreement *models.Agreement) error {
	if _, err := r.coll.InsertOne(ctx, agreement); err != nil {
		return fmt.Errorf("failed to insert agreement: %w", err)
	}
	return nil
}

func (r *Agreements) ListByUnit(ctx context.Context, unitID string) ([]models.Agreement, error) {
	return findAll[models.Agreement](ctx, r.coll, bson.M{"unit_id": unitID}, bson.D{{Key: "start_date", Value: -1}})
}

func (r *Agreements) ListByTenant(ctx context.Context, tenantID string) ([]models.Agreement, error) {
	return findAll[models.Agreement](ctx, r.coll, bson.M{"tenant_id": tenantID}, bson.D{{Key: "start_date", Value: -1}})
}

// Expenses implements repository.Expenses.
type Expenses struct {
	coll *mongo.Collection
}

func (r *Expenses) Create(ctx context.Context, expense *models.Expense) error {
	if _, err := r.coll.InsertOne(ctx, expense); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (r *Expenses) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	return findOne[models.Expense](ctx, r.coll, bson.M{"_id": id}, "expense", id)
}

func (r *Expenses) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete expense %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("expense %s not found", id)
	}
	return nil
}

func (r *Expenses) List(ctx context.Context, f models.ExpenseFilter) ([]models.Expense, error) {
	return findAll[models.Expense](ctx, r.coll, expenseFilter(f), bson.D{{Key: "date", Value: -1}})
}

func expenseFilter(f models.ExpenseFilter) bson.M {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.PropertyID != "" {
		filter["property_id"] = f.PropertyID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.From != nil || f.To != nil {
		date := bson.M{}
		if f.From != nil {
			date["$gte"] = *f.From
		}
		if f.To != nil {
			date["$lte"] = *f.To
		}
		filter["date"] = date
	}
	return filter
}

// Handovers implements repository.Handovers.
type Handovers struct {
	coll *mongo.Collection
}

func (r *Handovers) Create(ctx context.Context, handover *models.Handover) error {
	if _, err := r.coll.InsertOne(ctx, handover); err != nil {
		return fmt.Errorf("failed to insert handover: %w", err)
	}
	return nil
}

func (r *Handovers) ListByUnit(ctx context.Context, unitID string) ([]models.Handover, error) {
	return findAll[models.Handover](ctx, r.coll, bson.M{"unit_id": unitID}, bson.D{{Key: "date", Value: -1}})
}
