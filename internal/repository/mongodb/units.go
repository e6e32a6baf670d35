package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/repository"
)

// maxUpdateAttempts bounds the optimistic retries of versioned updates.
const maxUpdateAttempts = 5

var unitOrder = bson.D{{Key: "floor_number", Value: 1}, {Key: "unit_number", Value: 1}}

// Properties implements repository.Properties.
type Properties struct {
	coll  *mongo.Collection
	units *mongo.Collection
}

func (r *Properties) Create(ctx context.Context, property *models.Property, units []models.Unit) error {
	if _, err := r.coll.InsertOne(ctx, property); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("property %s already exists", property.ID)
		}
		return fmt.Errorf("failed to insert property: %w", err)
	}
	if len(units) == 0 {
		return nil
	}

	docs := make([]any, 0, len(units))
	for _, u := range units {
		docs = append(docs, u)
	}
	if _, err := r.units.InsertMany(ctx, docs); err != nil {
		// Roll back by hand; standalone servers have no multi-document transactions.
		_, _ = r.units.DeleteMany(ctx, bson.M{"property_id": property.ID})
		_, _ = r.coll.DeleteOne(ctx, bson.M{"_id": property.ID})
		return fmt.Errorf("failed to insert units: %w", err)
	}
	return nil
}

func (r *Properties) GetByID(ctx context.Context, id string) (*models.Property, error) {
	return findOne[models.Property](ctx, r.coll, bson.M{"_id": id}, "property", id)
}

func (r *Properties) ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	return findAll[models.Property](ctx, r.coll, bson.M{"owner_id": ownerID}, bson.D{{Key: "created_at", Value: 1}})
}

func (r *Properties) ListAll(ctx context.Context) ([]models.Property, error) {
	return findAll[models.Property](ctx, r.coll, bson.M{}, bson.D{{Key: "created_at", Value: 1}})
}

// Units implements repository.Units. Update is a compare-and-swap on the version field.
type Units struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func (r *Units) Create(ctx context.Context, unit *models.Unit) error {
	if _, err := r.coll.InsertOne(ctx, unit); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("unit %s already exists", unit.ID)
		}
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

func (r *Units) GetByID(ctx context.Context, id string) (*models.Unit, error) {
	return findOne[models.Unit](ctx, r.coll, bson.M{"_id": id}, "unit", id)
}

func (r *Units) ListByProperty(ctx context.Context, propertyID string, status models.UnitStatus) ([]models.Unit, error) {
	filter := bson.M{"property_id": propertyID}
	if status != "" {
		filter["status"] = status
	}
	return findAll[models.Unit](ctx, r.coll, filter, unitOrder)
}

func (r *Units) ListByProperties(ctx context.Context, propertyIDs []string) ([]models.Unit, error) {
	return findAll[models.Unit](ctx, r.coll, bson.M{"property_id": bson.M{"$in": propertyIDs}}, unitOrder)
}

func (r *Units) Update(ctx context.Context, id string, mutate repository.UnitMutation) (*models.Unit, error) {
	return replaceVersioned(ctx, r.coll, id, "unit", unitVersion, func(u *models.Unit) error {
		if err := mutate(u); err != nil {
			return err
		}
		u.ID = id
		u.UpdatedAt = time.Now().UTC()
		return nil
	}, r.logger)
}

func unitVersion(u *models.Unit) *int64 { return &u.Version }
