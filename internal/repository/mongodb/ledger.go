package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/domain/models"
)

var rentOrder = bson.D{{Key: "due_date", Value: -1}, {Key: "unit_number", Value: 1}}

// Rent implements repository.Rent. The unit_period_unique index arbitrates concurrent inserts.
type Rent struct {
	coll *mongo.Collection
}

func (r *Rent) CreateIfAbsent(ctx context.Context, record *models.RentRecord) (bool, error) {
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert rent record: %w", err)
	}
	return true, nil
}

func (r *Rent) GetByID(ctx context.Context, id string) (*models.RentRecord, error) {
	return findOne[models.RentRecord](ctx, r.coll, bson.M{"_id": id}, "rent record", id)
}

func (r *Rent) ListByTenant(ctx context.Context, tenantID string) ([]models.RentRecord, error) {
	return findAll[models.RentRecord](ctx, r.coll, bson.M{"tenant_id": tenantID}, rentOrder)
}

func (r *Rent) ListByProperties(ctx context.Context, propertyIDs []string) ([]models.RentRecord, error) {
	return findAll[models.RentRecord](ctx, r.coll, bson.M{"property_id": bson.M{"$in": propertyIDs}}, rentOrder)
}

// ApplyPayment credits amount for orderID and recomputes the status in one
// server-side update. An order already listed in applied_orders matches nothing,
// so a repeated call returns the record unchanged.
func (r *Rent) ApplyPayment(ctx context.Context, id, orderID string, amount float64) (*models.RentRecord, bool, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "amount_paid", Value: bson.D{{Key: "$add", Value: bson.A{"$amount_paid", amount}}}},
			{Key: "applied_orders", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$applied_orders", bson.A{}}}},
				bson.A{orderID},
			}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$switch", Value: bson.D{
				{Key: "branches", Value: bson.A{
					bson.D{
						{Key: "case", Value: bson.D{{Key: "$lte", Value: bson.A{"$amount_paid", 0}}}},
						{Key: "then", Value: models.RentPending},
					},
					bson.D{
						{Key: "case", Value: bson.D{{Key: "$gte", Value: bson.A{"$amount_paid", "$base_rent"}}}},
						{Key: "then", Value: models.RentPaid},
					},
				}},
				{Key: "default", Value: models.RentPartial},
			}}}},
		}}},
	}

	filter := bson.M{"_id": id, "applied_orders": bson.M{"$ne": orderID}}
	var out models.RentRecord
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return &out, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("failed to apply payment to %s: %w", id, err)
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Payments implements repository.Payments.
type Payments struct {
	coll *mongo.Collection
}

func (r *Payments) Create(ctx context.Context, payment *models.Payment) error {
	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("order %s already recorded", payment.OrderID)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *Payments) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return findOne[models.Payment](ctx, r.coll, bson.M{"order_id": orderID}, "order", orderID)
}

func (r *Payments) MarkPaid(ctx context.Context, orderID, paymentID string) (*models.Payment, bool, error) {
	filter := bson.M{"order_id": orderID, "status": bson.M{"$ne": models.PaymentPaid}}
	update := bson.M{"$set": bson.M{
		"status":     models.PaymentPaid,
		"payment_id": paymentID,
		"updated_at": time.Now().UTC(),
	}}

	var out models.Payment
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return &out, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("failed to mark order %s paid: %w", orderID, err)
	}

	existing, err := r.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
