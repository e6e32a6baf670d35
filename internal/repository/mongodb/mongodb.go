// Package mongodb implements the repository contracts on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/rental/internal/apperr"
	"github.com/mamadbah2/rental/internal/repository"
)

const (
	collUsers      = "users"
	collProperties = "properties"
	collUnits      = "units"
	collRent       = "rent_records"
	collTickets    = "maintenance_tickets"
	collAgreements = "agreements"
	collPayments   = "payments"
	collExpenses   = "expenses"
	collHandovers  = "handovers"
)

// Connect dials MongoDB, verifies the connection, ensures indexes and returns a Store
// whose Close disconnects the client.
func Connect(ctx context.Context, uri, dbName string, logger *zap.Logger) (*repository.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("mongodb connected", zap.String("database", dbName))

	return NewStore(db, logger).WithCloser(client.Disconnect), nil
}

// NewStore wires the repositories over db.
func NewStore(db *mongo.Database, logger *zap.Logger) *repository.Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &repository.Store{
		Users:      &Users{coll: db.Collection(collUsers), logger: logger.Named("mongodb_users")},
		Properties: &Properties{coll: db.Collection(collProperties), units: db.Collection(collUnits)},
		Units:      &Units{coll: db.Collection(collUnits), logger: logger.Named("mongodb_units")},
		Rent:       &Rent{coll: db.Collection(collRent)},
		Tickets:    &Tickets{coll: db.Collection(collTickets), logger: logger.Named("mongodb_tickets")},
		Agreements: &Agreements{coll: db.Collection(collAgreements)},
		Payments:   &Payments{coll: db.Collection(collPayments)},
		Expenses:   &Expenses{coll: db.Collection(collExpenses)},
		Handovers:  &Handovers{coll: db.Collection(collHandovers)},
	}
}

// EnsureIndexes creates the lookup indexes and the uniqueness constraints the
// repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		collProperties: {{Keys: bson.D{{Key: "owner_id", Value: 1}}}},
		collUnits:      {{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}}}},
		collUsers:      {{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "role", Value: 1}}}},
		collRent: {
			{Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "period", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unit_period_unique")},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "property_id", Value: 1}}},
		},
		collTickets: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "property_id", Value: 1}}},
		},
		collAgreements: {
			{Keys: bson.D{{Key: "unit_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		collPayments:  {{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		collExpenses:  {{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "date", Value: -1}}}},
		collHandovers: {{Keys: bson.D{{Key: "unit_id", Value: 1}}}},
	}
	for coll, specs := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, what string, id string) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("%s %s not found", what, id)
		}
		return nil, fmt.Errorf("failed to find %s %s: %w", what, id, err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, sort bson.D) ([]T, error) {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// replaceVersioned reads a document, applies mutate and writes it back only if its
// version is still the one read, retrying up to maxUpdateAttempts times.
// version points at the document's version field.
func replaceVersioned[T any](
	ctx context.Context,
	coll *mongo.Collection,
	id, what string,
	version func(*T) *int64,
	mutate func(*T) error,
	logger *zap.Logger,
) (*T, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		doc, err := findOne[T](ctx, coll, bson.M{"_id": id}, what, id)
		if err != nil {
			return nil, err
		}
		expected := *version(doc)
		if err := mutate(doc); err != nil {
			return nil, err
		}
		*version(doc) = expected + 1

		res, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "version": expected}, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to update %s %s: %w", what, id, err)
		}
		if res.MatchedCount == 1 {
			return doc, nil
		}
		logger.Debug("document changed concurrently, retrying",
			zap.String("collection", coll.Name()),
			zap.String("id", id),
			zap.Int("attempt", attempt),
		)
	}
	return nil, apperr.Conflict("%s %s is being modified concurrently", what, id)
}
