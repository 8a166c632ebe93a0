package repository

import (
	"context"
	"fmt"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/repository/entity"
	"cartesian-metadata-app/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStoreRepository implements StoreRepository using MongoDB
type MongoStoreRepository struct {
	collection *mongo.Collection
}

// NewMongoStoreRepository creates a new MongoDB store repository
func NewMongoStoreRepository(db *mongo.Database) ports.StoreRepository {
	return &MongoStoreRepository{
		collection: db.Collection("stores"),
	}
}

// Migrate creates the unique index on shopDomain
func (r *MongoStoreRepository) Migrate(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopDomain", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create stores index: %w", err)
	}
	return nil
}

// InsertIfAbsent inserts store only when no record exists for its domain
func (r *MongoStoreRepository) InsertIfAbsent(ctx context.Context, store *domain.Store) (bool, error) {
	doc := entity.MongoStoreDocFromDomain(store)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shopDomain": store.ShopDomain}
	update := bson.M{"$setOnInsert": doc}

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// lost a concurrent upsert race; the record exists
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert store: %w", err)
	}

	return result.UpsertedCount > 0, nil
}

// GetByDomain retrieves a store by shop domain
func (r *MongoStoreRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Store, error) {
	var doc entity.MongoStoreDoc
	filter := bson.M{"shopDomain": shopDomain}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	return doc.ToDomain(), nil
}

// List retrieves all stores ordered by domain
func (r *MongoStoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	opts := options.Find().SetSort(bson.D{{Key: "shopDomain", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer cursor.Close(ctx)

	var stores []*domain.Store
	for cursor.Next(ctx) {
		var doc entity.MongoStoreDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode store: %w", err)
		}
		stores = append(stores, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return stores, nil
}

// UpdatePlan sets the plan of a store
func (r *MongoStoreRepository) UpdatePlan(ctx context.Context, shopDomain string, plan domain.Plan) error {
	filter := bson.M{"shopDomain": shopDomain}
	update := bson.M{"$set": bson.M{"plan": string(plan)}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if result.MatchedCount == 0 {
		return &domain.ErrNotFound{Resource: "store", ID: shopDomain}
	}
	return nil
}

// RecordUsage adds n to the usage counter in a single server-side update.
// The pipeline restarts the window when lastReset is older than the usage window.
func (r *MongoStoreRepository) RecordUsage(ctx context.Context, shopDomain string, n int, now time.Time) (*domain.Store, error) {
	now = now.UTC()
	expired := bson.D{{Key: "$lte", Value: bson.A{"$lastReset", now.Add(-domain.UsageWindow)}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "metafieldsCreated", Value: bson.D{{Key: "$cond", Value: bson.A{
				expired,
				n,
				bson.D{{Key: "$add", Value: bson.A{"$metafieldsCreated", n}}},
			}}}},
			{Key: "lastReset", Value: bson.D{{Key: "$cond", Value: bson.A{expired, now, "$lastReset"}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc entity.MongoStoreDoc
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"shopDomain": shopDomain}, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, &domain.ErrNotFound{Resource: "store", ID: shopDomain}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	return doc.ToDomain(), nil
}

// ResetUsage zeroes the usage counter and restarts the window at now
func (r *MongoStoreRepository) ResetUsage(ctx context.Context, shopDomain string, now time.Time) error {
	filter := bson.M{"shopDomain": shopDomain}
	update := bson.M{"$set": bson.M{"metafieldsCreated": 0, "lastReset": now.UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	if result.MatchedCount == 0 {
		return &domain.ErrNotFound{Resource: "store", ID: shopDomain}
	}
	return nil
}
