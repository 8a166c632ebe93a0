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

// MongoSessionRepository implements SessionRepository using MongoDB
type MongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new MongoDB session repository
func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{
		collection: db.Collection("sessions"),
	}
}

var _ ports.SessionRepository = (*MongoSessionRepository)(nil)

// Migrate creates the unique index on shop
func (r *MongoSessionRepository) Migrate(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shop", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create sessions index: %w", err)
	}
	return nil
}

// Save saves or replaces the session of a shop
func (r *MongoSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	doc := entity.MongoSessionDocFromDomain(session)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": session.Shop}
	update := bson.M{
		"$set": bson.M{
			"accessToken": doc.AccessToken,
			"scopes":      doc.Scopes,
			"updatedAt":   doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"shop":      doc.Shop,
			"createdAt": doc.CreatedAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get retrieves the session of a shop
func (r *MongoSessionRepository) Get(ctx context.Context, shop string) (*domain.Session, error) {
	var doc entity.MongoSessionDoc
	filter := bson.M{"shop": shop}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return doc.ToDomain(), nil
}

// Delete removes the session of a shop. Deleting a missing session is not an error.
func (r *MongoSessionRepository) Delete(ctx context.Context, shop string) error {
	filter := bson.M{"shop": shop}
	if _, err := r.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
