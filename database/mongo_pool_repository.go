package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"survivor-pool-go/logging"
	"survivor-pool-go/models"
)

// MongoPoolRepository implements pool storage on MongoDB
type MongoPoolRepository struct {
	collection *mongo.Collection
}

// NewMongoPoolRepository creates a new MongoDB pool repository
func NewMongoPoolRepository(db *MongoDB) *MongoPoolRepository {
	collection := db.GetCollection("pools")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The unique code index backs the assumption that a join code looks
	// up exactly one pool; a collision at insert time surfaces as a
	// duplicate key error.
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_by", Value: 1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logging.Warnf("Could not create pool indexes: %v", err)
	}

	return &MongoPoolRepository{collection: collection}
}

// Create inserts a new pool and fills in its generated ID
func (r *MongoPoolRepository) Create(ctx context.Context, pool *models.Pool) error {
	result, err := r.collection.InsertOne(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		pool.ID = oid
	}
	return nil
}

// FindByID retrieves a pool by its ID
func (r *MongoPoolRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Pool, error) {
	var pool models.Pool
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pool)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pool by ID: %w", err)
	}
	return &pool, nil
}

// FindByCode retrieves a pool by its join code
func (r *MongoPoolRepository) FindByCode(ctx context.Context, code string) (*models.Pool, error) {
	var pool models.Pool
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&pool)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pool by code: %w", err)
	}
	return &pool, nil
}

// FindByIDs retrieves all pools matching the given IDs
func (r *MongoPoolRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Pool, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find pools by IDs: %w", err)
	}
	defer cursor.Close(ctx)

	var pools []models.Pool
	if err := cursor.All(ctx, &pools); err != nil {
		return nil, fmt.Errorf("failed to decode pools: %w", err)
	}
	return pools, nil
}

// Delete removes a pool. Used as the compensating write when the owner
// membership insert fails after pool creation.
func (r *MongoPoolRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete pool: %w", err)
	}
	return nil
}
