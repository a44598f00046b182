package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"survivor-pool-go/logging"
	"survivor-pool-go/models"
)

// MongoResultRepository implements team result storage on MongoDB
type MongoResultRepository struct {
	collection *mongo.Collection
}

// NewMongoResultRepository creates a new MongoDB result repository
func NewMongoResultRepository(db *MongoDB) *MongoResultRepository {
	collection := db.GetCollection("results")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "gameweek", Value: 1},
				{Key: "team_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logging.Warnf("Could not create result indexes: %v", err)
	}

	return &MongoResultRepository{collection: collection}
}

// UpsertMany writes results keyed on (gameweek, team_id); corrections
// overwrite the earlier entry
func (r *MongoResultRepository) UpsertMany(ctx context.Context, results []models.TeamResult) error {
	if len(results) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(results))
	for _, result := range results {
		filter := bson.M{
			"gameweek": result.Gameweek,
			"team_id":  result.TeamID,
		}
		model := mongo.NewReplaceOneModel().
			SetFilter(filter).
			SetReplacement(result).
			SetUpsert(true)
		writes = append(writes, model)
	}

	if _, err := r.collection.BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to upsert results: %w", err)
	}
	return nil
}

// FindAll retrieves every result entered so far, sorted by gameweek
func (r *MongoResultRepository) FindAll(ctx context.Context) ([]models.TeamResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "gameweek", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find results: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.TeamResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return results, nil
}

// FindByGameweek retrieves all results entered for a gameweek
func (r *MongoResultRepository) FindByGameweek(ctx context.Context, gameweek int) ([]models.TeamResult, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"gameweek": gameweek})
	if err != nil {
		return nil, fmt.Errorf("failed to find results by gameweek: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.TeamResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return results, nil
}
