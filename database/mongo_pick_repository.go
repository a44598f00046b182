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

// MongoPickRepository implements pick storage on MongoDB
type MongoPickRepository struct {
	collection *mongo.Collection
}

// NewMongoPickRepository creates a new MongoDB pick repository
func NewMongoPickRepository(db *MongoDB) *MongoPickRepository {
	collection := db.GetCollection("picks")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The unique (pool, user, gameweek) index is what makes the
	// submit-pick upsert a single conditional write instead of a
	// check-then-insert race.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "pool_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "gameweek", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "pool_id", Value: 1},
				{Key: "gameweek", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "pool_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "team_id", Value: 1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logging.Warnf("Could not create pick indexes: %v", err)
	}

	return &MongoPickRepository{collection: collection}
}

// Upsert inserts or updates the pick for (pool, user, gameweek) in one
// conditional write. Resubmitting the same gameweek replaces the team.
func (r *MongoPickRepository) Upsert(ctx context.Context, pick *models.Pick) error {
	filter := bson.M{
		"pool_id":  pick.PoolID,
		"user_id":  pick.UserID,
		"gameweek": pick.Gameweek,
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"team_id":    pick.TeamID,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"pool_id":    pick.PoolID,
			"user_id":    pick.UserID,
			"gameweek":   pick.Gameweek,
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert pick: %w", err)
	}
	return nil
}

// FindByPoolUserGameweek retrieves one user's pick for a gameweek
func (r *MongoPickRepository) FindByPoolUserGameweek(ctx context.Context, poolID primitive.ObjectID, userID, gameweek int) (*models.Pick, error) {
	filter := bson.M{
		"pool_id":  poolID,
		"user_id":  userID,
		"gameweek": gameweek,
	}

	var pick models.Pick
	err := r.collection.FindOne(ctx, filter).Decode(&pick)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pick: %w", err)
	}
	return &pick, nil
}

// FindTeamUse retrieves a pick where the user already used the team in
// a different gameweek of the same pool, if any
func (r *MongoPickRepository) FindTeamUse(ctx context.Context, poolID primitive.ObjectID, userID, teamID, excludeGameweek int) (*models.Pick, error) {
	filter := bson.M{
		"pool_id":  poolID,
		"user_id":  userID,
		"team_id":  teamID,
		"gameweek": bson.M{"$ne": excludeGameweek},
	}

	var pick models.Pick
	err := r.collection.FindOne(ctx, filter).Decode(&pick)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find historical pick: %w", err)
	}
	return &pick, nil
}

// FindByPoolAndUser retrieves a user's full pick history in a pool,
// ordered by gameweek
func (r *MongoPickRepository) FindByPoolAndUser(ctx context.Context, poolID primitive.ObjectID, userID int) ([]models.Pick, error) {
	filter := bson.M{
		"pool_id": poolID,
		"user_id": userID,
	}
	opts := options.Find().SetSort(bson.D{{Key: "gameweek", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find picks by pool and user: %w", err)
	}
	defer cursor.Close(ctx)

	var picks []models.Pick
	if err := cursor.All(ctx, &picks); err != nil {
		return nil, fmt.Errorf("failed to decode picks: %w", err)
	}
	return picks, nil
}

// FindByUserAndGameweek retrieves a user's picks for one gameweek
// across the given pools
func (r *MongoPickRepository) FindByUserAndGameweek(ctx context.Context, userID, gameweek int, poolIDs []primitive.ObjectID) ([]models.Pick, error) {
	if len(poolIDs) == 0 {
		return nil, nil
	}

	filter := bson.M{
		"user_id":  userID,
		"gameweek": gameweek,
		"pool_id":  bson.M{"$in": poolIDs},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find picks by user and gameweek: %w", err)
	}
	defer cursor.Close(ctx)

	var picks []models.Pick
	if err := cursor.All(ctx, &picks); err != nil {
		return nil, fmt.Errorf("failed to decode picks: %w", err)
	}
	return picks, nil
}

// FindByGameweek retrieves every pick for a gameweek across all pools.
// Used by the elimination pass after results are entered.
func (r *MongoPickRepository) FindByGameweek(ctx context.Context, gameweek int) ([]models.Pick, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"gameweek": gameweek})
	if err != nil {
		return nil, fmt.Errorf("failed to find picks by gameweek: %w", err)
	}
	defer cursor.Close(ctx)

	var picks []models.Pick
	if err := cursor.All(ctx, &picks); err != nil {
		return nil, fmt.Errorf("failed to decode picks: %w", err)
	}
	return picks, nil
}
