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

// MongoGameweekRepository implements gameweek deadline storage on MongoDB
type MongoGameweekRepository struct {
	collection *mongo.Collection
}

// NewMongoGameweekRepository creates a new MongoDB gameweek deadline repository
func NewMongoGameweekRepository(db *MongoDB) *MongoGameweekRepository {
	collection := db.GetCollection("gameweek_deadlines")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// One row per gameweek
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "gameweek", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "pick_deadline", Value: 1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logging.Warnf("Could not create gameweek deadline indexes: %v", err)
	}

	return &MongoGameweekRepository{collection: collection}
}

// UpsertMany writes deadline rows keyed on gameweek; repeated ingestion
// runs replace existing rows rather than duplicating them
func (r *MongoGameweekRepository) UpsertMany(ctx context.Context, deadlines []models.GameweekDeadline) (int, error) {
	if len(deadlines) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(deadlines))
	for _, deadline := range deadlines {
		model := mongo.NewUpdateOneModel().
			SetFilter(bson.M{"gameweek": deadline.Gameweek}).
			SetUpdate(bson.M{"$set": bson.M{
				"first_kickoff":   deadline.FirstKickoff,
				"pick_deadline":   deadline.PickDeadline,
				"odds_refresh_at": deadline.OddsRefreshAt,
			}}).
			SetUpsert(true)
		writes = append(writes, model)
	}

	if _, err := r.collection.BulkWrite(ctx, writes); err != nil {
		return 0, fmt.Errorf("failed to upsert gameweek deadlines: %w", err)
	}
	return len(deadlines), nil
}

// FindUpcoming returns the row with the earliest pick deadline at or
// after the given instant, or nil when none exists
func (r *MongoGameweekRepository) FindUpcoming(ctx context.Context, now time.Time) (*models.GameweekDeadline, error) {
	filter := bson.M{"pick_deadline": bson.M{"$gte": now}}
	opts := options.FindOne().SetSort(bson.D{{Key: "pick_deadline", Value: 1}})

	var deadline models.GameweekDeadline
	err := r.collection.FindOne(ctx, filter, opts).Decode(&deadline)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find upcoming gameweek: %w", err)
	}
	return &deadline, nil
}

// FindLastClosed returns the row with the latest pick deadline at or
// before the given instant, or nil when none exists
func (r *MongoGameweekRepository) FindLastClosed(ctx context.Context, now time.Time) (*models.GameweekDeadline, error) {
	filter := bson.M{"pick_deadline": bson.M{"$lte": now}}
	opts := options.FindOne().SetSort(bson.D{{Key: "pick_deadline", Value: -1}})

	var deadline models.GameweekDeadline
	err := r.collection.FindOne(ctx, filter, opts).Decode(&deadline)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find last closed gameweek: %w", err)
	}
	return &deadline, nil
}
