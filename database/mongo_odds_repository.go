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

// MongoOddsRepository implements odds snapshot and game odds storage on MongoDB
type MongoOddsRepository struct {
	snapshots *mongo.Collection
	gameOdds  *mongo.Collection
}

// NewMongoOddsRepository creates a new MongoDB odds repository
func NewMongoOddsRepository(db *MongoDB) *MongoOddsRepository {
	snapshots := db.GetCollection("odds_snapshots")
	gameOdds := db.GetCollection("game_odds")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshotIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "gameweek", Value: 1},
				{Key: "taken_at", Value: -1},
			},
		},
	}
	if _, err := snapshots.Indexes().CreateMany(ctx, snapshotIndexes); err != nil {
		logging.Warnf("Could not create odds snapshot indexes: %v", err)
	}

	// Upserts within a snapshot are idempotent on this key
	oddsIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "snapshot_id", Value: 1},
				{Key: "event_id", Value: 1},
				{Key: "bookmaker", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := gameOdds.Indexes().CreateMany(ctx, oddsIndexes); err != nil {
		logging.Warnf("Could not create game odds indexes: %v", err)
	}

	return &MongoOddsRepository{
		snapshots: snapshots,
		gameOdds:  gameOdds,
	}
}

// InsertSnapshot records one ingestion run
func (r *MongoOddsRepository) InsertSnapshot(ctx context.Context, snapshot *models.OddsSnapshot) error {
	if _, err := r.snapshots.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert odds snapshot: %w", err)
	}
	return nil
}

// LatestSnapshotForGameweek returns the most recent snapshot for the
// gameweek, or nil when odds have never been ingested for it
func (r *MongoOddsRepository) LatestSnapshotForGameweek(ctx context.Context, gameweek int) (*models.OddsSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "taken_at", Value: -1}})

	var snapshot models.OddsSnapshot
	err := r.snapshots.FindOne(ctx, bson.M{"gameweek": gameweek}, opts).Decode(&snapshot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest snapshot: %w", err)
	}
	return &snapshot, nil
}

// UpsertGameOdds bulk-writes odds rows keyed on (snapshot, event,
// bookmaker) so repeated runs within one snapshot do not duplicate rows
func (r *MongoOddsRepository) UpsertGameOdds(ctx context.Context, rows []models.GameOdds) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, row := range rows {
		filter := bson.M{
			"snapshot_id": row.SnapshotID,
			"event_id":    row.EventID,
			"bookmaker":   row.Bookmaker,
		}
		model := mongo.NewReplaceOneModel().
			SetFilter(filter).
			SetReplacement(row).
			SetUpsert(true)
		writes = append(writes, model)
	}

	result, err := r.gameOdds.BulkWrite(ctx, writes)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert game odds: %w", err)
	}
	return int(result.UpsertedCount + result.MatchedCount), nil
}

// FindBySnapshot retrieves all odds rows of one snapshot ordered by
// kickoff time
func (r *MongoOddsRepository) FindBySnapshot(ctx context.Context, snapshotID string) ([]models.GameOdds, error) {
	opts := options.Find().SetSort(bson.D{{Key: "commence_time", Value: 1}})

	cursor, err := r.gameOdds.Find(ctx, bson.M{"snapshot_id": snapshotID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find game odds by snapshot: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.GameOdds
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode game odds: %w", err)
	}
	return rows, nil
}
