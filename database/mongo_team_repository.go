package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"survivor-pool-go/models"
)

// MongoTeamRepository implements team reference data storage on MongoDB
type MongoTeamRepository struct {
	collection *mongo.Collection
}

// NewMongoTeamRepository creates a new MongoDB team repository
func NewMongoTeamRepository(db *MongoDB) *MongoTeamRepository {
	return &MongoTeamRepository{collection: db.GetCollection("teams")}
}

// GetAll retrieves all teams ordered by name
func (r *MongoTeamRepository) GetAll(ctx context.Context) ([]models.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find teams: %w", err)
	}
	defer cursor.Close(ctx)

	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}
	return teams, nil
}

// FindByID retrieves a team by ID
func (r *MongoTeamRepository) FindByID(ctx context.Context, id int) (*models.Team, error) {
	var team models.Team
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team by ID: %w", err)
	}
	return &team, nil
}

// FindByIDs retrieves all teams matching the given IDs
func (r *MongoTeamRepository) FindByIDs(ctx context.Context, ids []int) ([]models.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find teams by IDs: %w", err)
	}
	defer cursor.Close(ctx)

	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}
	return teams, nil
}

// Count returns the number of stored teams
func (r *MongoTeamRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

// CreateMany inserts teams in batch; used by the startup seeder
func (r *MongoTeamRepository) CreateMany(ctx context.Context, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}

	docs := make([]interface{}, len(teams))
	for i, team := range teams {
		docs[i] = team
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create teams batch: %w", err)
	}
	return nil
}
