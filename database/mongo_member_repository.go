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

// MongoMemberRepository implements pool membership storage on MongoDB
type MongoMemberRepository struct {
	collection *mongo.Collection
}

// NewMongoMemberRepository creates a new MongoDB pool member repository
func NewMongoMemberRepository(db *MongoDB) *MongoMemberRepository {
	collection := db.GetCollection("pool_members")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// One membership per (pool, user); duplicate joins fail at the index
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "pool_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logging.Warnf("Could not create pool member indexes: %v", err)
	}

	return &MongoMemberRepository{collection: collection}
}

// Create inserts a new membership and fills in its generated ID
func (r *MongoMemberRepository) Create(ctx context.Context, member *models.PoolMember) error {
	result, err := r.collection.InsertOne(ctx, member)
	if err != nil {
		return fmt.Errorf("failed to create pool member: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		member.ID = oid
	}
	return nil
}

// FindByID retrieves a membership by its ID
func (r *MongoMemberRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PoolMember, error) {
	var member models.PoolMember
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find member by ID: %w", err)
	}
	return &member, nil
}

// FindByPoolAndUser retrieves one user's membership in one pool
func (r *MongoMemberRepository) FindByPoolAndUser(ctx context.Context, poolID primitive.ObjectID, userID int) (*models.PoolMember, error) {
	filter := bson.M{
		"pool_id": poolID,
		"user_id": userID,
	}

	var member models.PoolMember
	err := r.collection.FindOne(ctx, filter).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find member by pool and user: %w", err)
	}
	return &member, nil
}

// FindByPool retrieves all memberships of a pool, oldest join first
func (r *MongoMemberRepository) FindByPool(ctx context.Context, poolID primitive.ObjectID) ([]models.PoolMember, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"pool_id": poolID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find members by pool: %w", err)
	}
	defer cursor.Close(ctx)

	var members []models.PoolMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	return members, nil
}

// FindByUser retrieves all of a user's memberships across pools
func (r *MongoMemberRepository) FindByUser(ctx context.Context, userID int) ([]models.PoolMember, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to find members by user: %w", err)
	}
	defer cursor.Close(ctx)

	var members []models.PoolMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	return members, nil
}

// CountByPools returns the member count for each of the given pools
func (r *MongoMemberRepository) CountByPools(ctx context.Context, poolIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	counts := make(map[primitive.ObjectID]int)
	if len(poolIDs) == 0 {
		return counts, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"pool_id": bson.M{"$in": poolIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to count members by pools: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var member models.PoolMember
		if err := cursor.Decode(&member); err != nil {
			return nil, fmt.Errorf("failed to decode member: %w", err)
		}
		counts[member.PoolID]++
	}
	return counts, nil
}

// UpdateStanding sets a member's remaining lives and status
func (r *MongoMemberRepository) UpdateStanding(ctx context.Context, id primitive.ObjectID, lives int, status models.MemberStatus) error {
	update := bson.M{"$set": bson.M{
		"lives_remaining": lives,
		"status":          status,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update member standing: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("member %s not found", id.Hex())
	}
	return nil
}

// Delete removes a membership. Hard delete; pick history is retained.
func (r *MongoMemberRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("member %s not found", id.Hex())
	}
	return nil
}
