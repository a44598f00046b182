package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pick represents a user's chosen team for a gameweek within a pool.
// At most one pick exists per (pool, user, gameweek), enforced by a
// unique index and upsert-by-key writes.
type Pick struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PoolID    primitive.ObjectID `json:"pool_id" bson:"pool_id"`
	UserID    int                `json:"user_id" bson:"user_id"`
	Gameweek  int                `json:"gameweek" bson:"gameweek"`
	TeamID    int                `json:"team_id" bson:"team_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`

	// Display fields (populated by the service layer for UI)
	TeamName string `bson:"-" json:"team_name"`
}

// Team represents static team reference data; not mutated by the app
type Team struct {
	ID   int    `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}
