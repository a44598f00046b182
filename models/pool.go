package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PoolCodeLength is the fixed length of generated join codes
const PoolCodeLength = 6

// PoolCodeAlphabet is the fixed alphabet join codes are drawn from
const PoolCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Pool represents one elimination contest across a season
type Pool struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Code           string             `json:"code" bson:"code"`
	CreatedBy      int                `json:"created_by" bson:"created_by"`
	LivesPerPlayer int                `json:"lives_per_player" bson:"lives_per_player"`
	EntryFee       *decimal.Decimal   `json:"entry_fee,omitempty" bson:"entry_fee,omitempty"`
	PrizePool      *decimal.Decimal   `json:"prize_pool,omitempty" bson:"prize_pool,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// PoolRole represents a member's role within a pool.
// The running application only distinguishes owner from everyone else,
// but the richer enumeration is kept for display purposes.
type PoolRole string

const (
	RoleOwner  PoolRole = "owner"
	RoleAdmin  PoolRole = "admin"
	RolePlayer PoolRole = "player"
	RoleViewer PoolRole = "viewer"
)

// NormalizeRole maps an arbitrary string to a known role, or empty
func NormalizeRole(role string) PoolRole {
	switch PoolRole(role) {
	case RoleOwner, RoleAdmin, RolePlayer, RoleViewer:
		return PoolRole(role)
	}
	return ""
}

// FormatRole returns a display label for the role
func FormatRole(role PoolRole) string {
	switch role {
	case RoleOwner:
		return "Owner"
	case RoleAdmin:
		return "Admin"
	case RolePlayer:
		return "Player"
	case RoleViewer:
		return "Viewer"
	}
	return "--"
}

// IsOwner reports whether the role is the pool owner
func (r PoolRole) IsOwner() bool {
	return r == RoleOwner
}

// IsAdmin reports whether the role carries admin rights
func (r PoolRole) IsAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

// MemberStatus represents a member's standing in the pool
type MemberStatus string

const (
	MemberStatusAlive      MemberStatus = "alive"
	MemberStatusEliminated MemberStatus = "eliminated"
)

// PoolMember represents one user's membership in one pool
type PoolMember struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PoolID         primitive.ObjectID `json:"pool_id" bson:"pool_id"`
	UserID         int                `json:"user_id" bson:"user_id"`
	Role           PoolRole           `json:"role" bson:"role"`
	Status         MemberStatus       `json:"status" bson:"status"`
	LivesRemaining int                `json:"lives_remaining" bson:"lives_remaining"`
	JoinedAt       time.Time          `json:"joined_at" bson:"joined_at"`

	// Display fields (populated by the service layer for UI)
	UserName string `bson:"-" json:"user_name"`
}

// IsAlive reports whether the member still has lives left
func (m *PoolMember) IsAlive() bool {
	return m.Status == MemberStatusAlive
}
