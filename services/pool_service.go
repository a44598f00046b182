package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"survivor-pool-go/cache"
	"survivor-pool-go/metrics"
	"survivor-pool-go/models"
)

// PoolRepository interface for pool data operations
type PoolRepository interface {
	Create(ctx context.Context, pool *models.Pool) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Pool, error)
	FindByCode(ctx context.Context, code string) (*models.Pool, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Pool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MemberRepository interface for pool membership data operations
type MemberRepository interface {
	Create(ctx context.Context, member *models.PoolMember) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PoolMember, error)
	FindByPoolAndUser(ctx context.Context, poolID primitive.ObjectID, userID int) (*models.PoolMember, error)
	FindByPool(ctx context.Context, poolID primitive.ObjectID) ([]models.PoolMember, error)
	FindByUser(ctx context.Context, userID int) ([]models.PoolMember, error)
	CountByPools(ctx context.Context, poolIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
	UpdateStanding(ctx context.Context, id primitive.ObjectID, lives int, status models.MemberStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PoolService handles pool creation, joining, and member management
type PoolService struct {
	poolRepo   PoolRepository
	memberRepo MemberRepository
	userRepo   UserRepository
	pageCache  *cache.PageCache
	appURL     string
}

// NewPoolService creates a new pool service
func NewPoolService(poolRepo PoolRepository, memberRepo MemberRepository, userRepo UserRepository, pageCache *cache.PageCache, appURL string) *PoolService {
	return &PoolService{
		poolRepo:   poolRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		pageCache:  pageCache,
		appURL:     appURL,
	}
}

// GeneratePoolCode builds a join code by mapping random bytes through
// the fixed alphabet. The modulo introduces slight non-uniformity,
// which is accepted for a join code.
func GeneratePoolCode() (string, error) {
	var code strings.Builder

	for code.Len() < models.PoolCodeLength {
		bytes := make([]byte, models.PoolCodeLength)
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("failed to generate pool code: %w", err)
		}
		for _, b := range bytes {
			if code.Len() >= models.PoolCodeLength {
				break
			}
			code.WriteByte(models.PoolCodeAlphabet[int(b)%len(models.PoolCodeAlphabet)])
		}
	}

	return code.String(), nil
}

// parseEntryFee turns the optional form value into a money amount.
// Blank or zero means the pool is free to enter.
func parseEntryFee(input string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "£"))
	if trimmed == "" {
		return nil, nil
	}

	fee, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, UserError("Entry fee must be an amount like 10 or 7.50.")
	}
	if fee.IsNegative() {
		return nil, UserError("Entry fee cannot be negative.")
	}
	if fee.IsZero() {
		return nil, nil
	}
	return &fee, nil
}

// CreatePool validates the pool details, inserts the pool, and adds the
// creator as its owner membership. A failed membership insert deletes
// the pool again so no ownerless pool is left behind.
func (s *PoolService) CreatePool(ctx context.Context, user *models.User, name string, lives int, entryFee string) (*models.Pool, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil, UserError("Pool name must be at least 3 characters long.")
	}
	if len(name) > 100 {
		return nil, UserError("Pool name is too long.")
	}
	if lives < 1 || lives > 3 {
		return nil, UserError("Lives must be between 1 and 3.")
	}

	fee, err := parseEntryFee(entryFee)
	if err != nil {
		return nil, err
	}

	code, err := GeneratePoolCode()
	if err != nil {
		return nil, err
	}

	pool := &models.Pool{
		Name:           name,
		Code:           code,
		CreatedBy:      user.ID,
		LivesPerPlayer: lives,
		EntryFee:       fee,
		CreatedAt:      time.Now(),
	}

	if err := s.poolRepo.Create(ctx, pool); err != nil {
		return nil, fmt.Errorf("pool insert failed: %w", err)
	}

	member := &models.PoolMember{
		PoolID:         pool.ID,
		UserID:         user.ID,
		Role:           models.RoleOwner,
		Status:         models.MemberStatusAlive,
		LivesRemaining: pool.LivesPerPlayer,
		JoinedAt:       time.Now(),
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		// Compensate so the pool does not exist without an owner
		if deleteErr := s.poolRepo.Delete(ctx, pool.ID); deleteErr != nil {
			return nil, fmt.Errorf("owner membership insert failed (%v) and pool cleanup failed: %w", err, deleteErr)
		}
		return nil, fmt.Errorf("owner membership insert failed: %w", err)
	}

	metrics.PoolsCreated.Inc()
	s.pageCache.Invalidate(ctx, cache.DashboardKey(user.ID))

	return pool, nil
}

// JoinPool resolves the pool from a join code or pool ID and inserts a
// membership with lives from the pool's configured value
func (s *PoolService) JoinPool(ctx context.Context, user *models.User, input string) (*models.Pool, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, UserError(fmt.Sprintf("Enter a %d-character code or pool ID.", models.PoolCodeLength))
	}

	pool, err := s.lookupPool(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, UserError("We could not find a pool with that code.")
	}

	existing, err := s.memberRepo.FindByPoolAndUser(ctx, pool.ID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("membership lookup failed: %w", err)
	}
	if existing != nil {
		return nil, UserError("You are already part of this pool.")
	}

	member := &models.PoolMember{
		PoolID:         pool.ID,
		UserID:         user.ID,
		Role:           models.RolePlayer,
		Status:         models.MemberStatusAlive,
		LivesRemaining: pool.LivesPerPlayer,
		JoinedAt:       time.Now(),
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("membership insert failed: %w", err)
	}

	metrics.PoolJoins.Inc()
	s.pageCache.Invalidate(ctx, cache.DashboardKey(user.ID))
	s.pageCache.InvalidatePool(ctx, pool.ID.Hex())

	return pool, nil
}

// lookupPool resolves a join input: values at the code length are
// uppercased and matched as codes, anything else is tried as a pool ID
// with an uppercased-code fallback
func (s *PoolService) lookupPool(ctx context.Context, input string) (*models.Pool, error) {
	if len(input) == models.PoolCodeLength {
		pool, err := s.poolRepo.FindByCode(ctx, strings.ToUpper(input))
		if err != nil {
			return nil, fmt.Errorf("pool lookup failed: %w", err)
		}
		return pool, nil
	}

	if id, err := primitive.ObjectIDFromHex(input); err == nil {
		pool, err := s.poolRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("pool lookup failed: %w", err)
		}
		if pool != nil {
			return pool, nil
		}
	}

	pool, err := s.poolRepo.FindByCode(ctx, strings.ToUpper(input))
	if err != nil {
		return nil, fmt.Errorf("pool lookup failed: %w", err)
	}
	return pool, nil
}

// RemoveMember deletes a membership. Only the pool's creator may
// remove members, and the creator can never be removed.
func (s *PoolService) RemoveMember(ctx context.Context, user *models.User, poolIDHex, membershipIDHex string) error {
	poolID, err := primitive.ObjectIDFromHex(poolIDHex)
	if err != nil {
		return UserError("Unable to load pool details.")
	}
	membershipID, err := primitive.ObjectIDFromHex(membershipIDHex)
	if err != nil {
		return UserError("Invalid member reference.")
	}

	pool, err := s.poolRepo.FindByID(ctx, poolID)
	if err != nil {
		return fmt.Errorf("pool lookup failed: %w", err)
	}
	if pool == nil {
		return UserError("Unable to load pool details.")
	}

	if pool.CreatedBy != user.ID {
		return UserError("Only the pool owner can remove members.")
	}

	membership, err := s.memberRepo.FindByID(ctx, membershipID)
	if err != nil {
		return fmt.Errorf("membership lookup failed: %w", err)
	}
	if membership == nil || membership.PoolID != poolID {
		return UserError("Member not found.")
	}

	if membership.UserID == pool.CreatedBy {
		return UserError("You cannot remove the pool owner.")
	}

	if err := s.memberRepo.Delete(ctx, membership.ID); err != nil {
		return fmt.Errorf("membership delete failed: %w", err)
	}

	s.pageCache.Invalidate(ctx, cache.DashboardKey(membership.UserID), cache.DashboardKey(user.ID))
	s.pageCache.InvalidatePool(ctx, poolID.Hex())

	return nil
}

// ShareMessage builds the invite text for a pool
func (s *PoolService) ShareMessage(ctx context.Context, poolIDHex string) (string, error) {
	poolID, err := primitive.ObjectIDFromHex(poolIDHex)
	if err != nil {
		return "", UserError("Unable to load pool details. Copy the code manually.")
	}

	pool, err := s.poolRepo.FindByID(ctx, poolID)
	if err != nil || pool == nil {
		return "", UserError("Unable to load pool details. Copy the code manually.")
	}

	name := pool.Name
	if name == "" {
		name = "Survivor Pool"
	}
	joinURL := strings.TrimRight(s.appURL, "/") + "/pool/join"

	message := fmt.Sprintf("Join our PL Survivor Pool: %s\nPool Code: %s\nSign up at %s and use the code to enter.",
		name, pool.Code, joinURL)
	return message, nil
}

// MembershipView is one pool card on the dashboard
type MembershipView struct {
	MembershipID    string
	PoolID          string
	PoolName        string
	PoolCode        string
	LivesPerPlayer  int
	Role            models.PoolRole
	Status          models.MemberStatus
	LivesRemaining  int
	MembersCount    int
	CurrentPickTeam string
}

// PickLookup is the subset of pick data the dashboard needs
type PickLookup interface {
	FindByUserAndGameweek(ctx context.Context, userID, gameweek int, poolIDs []primitive.ObjectID) ([]models.Pick, error)
}

// TeamLookup resolves team reference data
type TeamLookup interface {
	FindByIDs(ctx context.Context, ids []int) ([]models.Team, error)
}

// DashboardMemberships assembles the user's pool cards: pool details,
// member counts, and the user's pick for the current pick gameweek
func (s *PoolService) DashboardMemberships(ctx context.Context, userID, pickGameweek int, picks PickLookup, teams TeamLookup) ([]MembershipView, error) {
	memberships, err := s.memberRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("membership lookup failed: %w", err)
	}
	if len(memberships) == 0 {
		return nil, nil
	}

	poolIDs := make([]primitive.ObjectID, 0, len(memberships))
	for _, membership := range memberships {
		poolIDs = append(poolIDs, membership.PoolID)
	}

	pools, err := s.poolRepo.FindByIDs(ctx, poolIDs)
	if err != nil {
		return nil, fmt.Errorf("pools lookup failed: %w", err)
	}
	poolsByID := make(map[primitive.ObjectID]models.Pool, len(pools))
	for _, pool := range pools {
		poolsByID[pool.ID] = pool
	}

	counts, err := s.memberRepo.CountByPools(ctx, poolIDs)
	if err != nil {
		return nil, fmt.Errorf("member counts failed: %w", err)
	}

	currentPicks, err := picks.FindByUserAndGameweek(ctx, userID, pickGameweek, poolIDs)
	if err != nil {
		return nil, fmt.Errorf("current picks lookup failed: %w", err)
	}

	teamIDs := make([]int, 0, len(currentPicks))
	for _, pick := range currentPicks {
		teamIDs = append(teamIDs, pick.TeamID)
	}
	teamRows, err := teams.FindByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("teams lookup failed: %w", err)
	}
	teamNames := make(map[int]string, len(teamRows))
	for _, team := range teamRows {
		teamNames[team.ID] = team.Name
	}

	pickByPool := make(map[primitive.ObjectID]string, len(currentPicks))
	for _, pick := range currentPicks {
		pickByPool[pick.PoolID] = teamNames[pick.TeamID]
	}

	views := make([]MembershipView, 0, len(memberships))
	for _, membership := range memberships {
		view := MembershipView{
			MembershipID:    membership.ID.Hex(),
			PoolID:          membership.PoolID.Hex(),
			Role:            membership.Role,
			Status:          membership.Status,
			LivesRemaining:  membership.LivesRemaining,
			MembersCount:    counts[membership.PoolID],
			CurrentPickTeam: pickByPool[membership.PoolID],
		}
		if pool, ok := poolsByID[membership.PoolID]; ok {
			view.PoolName = pool.Name
			view.PoolCode = pool.Code
			view.LivesPerPlayer = pool.LivesPerPlayer
		} else {
			view.PoolName = "Pool " + membership.PoolID.Hex()
		}
		views = append(views, view)
	}

	return views, nil
}

// PoolDetail is everything the pool page renders
type PoolDetail struct {
	Pool       *models.Pool
	Membership *models.PoolMember
	Members    []models.PoolMember
	IsOwner    bool
	PrizePot   *decimal.Decimal
}

// prizePot is the explicit pot when one has been set on the pool,
// otherwise the entry fee times the current head count. Free pools
// have no pot.
func prizePot(pool *models.Pool, memberCount int) *decimal.Decimal {
	if pool.PrizePool != nil {
		return pool.PrizePool
	}
	if pool.EntryFee == nil {
		return nil
	}
	pot := pool.EntryFee.Mul(decimal.NewFromInt(int64(memberCount)))
	return &pot
}

// GetPoolDetail loads the pool page data for a member. Non-members get
// a denial rather than the pool contents.
func (s *PoolService) GetPoolDetail(ctx context.Context, user *models.User, poolIDHex string) (*PoolDetail, error) {
	poolID, err := primitive.ObjectIDFromHex(poolIDHex)
	if err != nil {
		return nil, UserError("Unable to load pool details.")
	}

	pool, err := s.poolRepo.FindByID(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("pool lookup failed: %w", err)
	}
	if pool == nil {
		return nil, UserError("Unable to load pool details.")
	}

	membership, err := s.memberRepo.FindByPoolAndUser(ctx, poolID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("membership lookup failed: %w", err)
	}
	if membership == nil {
		return nil, UserError("You are not a member of this pool.")
	}

	members, err := s.memberRepo.FindByPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("members lookup failed: %w", err)
	}

	userIDs := make([]int, 0, len(members))
	for _, member := range members {
		userIDs = append(userIDs, member.UserID)
	}
	users, err := s.userRepo.GetUsersByIDs(userIDs)
	if err != nil {
		return nil, fmt.Errorf("member users lookup failed: %w", err)
	}
	namesByID := make(map[int]string, len(users))
	for _, u := range users {
		namesByID[u.ID] = u.Name
	}
	for i := range members {
		members[i].UserName = namesByID[members[i].UserID]
	}

	return &PoolDetail{
		Pool:       pool,
		Membership: membership,
		Members:    members,
		IsOwner:    pool.CreatedBy == user.ID,
		PrizePot:   prizePot(pool, len(members)),
	}, nil
}
