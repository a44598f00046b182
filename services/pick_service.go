package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"survivor-pool-go/cache"
	"survivor-pool-go/metrics"
	"survivor-pool-go/models"
)

// PickRepository interface for pick data operations
type PickRepository interface {
	Upsert(ctx context.Context, pick *models.Pick) error
	FindByPoolUserGameweek(ctx context.Context, poolID primitive.ObjectID, userID, gameweek int) (*models.Pick, error)
	FindTeamUse(ctx context.Context, poolID primitive.ObjectID, userID, teamID, excludeGameweek int) (*models.Pick, error)
	FindByPoolAndUser(ctx context.Context, poolID primitive.ObjectID, userID int) ([]models.Pick, error)
	FindByUserAndGameweek(ctx context.Context, userID, gameweek int, poolIDs []primitive.ObjectID) ([]models.Pick, error)
}

// TeamRepository interface for team reference data
type TeamRepository interface {
	GetAll(ctx context.Context) ([]models.Team, error)
	FindByID(ctx context.Context, id int) (*models.Team, error)
	FindByIDs(ctx context.Context, ids []int) ([]models.Team, error)
}

// PickService handles survivor pick submission and history
type PickService struct {
	pickRepo   PickRepository
	memberRepo MemberRepository
	teamRepo   TeamRepository
	pageCache  *cache.PageCache
}

// NewPickService creates a new pick service
func NewPickService(pickRepo PickRepository, memberRepo MemberRepository, teamRepo TeamRepository, pageCache *cache.PageCache) *PickService {
	return &PickService{
		pickRepo:   pickRepo,
		memberRepo: memberRepo,
		teamRepo:   teamRepo,
		pageCache:  pageCache,
	}
}

// SubmitPick records the user's team for a gameweek. A resubmission for
// the same gameweek replaces the earlier pick via a single upsert keyed
// on (pool, user, gameweek), so two concurrent submissions can never
// produce duplicate rows. Returns the confirmation message on success.
func (s *PickService) SubmitPick(ctx context.Context, user *models.User, poolIDHex string, teamID, gameweek int) (string, error) {
	if gameweek < 1 {
		metrics.PicksRejected.WithLabelValues("invalid_gameweek").Inc()
		return "", UserError("Gameweek must be positive.")
	}

	poolID, err := primitive.ObjectIDFromHex(poolIDHex)
	if err != nil {
		metrics.PicksRejected.WithLabelValues("invalid_pool").Inc()
		return "", UserError("Pool is required.")
	}

	membership, err := s.memberRepo.FindByPoolAndUser(ctx, poolID, user.ID)
	if err != nil {
		return "", fmt.Errorf("membership lookup failed: %w", err)
	}
	if membership == nil {
		metrics.PicksRejected.WithLabelValues("not_member").Inc()
		return "", UserError("You are not a member of this pool.")
	}

	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return "", fmt.Errorf("team lookup failed: %w", err)
	}
	if team == nil {
		metrics.PicksRejected.WithLabelValues("unknown_team").Inc()
		return "", UserError("Selected team could not be found.")
	}

	// One use per team per season, in any other gameweek. Only the
	// submitted gameweek is excluded so a player can re-confirm or
	// change their own pick.
	prior, err := s.pickRepo.FindTeamUse(ctx, poolID, user.ID, teamID, gameweek)
	if err != nil {
		return "", fmt.Errorf("team reuse lookup failed: %w", err)
	}
	if prior != nil {
		metrics.PicksRejected.WithLabelValues("team_reused").Inc()
		return "", UserError("You have already used this team earlier in the season.")
	}

	pick := &models.Pick{
		PoolID:    poolID,
		UserID:    user.ID,
		Gameweek:  gameweek,
		TeamID:    teamID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.pickRepo.Upsert(ctx, pick); err != nil {
		return "", fmt.Errorf("pick upsert failed: %w", err)
	}

	metrics.PicksSubmitted.Inc()
	s.pageCache.Invalidate(ctx, cache.DashboardKey(user.ID))
	s.pageCache.InvalidatePool(ctx, poolIDHex)

	return fmt.Sprintf("%s locked in for GW%d.", team.Name, gameweek), nil
}

// PickHistory returns the user's picks in a pool with team names
// resolved, ordered by gameweek
func (s *PickService) PickHistory(ctx context.Context, poolIDHex string, userID int) ([]models.Pick, error) {
	poolID, err := primitive.ObjectIDFromHex(poolIDHex)
	if err != nil {
		return nil, UserError("Unable to load pool details.")
	}

	picks, err := s.pickRepo.FindByPoolAndUser(ctx, poolID, userID)
	if err != nil {
		return nil, fmt.Errorf("pick history lookup failed: %w", err)
	}
	if len(picks) == 0 {
		return nil, nil
	}

	teamIDs := make([]int, 0, len(picks))
	for _, pick := range picks {
		teamIDs = append(teamIDs, pick.TeamID)
	}
	teams, err := s.teamRepo.FindByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("teams lookup failed: %w", err)
	}
	names := make(map[int]string, len(teams))
	for _, team := range teams {
		names[team.ID] = team.Name
	}
	for i := range picks {
		picks[i].TeamName = names[picks[i].TeamID]
	}

	return picks, nil
}

// CurrentPick returns the user's pick for a gameweek in a pool, or nil
func (s *PickService) CurrentPick(ctx context.Context, poolIDHex string, userID, gameweek int) (*models.Pick, error) {
	poolID, err := primitive.ObjectIDFromHex(poolIDHex)
	if err != nil {
		return nil, UserError("Unable to load pool details.")
	}

	pick, err := s.pickRepo.FindByPoolUserGameweek(ctx, poolID, userID, gameweek)
	if err != nil {
		return nil, fmt.Errorf("pick lookup failed: %w", err)
	}
	if pick == nil {
		return nil, nil
	}

	team, err := s.teamRepo.FindByID(ctx, pick.TeamID)
	if err == nil && team != nil {
		pick.TeamName = team.Name
	}

	return pick, nil
}

// UsedTeamIDs returns the set of teams the user has already picked in
// this pool, used to grey out the pick form options
func (s *PickService) UsedTeamIDs(ctx context.Context, poolIDHex string, userID, currentGameweek int) (map[int]bool, error) {
	poolID, err := primitive.ObjectIDFromHex(poolIDHex)
	if err != nil {
		return nil, UserError("Unable to load pool details.")
	}

	picks, err := s.pickRepo.FindByPoolAndUser(ctx, poolID, userID)
	if err != nil {
		return nil, fmt.Errorf("pick history lookup failed: %w", err)
	}

	used := make(map[int]bool, len(picks))
	for _, pick := range picks {
		if pick.Gameweek != currentGameweek {
			used[pick.TeamID] = true
		}
	}
	return used, nil
}
