package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"survivor-pool-go/cache"
	"survivor-pool-go/logging"
	"survivor-pool-go/models"
)

// ResultRepository interface for match result storage
type ResultRepository interface {
	UpsertMany(ctx context.Context, results []models.TeamResult) error
	FindAll(ctx context.Context) ([]models.TeamResult, error)
	FindByGameweek(ctx context.Context, gameweek int) ([]models.TeamResult, error)
}

// GameweekPickLookup loads every pick made for a gameweek across pools
type GameweekPickLookup interface {
	FindByGameweek(ctx context.Context, gameweek int) ([]models.Pick, error)
}

// ResultService stores match results and maintains member standings.
// Standings are recomputed from the full result history rather than
// decremented in place, so re-entering a corrected result converges to
// the right lives count instead of double-counting the loss.
type ResultService struct {
	resultRepo ResultRepository
	poolRepo   PoolRepository
	memberRepo MemberRepository
	pickRepo   GameweekPickLookup
	pageCache  *cache.PageCache
	logger     *logging.Logger
}

// NewResultService creates a new result service
func NewResultService(resultRepo ResultRepository, poolRepo PoolRepository, memberRepo MemberRepository, pickRepo GameweekPickLookup, pageCache *cache.PageCache) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		poolRepo:   poolRepo,
		memberRepo: memberRepo,
		pickRepo:   pickRepo,
		pageCache:  pageCache,
		logger:     logging.WithPrefix("ResultService"),
	}
}

// SaveResults validates and stores a batch of results for one
// gameweek, then recomputes standings in every affected pool
func (s *ResultService) SaveResults(ctx context.Context, gameweek int, entries []models.TeamResult) error {
	if gameweek < 1 {
		return UserError("Gameweek must be positive.")
	}
	if len(entries) == 0 {
		return UserError("Enter at least one result.")
	}

	now := time.Now()
	for i := range entries {
		if !entries[i].Result.Valid() {
			return UserError("Results must be W, D, or L.")
		}
		entries[i].Gameweek = gameweek
		if entries[i].MatchDate.IsZero() {
			entries[i].MatchDate = now
		}
	}

	if err := s.resultRepo.UpsertMany(ctx, entries); err != nil {
		return fmt.Errorf("result upsert failed: %w", err)
	}

	return s.ApplyResults(ctx)
}

// ApplyResults recomputes lives and status for every member in pools
// with picks touched by recorded results. A member's lives are the
// pool's configured lives minus one per losing pick, floored at zero;
// elimination happens at zero.
func (s *ResultService) ApplyResults(ctx context.Context) error {
	results, err := s.resultRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("result lookup failed: %w", err)
	}
	if len(results) == 0 {
		return nil
	}

	// result per (gameweek, team)
	outcomes := make(map[int]map[int]models.MatchResult)
	for _, result := range results {
		if outcomes[result.Gameweek] == nil {
			outcomes[result.Gameweek] = make(map[int]models.MatchResult)
		}
		outcomes[result.Gameweek][result.TeamID] = result.Result
	}

	// losses per (pool, user) across all settled gameweeks
	losses := make(map[primitive.ObjectID]map[int]int)
	for gameweek, teamResults := range outcomes {
		picks, err := s.pickRepo.FindByGameweek(ctx, gameweek)
		if err != nil {
			return fmt.Errorf("pick lookup for gameweek %d failed: %w", gameweek, err)
		}
		for _, pick := range picks {
			if teamResults[pick.TeamID] != models.ResultLoss {
				continue
			}
			if losses[pick.PoolID] == nil {
				losses[pick.PoolID] = make(map[int]int)
			}
			losses[pick.PoolID][pick.UserID]++
		}
	}

	updated := 0
	for poolID, userLosses := range losses {
		pool, err := s.poolRepo.FindByID(ctx, poolID)
		if err != nil {
			return fmt.Errorf("pool lookup failed: %w", err)
		}
		if pool == nil {
			continue
		}

		members, err := s.memberRepo.FindByPool(ctx, poolID)
		if err != nil {
			return fmt.Errorf("members lookup failed: %w", err)
		}

		changedUsers := make([]int, 0)
		for _, member := range members {
			lives := pool.LivesPerPlayer - userLosses[member.UserID]
			if lives < 0 {
				lives = 0
			}
			status := models.MemberStatusAlive
			if lives == 0 {
				status = models.MemberStatusEliminated
			}

			if member.LivesRemaining == lives && member.Status == status {
				continue
			}
			if err := s.memberRepo.UpdateStanding(ctx, member.ID, lives, status); err != nil {
				return fmt.Errorf("standing update failed: %w", err)
			}
			changedUsers = append(changedUsers, member.UserID)
			updated++
		}

		if len(changedUsers) > 0 {
			s.pageCache.InvalidatePool(ctx, poolID.Hex())
			s.pageCache.InvalidateDashboards(ctx, changedUsers)
		}
	}

	if updated > 0 {
		s.logger.Infof("Updated standings for %d members", updated)
	}
	return nil
}

// ResultsForGameweek returns the stored results for a gameweek
func (s *ResultService) ResultsForGameweek(ctx context.Context, gameweek int) ([]models.TeamResult, error) {
	return s.resultRepo.FindByGameweek(ctx, gameweek)
}
