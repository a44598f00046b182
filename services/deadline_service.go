package services

import (
	"context"
	"sort"
	"time"

	"survivor-pool-go/logging"
	"survivor-pool-go/models"
)

// deadlineOffset is how far before kickoff picks lock, and how far
// after kickoff odds are considered refreshable again
const deadlineOffset = time.Hour

// DeadlineService derives per-gameweek pick deadlines from the fixture
// list and stores them
type DeadlineService struct {
	feed         *FixtureFeedClient
	gameweekRepo GameweekRepository
	logger       *logging.Logger
}

// NewDeadlineService creates a new deadline service
func NewDeadlineService(feed *FixtureFeedClient, gameweekRepo GameweekRepository) *DeadlineService {
	return &DeadlineService{
		feed:         feed,
		gameweekRepo: gameweekRepo,
		logger:       logging.WithPrefix("DeadlineService"),
	}
}

// BuildDeadlines reduces fixtures to one row per gameweek: the
// earliest kickoff of the round, with the pick deadline an hour before
// it and the odds refresh an hour after. Fixtures without a round or
// kickoff are skipped. Rows come back sorted by gameweek.
func BuildDeadlines(fixtures []Fixture) []models.GameweekDeadline {
	earliest := make(map[int]time.Time)
	for _, fixture := range fixtures {
		if fixture.RoundNumber < 1 || fixture.DateUtc.IsZero() {
			continue
		}
		kickoff := fixture.DateUtc.Time
		if stored, ok := earliest[fixture.RoundNumber]; !ok || kickoff.Before(stored) {
			earliest[fixture.RoundNumber] = kickoff
		}
	}

	deadlines := make([]models.GameweekDeadline, 0, len(earliest))
	for gameweek, kickoff := range earliest {
		deadlines = append(deadlines, models.GameweekDeadline{
			Gameweek:      gameweek,
			FirstKickoff:  kickoff,
			PickDeadline:  kickoff.Add(-deadlineOffset),
			OddsRefreshAt: kickoff.Add(deadlineOffset),
		})
	}

	sort.Slice(deadlines, func(i, j int) bool {
		return deadlines[i].Gameweek < deadlines[j].Gameweek
	})
	return deadlines
}

// UpdateDeadlines fetches the fixture feed and upserts the derived
// deadline rows. Returns the number of gameweeks written; an empty
// feed is a no-op, not an error.
func (s *DeadlineService) UpdateDeadlines(ctx context.Context) (int, error) {
	fixtures, err := s.feed.FetchFixtures(ctx)
	if err != nil {
		return 0, err
	}

	deadlines := BuildDeadlines(fixtures)
	if len(deadlines) == 0 {
		s.logger.Warn("No fixtures found, nothing to upsert")
		return 0, nil
	}

	count, err := s.gameweekRepo.UpsertMany(ctx, deadlines)
	if err != nil {
		return 0, err
	}

	s.logger.Infof("Upserted %d gameweek deadline rows", count)
	return count, nil
}
