package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"survivor-pool-go/logging"
	"survivor-pool-go/metrics"
	"survivor-pool-go/models"
)

const oddsWindowDays = 7

// OddsRepository interface for odds snapshot and row storage
type OddsRepository interface {
	InsertSnapshot(ctx context.Context, snapshot *models.OddsSnapshot) error
	LatestSnapshotForGameweek(ctx context.Context, gameweek int) (*models.OddsSnapshot, error)
	UpsertGameOdds(ctx context.Context, rows []models.GameOdds) (int, error)
	FindBySnapshot(ctx context.Context, snapshotID string) ([]models.GameOdds, error)
}

// OddsService ingests bookmaker odds and aggregates them for display
type OddsService struct {
	feed       *OddsFeedClient
	oddsRepo   OddsRepository
	gameweeks  *GameweekService
	bookmakers map[string]bool
	logger     *logging.Logger
}

// NewOddsService creates a new odds service
func NewOddsService(feed *OddsFeedClient, oddsRepo OddsRepository, gameweeks *GameweekService, bookmakers []string) *OddsService {
	allowed := make(map[string]bool, len(bookmakers))
	for _, key := range bookmakers {
		allowed[key] = true
	}
	return &OddsService{
		feed:       feed,
		oddsRepo:   oddsRepo,
		gameweeks:  gameweeks,
		bookmakers: allowed,
		logger:     logging.WithPrefix("OddsService"),
	}
}

// impliedProbability converts a decimal price to its implied chance.
// Prices at or below 1 carry no information and yield nil.
func impliedProbability(price *float64) *float64 {
	if price == nil || *price <= 1 {
		return nil
	}
	p := 1 / *price
	return &p
}

// NormalizeEvent flattens one feed event into per-bookmaker rows.
// Outcomes are matched against the event's team names; anything named
// "draw" (case-insensitive) is the draw price. Bookmakers outside the
// allow list and bookmakers without an h2h market are skipped.
func (s *OddsService) NormalizeEvent(snapshotID string, event OddsAPIEvent) []models.GameOdds {
	rows := make([]models.GameOdds, 0, len(event.Bookmakers))

	for _, bookmaker := range event.Bookmakers {
		if len(s.bookmakers) > 0 && !s.bookmakers[bookmaker.Key] {
			continue
		}

		var market *OddsAPIMarket
		for i := range bookmaker.Markets {
			if bookmaker.Markets[i].Key == "h2h" {
				market = &bookmaker.Markets[i]
				break
			}
		}
		if market == nil || len(market.Outcomes) == 0 {
			continue
		}

		var homePrice, drawPrice, awayPrice *float64
		for _, outcome := range market.Outcomes {
			price := outcome.Price
			switch {
			case outcome.Name == event.HomeTeam:
				homePrice = &price
			case outcome.Name == event.AwayTeam:
				awayPrice = &price
			case strings.EqualFold(outcome.Name, "draw"):
				drawPrice = &price
			}
		}

		impliedHome := impliedProbability(homePrice)
		impliedDraw := impliedProbability(drawPrice)
		impliedAway := impliedProbability(awayPrice)

		sum := 0.0
		for _, p := range []*float64{impliedHome, impliedDraw, impliedAway} {
			if p != nil {
				sum += *p
			}
		}
		margin := sum - 1

		rows = append(rows, models.GameOdds{
			SnapshotID:       snapshotID,
			EventID:          event.ID,
			Bookmaker:        bookmaker.Key,
			CommenceTime:     event.CommenceTime,
			HomeTeam:         event.HomeTeam,
			AwayTeam:         event.AwayTeam,
			LastUpdate:       bookmaker.LastUpdate,
			HomePriceDecimal: homePrice,
			DrawPriceDecimal: drawPrice,
			AwayPriceDecimal: awayPrice,
			ImpliedHome:      impliedHome,
			ImpliedDraw:      impliedDraw,
			ImpliedAway:      impliedAway,
			Margin:           &margin,
		})
	}

	return rows
}

// IngestionResult summarizes one odds fetch run
type IngestionResult struct {
	SnapshotID string
	Gameweek   int
	Events     int
	Rows       int
	Usage      *OddsAPIUsage
}

// RunIngestion fetches current odds, records a snapshot for the
// resolved gameweek, and upserts the normalized rows. A feed with no
// events still succeeds without writing a snapshot.
func (s *OddsService) RunIngestion(ctx context.Context) (*IngestionResult, error) {
	now := time.Now()

	gameweek, err := s.gameweeks.IngestionGameweek(ctx, now)
	if err != nil {
		return nil, err
	}

	events, usage, err := s.feed.FetchOdds(ctx)
	if err != nil {
		return nil, err
	}

	result := &IngestionResult{Gameweek: gameweek, Events: len(events), Usage: usage}
	if len(events) == 0 {
		s.logger.Warn("Odds feed returned no events, skipping snapshot")
		return result, nil
	}

	snapshot := &models.OddsSnapshot{
		ID:          uuid.NewString(),
		Gameweek:    gameweek,
		TakenAt:     now,
		WindowStart: now,
		WindowEnd:   now.Add(oddsWindowDays * 24 * time.Hour),
	}
	if err := s.oddsRepo.InsertSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("snapshot insert failed: %w", err)
	}
	result.SnapshotID = snapshot.ID

	rows := make([]models.GameOdds, 0, len(events)*len(s.bookmakers))
	for _, event := range events {
		rows = append(rows, s.NormalizeEvent(snapshot.ID, event)...)
	}

	if len(rows) == 0 {
		s.logger.Warnf("Snapshot %s parsed no bookmaker rows from %d events", snapshot.ID, len(events))
		return result, nil
	}

	upserted, err := s.oddsRepo.UpsertGameOdds(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("odds upsert failed: %w", err)
	}
	result.Rows = upserted
	metrics.OddsRowsUpserted.Add(float64(upserted))

	s.logger.Infof("Snapshot %s for GW%d: %d events, %d rows", snapshot.ID, gameweek, len(events), upserted)
	return result, nil
}

// LatestSnapshot returns the most recent snapshot for a gameweek, or nil
func (s *OddsService) LatestSnapshot(ctx context.Context, gameweek int) (*models.OddsSnapshot, error) {
	return s.oddsRepo.LatestSnapshotForGameweek(ctx, gameweek)
}

// BestOdds aggregates the latest snapshot for a gameweek into one row
// per event with the best available price per outcome. Probabilities
// are the implied chances of those best prices, normalized when all
// three outcomes are priced.
func (s *OddsService) BestOdds(ctx context.Context, gameweek int) ([]models.OddsBestRow, error) {
	snapshot, err := s.oddsRepo.LatestSnapshotForGameweek(ctx, gameweek)
	if err != nil {
		return nil, fmt.Errorf("snapshot lookup failed: %w", err)
	}
	if snapshot == nil {
		return nil, nil
	}

	rows, err := s.oddsRepo.FindBySnapshot(ctx, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("odds rows lookup failed: %w", err)
	}

	best := make(map[string]*models.OddsBestRow)
	order := make([]string, 0)
	for _, row := range rows {
		entry, ok := best[row.EventID]
		if !ok {
			entry = &models.OddsBestRow{
				Gameweek:     snapshot.Gameweek,
				EventID:      row.EventID,
				CommenceTime: row.CommenceTime,
				HomeTeam:     row.HomeTeam,
				AwayTeam:     row.AwayTeam,
			}
			best[row.EventID] = entry
			order = append(order, row.EventID)
		}
		entry.BestHome = maxPrice(entry.BestHome, row.HomePriceDecimal)
		entry.BestDraw = maxPrice(entry.BestDraw, row.DrawPriceDecimal)
		entry.BestAway = maxPrice(entry.BestAway, row.AwayPriceDecimal)
	}

	results := make([]models.OddsBestRow, 0, len(order))
	for _, eventID := range order {
		entry := best[eventID]
		entry.PHome, entry.PDraw, entry.PAway = normalizedProbabilities(entry.BestHome, entry.BestDraw, entry.BestAway)
		results = append(results, *entry)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CommenceTime.Before(results[j].CommenceTime)
	})
	return results, nil
}

// maxPrice keeps the larger of two optional prices
func maxPrice(current, candidate *float64) *float64 {
	if candidate == nil {
		return current
	}
	if current == nil || *candidate > *current {
		return candidate
	}
	return current
}

// normalizedProbabilities converts best prices to outcome chances.
// When all three outcomes are priced the implied chances are rescaled
// to sum to 1, removing the bookmaker margin; otherwise the raw
// implied values are returned.
func normalizedProbabilities(home, draw, away *float64) (*float64, *float64, *float64) {
	pHome := impliedProbability(home)
	pDraw := impliedProbability(draw)
	pAway := impliedProbability(away)

	if pHome == nil || pDraw == nil || pAway == nil {
		return pHome, pDraw, pAway
	}

	sum := *pHome + *pDraw + *pAway
	if sum <= 0 {
		return pHome, pDraw, pAway
	}

	h := *pHome / sum
	d := *pDraw / sum
	a := *pAway / sum
	return &h, &d, &a
}

// TeamWinPercentages flattens the best odds into one row per team,
// sorted by win chance descending
func (s *OddsService) TeamWinPercentages(ctx context.Context, gameweek int) ([]models.TeamWinPct, error) {
	bestRows, err := s.BestOdds(ctx, gameweek)
	if err != nil {
		return nil, err
	}

	results := make([]models.TeamWinPct, 0, len(bestRows)*2)
	for _, row := range bestRows {
		results = append(results, models.TeamWinPct{
			Gameweek:     row.Gameweek,
			EventID:      row.EventID,
			CommenceTime: row.CommenceTime,
			Team:         row.HomeTeam,
			Opponent:     row.AwayTeam,
			Side:         "H",
			PriceDecimal: row.BestHome,
			WinPct:       row.PHome,
		}, models.TeamWinPct{
			Gameweek:     row.Gameweek,
			EventID:      row.EventID,
			CommenceTime: row.CommenceTime,
			Team:         row.AwayTeam,
			Opponent:     row.HomeTeam,
			Side:         "A",
			PriceDecimal: row.BestAway,
			WinPct:       row.PAway,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		wi, wj := 0.0, 0.0
		if results[i].WinPct != nil {
			wi = *results[i].WinPct
		}
		if results[j].WinPct != nil {
			wj = *results[j].WinPct
		}
		return wi > wj
	})
	return results, nil
}

// EarliestKickoff returns the earliest commence time among the latest
// snapshot's rows for a gameweek, used as a deadline fallback
func (s *OddsService) EarliestKickoff(ctx context.Context, gameweek int) (*time.Time, error) {
	snapshot, err := s.oddsRepo.LatestSnapshotForGameweek(ctx, gameweek)
	if err != nil || snapshot == nil {
		return nil, err
	}

	rows, err := s.oddsRepo.FindBySnapshot(ctx, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("odds rows lookup failed: %w", err)
	}

	var earliest *time.Time
	for _, row := range rows {
		t := row.CommenceTime
		if earliest == nil || t.Before(*earliest) {
			earliest = &t
		}
	}
	return earliest, nil
}
