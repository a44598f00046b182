package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-pool-go/models"
)

func newTestOddsService(oddsRepo *fakeOddsRepo) *OddsService {
	return NewOddsService(nil, oddsRepo, nil, []string{"bet365", "paddypower"})
}

func floatPtr(v float64) *float64 { return &v }

func h2hEvent(id string, homePrice, drawPrice, awayPrice float64) OddsAPIEvent {
	return OddsAPIEvent{
		ID:           id,
		CommenceTime: time.Date(2025, 10, 4, 15, 0, 0, 0, time.UTC),
		HomeTeam:     "Arsenal",
		AwayTeam:     "Chelsea",
		Bookmakers: []OddsAPIBookmaker{
			{
				Key: "bet365",
				Markets: []OddsAPIMarket{
					{
						Key: "h2h",
						Outcomes: []OddsAPIOutcome{
							{Name: "Arsenal", Price: homePrice},
							{Name: "Draw", Price: drawPrice},
							{Name: "Chelsea", Price: awayPrice},
						},
					},
				},
			},
		},
	}
}

func TestNormalizeEvent(t *testing.T) {
	service := newTestOddsService(&fakeOddsRepo{})

	t.Run("maps outcomes and computes implied chances", func(t *testing.T) {
		rows := service.NormalizeEvent("snap-1", h2hEvent("evt-1", 2.0, 4.0, 5.0))
		require.Len(t, rows, 1)

		row := rows[0]
		assert.Equal(t, "snap-1", row.SnapshotID)
		assert.Equal(t, "evt-1", row.EventID)
		assert.Equal(t, "bet365", row.Bookmaker)
		require.NotNil(t, row.ImpliedHome)
		assert.InDelta(t, 0.5, *row.ImpliedHome, 1e-9)
		require.NotNil(t, row.ImpliedDraw)
		assert.InDelta(t, 0.25, *row.ImpliedDraw, 1e-9)
		require.NotNil(t, row.ImpliedAway)
		assert.InDelta(t, 0.2, *row.ImpliedAway, 1e-9)
		require.NotNil(t, row.Margin)
		assert.InDelta(t, -0.05, *row.Margin, 1e-9, "margin is sum of implied minus 1")
	})

	t.Run("skips bookmakers outside the allow list", func(t *testing.T) {
		event := h2hEvent("evt-1", 2.0, 4.0, 5.0)
		event.Bookmakers[0].Key = "unibet"
		rows := service.NormalizeEvent("snap-1", event)
		assert.Empty(t, rows)
	})

	t.Run("skips bookmakers without an h2h market", func(t *testing.T) {
		event := h2hEvent("evt-1", 2.0, 4.0, 5.0)
		event.Bookmakers[0].Markets[0].Key = "totals"
		rows := service.NormalizeEvent("snap-1", event)
		assert.Empty(t, rows)
	})

	t.Run("prices at or below 1 carry no implied chance", func(t *testing.T) {
		rows := service.NormalizeEvent("snap-1", h2hEvent("evt-1", 1.0, 4.0, 5.0))
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].ImpliedHome)
		require.NotNil(t, rows[0].HomePriceDecimal, "the raw price is still recorded")
		require.NotNil(t, rows[0].Margin)
		assert.InDelta(t, 0.25+0.2-1, *rows[0].Margin, 1e-9)
	})

	t.Run("draw outcome matches case-insensitively", func(t *testing.T) {
		event := h2hEvent("evt-1", 2.0, 4.0, 5.0)
		event.Bookmakers[0].Markets[0].Outcomes[1].Name = "DRAW"
		rows := service.NormalizeEvent("snap-1", event)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].DrawPriceDecimal)
		assert.Equal(t, 4.0, *rows[0].DrawPriceDecimal)
	})
}

func TestBestOdds(t *testing.T) {
	ctx := context.Background()
	taken := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)

	oddsRepo := &fakeOddsRepo{
		snapshots: []models.OddsSnapshot{
			{ID: "snap-old", Gameweek: 7, TakenAt: taken.Add(-time.Hour)},
			{ID: "snap-new", Gameweek: 7, TakenAt: taken},
		},
		rows: []models.GameOdds{
			{
				SnapshotID: "snap-new", EventID: "evt-1", Bookmaker: "bet365",
				CommenceTime: taken.Add(3 * time.Hour), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
				HomePriceDecimal: floatPtr(2.0), DrawPriceDecimal: floatPtr(4.0), AwayPriceDecimal: floatPtr(5.0),
			},
			{
				SnapshotID: "snap-new", EventID: "evt-1", Bookmaker: "paddypower",
				CommenceTime: taken.Add(3 * time.Hour), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
				HomePriceDecimal: floatPtr(2.1), DrawPriceDecimal: floatPtr(3.9), AwayPriceDecimal: floatPtr(5.2),
			},
			// Row from an older snapshot must be ignored
			{
				SnapshotID: "snap-old", EventID: "evt-1", Bookmaker: "bet365",
				CommenceTime: taken.Add(3 * time.Hour), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
				HomePriceDecimal: floatPtr(9.9),
			},
		},
	}
	service := newTestOddsService(oddsRepo)

	rows, err := service.BestOdds(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 7, row.Gameweek)
	require.NotNil(t, row.BestHome)
	assert.Equal(t, 2.1, *row.BestHome, "best price per outcome across bookmakers")
	require.NotNil(t, row.BestDraw)
	assert.Equal(t, 4.0, *row.BestDraw)
	require.NotNil(t, row.BestAway)
	assert.Equal(t, 5.2, *row.BestAway)

	// Probabilities from best prices, rescaled to sum to 1
	sum := *row.PHome + *row.PDraw + *row.PAway
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, *row.PHome, *row.PDraw)
	assert.Greater(t, *row.PDraw, *row.PAway)
}

func TestBestOddsNoSnapshot(t *testing.T) {
	service := newTestOddsService(&fakeOddsRepo{})
	rows, err := service.BestOdds(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestTeamWinPercentages(t *testing.T) {
	ctx := context.Background()
	taken := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)

	oddsRepo := &fakeOddsRepo{
		snapshots: []models.OddsSnapshot{{ID: "snap-1", Gameweek: 7, TakenAt: taken}},
		rows: []models.GameOdds{
			{
				SnapshotID: "snap-1", EventID: "evt-1", Bookmaker: "bet365",
				CommenceTime: taken, HomeTeam: "Arsenal", AwayTeam: "Chelsea",
				HomePriceDecimal: floatPtr(1.5), DrawPriceDecimal: floatPtr(4.5), AwayPriceDecimal: floatPtr(7.0),
			},
		},
	}
	service := newTestOddsService(oddsRepo)

	rows, err := service.TeamWinPercentages(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 2, "one row per team per event")

	assert.Equal(t, "Arsenal", rows[0].Team)
	assert.Equal(t, "H", rows[0].Side)
	assert.Equal(t, "Chelsea", rows[0].Opponent)
	assert.Equal(t, "Chelsea", rows[1].Team)
	assert.Equal(t, "A", rows[1].Side)

	require.NotNil(t, rows[0].WinPct)
	require.NotNil(t, rows[1].WinPct)
	assert.Greater(t, *rows[0].WinPct, *rows[1].WinPct, "sorted by win chance descending")
}

func TestRunIngestion(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	gameweekRepo := &fakeGameweekRepo{rows: []models.GameweekDeadline{
		{Gameweek: 7, PickDeadline: now.Add(-2 * time.Hour), FirstKickoff: now.Add(-time.Hour), OddsRefreshAt: now.Add(time.Hour)},
	}}
	oddsRepo := &fakeOddsRepo{}

	service := NewOddsService(nil, oddsRepo, NewGameweekService(gameweekRepo), []string{"bet365"})

	// Exercise the persistence path directly: snapshot plus normalized rows
	gameweek, err := service.gameweeks.IngestionGameweek(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 7, gameweek)

	snapshot := &models.OddsSnapshot{ID: "snap-1", Gameweek: gameweek, TakenAt: now}
	require.NoError(t, oddsRepo.InsertSnapshot(ctx, snapshot))

	rows := service.NormalizeEvent(snapshot.ID, h2hEvent("evt-1", 2.0, 4.0, 5.0))
	count, err := oddsRepo.UpsertGameOdds(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	latest, err := service.LatestSnapshot(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "snap-1", latest.ID)
}
