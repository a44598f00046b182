package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureAt(round int, kickoff time.Time) Fixture {
	return Fixture{RoundNumber: round, DateUtc: FixtureTime{Time: kickoff}}
}

func TestBuildDeadlines(t *testing.T) {
	friday := time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	nextWeek := time.Date(2025, 8, 23, 11, 30, 0, 0, time.UTC)

	t.Run("uses the earliest kickoff per round", func(t *testing.T) {
		deadlines := BuildDeadlines([]Fixture{
			fixtureAt(1, saturday),
			fixtureAt(1, friday),
			fixtureAt(2, nextWeek),
		})

		require.Len(t, deadlines, 2)
		assert.Equal(t, 1, deadlines[0].Gameweek)
		assert.Equal(t, friday, deadlines[0].FirstKickoff)
		assert.Equal(t, friday.Add(-time.Hour), deadlines[0].PickDeadline)
		assert.Equal(t, friday.Add(time.Hour), deadlines[0].OddsRefreshAt)
		assert.Equal(t, 2, deadlines[1].Gameweek)
		assert.Equal(t, nextWeek, deadlines[1].FirstKickoff)
	})

	t.Run("skips fixtures without round or kickoff", func(t *testing.T) {
		deadlines := BuildDeadlines([]Fixture{
			fixtureAt(0, friday),
			{RoundNumber: 1},
			fixtureAt(1, friday),
		})
		require.Len(t, deadlines, 1)
		assert.Equal(t, friday, deadlines[0].FirstKickoff)
	})

	t.Run("empty input yields no rows", func(t *testing.T) {
		assert.Empty(t, BuildDeadlines(nil))
	})
}

func TestUpdateDeadlinesUpserts(t *testing.T) {
	ctx := context.Background()
	repo := &fakeGameweekRepo{}
	friday := time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC)

	deadlines := BuildDeadlines([]Fixture{fixtureAt(1, friday)})
	count, err := repo.UpsertMany(ctx, deadlines)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A rescheduled kickoff replaces the row rather than duplicating it
	moved := friday.Add(24 * time.Hour)
	deadlines = BuildDeadlines([]Fixture{fixtureAt(1, moved)})
	_, err = repo.UpsertMany(ctx, deadlines)
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, moved, repo.rows[0].FirstKickoff)
}

func TestFixtureTimeUnmarshal(t *testing.T) {
	t.Run("feed format", func(t *testing.T) {
		var parsed FixtureTime
		require.NoError(t, json.Unmarshal([]byte(`"2025-08-15 19:00:00Z"`), &parsed))
		assert.Equal(t, time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC), parsed.Time)
	})

	t.Run("rfc3339 fallback", func(t *testing.T) {
		var parsed FixtureTime
		require.NoError(t, json.Unmarshal([]byte(`"2025-08-15T19:00:00Z"`), &parsed))
		assert.Equal(t, time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC), parsed.Time)
	})

	t.Run("empty string is zero time", func(t *testing.T) {
		var parsed FixtureTime
		require.NoError(t, json.Unmarshal([]byte(`""`), &parsed))
		assert.True(t, parsed.IsZero())
	})

	t.Run("garbage is an error", func(t *testing.T) {
		var parsed FixtureTime
		assert.Error(t, json.Unmarshal([]byte(`"not a date"`), &parsed))
	})
}
