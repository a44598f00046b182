package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"survivor-pool-go/models"
)

type resultFixture struct {
	service    *ResultService
	memberRepo *fakeMemberRepo
	pickRepo   *fakePickRepo
	poolID     primitive.ObjectID
}

// two-life pool with two members; Alice picked Arsenal in GW1 and
// Chelsea in GW2, Bob picked Chelsea in GW1
func newResultFixture(t *testing.T) *resultFixture {
	t.Helper()
	poolRepo := newFakePoolRepo()
	memberRepo := &fakeMemberRepo{}
	pickRepo := &fakePickRepo{}
	resultRepo := &fakeResultRepo{}

	pool := &models.Pool{Name: "Test League", Code: "AAAAAA", CreatedBy: 1, LivesPerPlayer: 2, CreatedAt: time.Now()}
	require.NoError(t, poolRepo.Create(context.Background(), pool))

	for _, userID := range []int{1, 2} {
		require.NoError(t, memberRepo.Create(context.Background(), &models.PoolMember{
			PoolID:         pool.ID,
			UserID:         userID,
			Role:           models.RolePlayer,
			Status:         models.MemberStatusAlive,
			LivesRemaining: 2,
		}))
	}

	picks := []models.Pick{
		{PoolID: pool.ID, UserID: 1, Gameweek: 1, TeamID: 10},
		{PoolID: pool.ID, UserID: 1, Gameweek: 2, TeamID: 11},
		{PoolID: pool.ID, UserID: 2, Gameweek: 1, TeamID: 11},
	}
	for i := range picks {
		require.NoError(t, pickRepo.Upsert(context.Background(), &picks[i]))
	}

	return &resultFixture{
		service:    NewResultService(resultRepo, poolRepo, memberRepo, pickRepo, nil),
		memberRepo: memberRepo,
		pickRepo:   pickRepo,
		poolID:     pool.ID,
	}
}

func (f *resultFixture) member(t *testing.T, userID int) *models.PoolMember {
	t.Helper()
	member, err := f.memberRepo.FindByPoolAndUser(context.Background(), f.poolID, userID)
	require.NoError(t, err)
	require.NotNil(t, member)
	return member
}

func TestSaveResults(t *testing.T) {
	ctx := context.Background()

	t.Run("a loss costs one life", func(t *testing.T) {
		f := newResultFixture(t)

		err := f.service.SaveResults(ctx, 1, []models.TeamResult{
			{TeamID: 10, Result: models.ResultLoss},
			{TeamID: 11, Result: models.ResultWin},
		})
		require.NoError(t, err)

		alice := f.member(t, 1)
		assert.Equal(t, 1, alice.LivesRemaining)
		assert.Equal(t, models.MemberStatusAlive, alice.Status)

		bob := f.member(t, 2)
		assert.Equal(t, 2, bob.LivesRemaining, "winning picks cost nothing")
	})

	t.Run("reaching zero lives eliminates", func(t *testing.T) {
		f := newResultFixture(t)

		require.NoError(t, f.service.SaveResults(ctx, 1, []models.TeamResult{
			{TeamID: 10, Result: models.ResultLoss},
		}))
		require.NoError(t, f.service.SaveResults(ctx, 2, []models.TeamResult{
			{TeamID: 11, Result: models.ResultLoss},
		}))

		alice := f.member(t, 1)
		assert.Equal(t, 0, alice.LivesRemaining)
		assert.Equal(t, models.MemberStatusEliminated, alice.Status)
	})

	t.Run("corrected results converge instead of double-counting", func(t *testing.T) {
		f := newResultFixture(t)

		require.NoError(t, f.service.SaveResults(ctx, 1, []models.TeamResult{
			{TeamID: 10, Result: models.ResultLoss},
		}))
		// Same gameweek re-entered as a draw: the life comes back
		require.NoError(t, f.service.SaveResults(ctx, 1, []models.TeamResult{
			{TeamID: 10, Result: models.ResultDraw},
		}))

		alice := f.member(t, 1)
		assert.Equal(t, 2, alice.LivesRemaining)
		assert.Equal(t, models.MemberStatusAlive, alice.Status)
	})

	t.Run("re-applying the same results is idempotent", func(t *testing.T) {
		f := newResultFixture(t)

		entries := []models.TeamResult{{TeamID: 10, Result: models.ResultLoss}}
		require.NoError(t, f.service.SaveResults(ctx, 1, entries))
		require.NoError(t, f.service.SaveResults(ctx, 1, entries))

		alice := f.member(t, 1)
		assert.Equal(t, 1, alice.LivesRemaining)
	})

	t.Run("validates input", func(t *testing.T) {
		f := newResultFixture(t)

		err := f.service.SaveResults(ctx, 0, []models.TeamResult{{TeamID: 10, Result: models.ResultWin}})
		require.Error(t, err)

		err = f.service.SaveResults(ctx, 1, nil)
		require.Error(t, err)

		err = f.service.SaveResults(ctx, 1, []models.TeamResult{{TeamID: 10, Result: "X"}})
		require.Error(t, err)
		message, ok := UserMessage(err)
		require.True(t, ok)
		assert.Equal(t, "Results must be W, D, or L.", message)
	})

	t.Run("lives never go below zero", func(t *testing.T) {
		f := newResultFixture(t)

		// Third losing pick for Alice in a two-life pool
		require.NoError(t, f.pickRepo.Upsert(ctx, &models.Pick{
			PoolID: f.poolID, UserID: 1, Gameweek: 3, TeamID: 12,
		}))
		require.NoError(t, f.service.SaveResults(ctx, 1, []models.TeamResult{{TeamID: 10, Result: models.ResultLoss}}))
		require.NoError(t, f.service.SaveResults(ctx, 2, []models.TeamResult{{TeamID: 11, Result: models.ResultLoss}}))
		require.NoError(t, f.service.SaveResults(ctx, 3, []models.TeamResult{{TeamID: 12, Result: models.ResultLoss}}))

		alice := f.member(t, 1)
		assert.Equal(t, 0, alice.LivesRemaining)
		assert.Equal(t, models.MemberStatusEliminated, alice.Status)
	})
}
