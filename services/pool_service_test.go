package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survivor-pool-go/models"
)

func newTestPoolService(poolRepo *fakePoolRepo, memberRepo *fakeMemberRepo, userRepo *fakeUserRepo) *PoolService {
	return NewPoolService(poolRepo, memberRepo, userRepo, nil, "https://example.com")
}

func testUser(id int, name string) *models.User {
	return &models.User{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com"}
}

func TestGeneratePoolCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GeneratePoolCode()
		require.NoError(t, err)
		require.Len(t, code, models.PoolCodeLength)
		for _, c := range code {
			assert.Contains(t, models.PoolCodeAlphabet, string(c))
		}
		seen[code] = true
	}
	// 50 draws from a 36^6 space should essentially never collide
	assert.Greater(t, len(seen), 45)
}

func TestCreatePool(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pool with owner membership", func(t *testing.T) {
		poolRepo := newFakePoolRepo()
		memberRepo := &fakeMemberRepo{}
		service := newTestPoolService(poolRepo, memberRepo, newFakeUserRepo())
		user := testUser(1, "Alice")

		pool, err := service.CreatePool(ctx, user, "Test League", 2, "")
		require.NoError(t, err)
		require.NotNil(t, pool)
		assert.Equal(t, "Test League", pool.Name)
		assert.Len(t, pool.Code, models.PoolCodeLength)
		assert.Equal(t, 2, pool.LivesPerPlayer)
		assert.Equal(t, 1, pool.CreatedBy)
		assert.Nil(t, pool.EntryFee, "blank entry fee means a free pool")

		membership, err := memberRepo.FindByPoolAndUser(ctx, pool.ID, user.ID)
		require.NoError(t, err)
		require.NotNil(t, membership)
		assert.Equal(t, models.RoleOwner, membership.Role)
		assert.Equal(t, models.MemberStatusAlive, membership.Status)
		assert.Equal(t, 2, membership.LivesRemaining)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		service := newTestPoolService(newFakePoolRepo(), &fakeMemberRepo{}, newFakeUserRepo())
		user := testUser(1, "Alice")

		cases := []struct {
			name  string
			pool  string
			lives int
			fee   string
		}{
			{"short name", "ab", 2, ""},
			{"long name", strings.Repeat("x", 101), 2, ""},
			{"zero lives", "Test League", 0, ""},
			{"too many lives", "Test League", 4, ""},
			{"malformed entry fee", "Test League", 2, "ten quid"},
			{"negative entry fee", "Test League", 2, "-5"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := service.CreatePool(ctx, user, tc.pool, tc.lives, tc.fee)
				require.Error(t, err)
				_, ok := UserMessage(err)
				assert.True(t, ok, "expected a user-facing error")
			})
		}
	})

	t.Run("records an entry fee when one is given", func(t *testing.T) {
		service := newTestPoolService(newFakePoolRepo(), &fakeMemberRepo{}, newFakeUserRepo())

		pool, err := service.CreatePool(ctx, testUser(1, "Alice"), "Test League", 2, " £7.50 ")
		require.NoError(t, err)
		require.NotNil(t, pool.EntryFee)
		assert.Equal(t, "7.50", pool.EntryFee.StringFixed(2))
	})

	t.Run("deletes pool when owner membership insert fails", func(t *testing.T) {
		poolRepo := newFakePoolRepo()
		memberRepo := &fakeMemberRepo{createErr: errors.New("boom")}
		service := newTestPoolService(poolRepo, memberRepo, newFakeUserRepo())

		_, err := service.CreatePool(ctx, testUser(1, "Alice"), "Test League", 1, "")
		require.Error(t, err)
		assert.Empty(t, poolRepo.pools, "ownerless pool must not survive")
		assert.Len(t, poolRepo.deleted, 1)
	})
}

func TestJoinPool(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*PoolService, *fakePoolRepo, *fakeMemberRepo, *models.Pool) {
		poolRepo := newFakePoolRepo()
		memberRepo := &fakeMemberRepo{}
		service := newTestPoolService(poolRepo, memberRepo, newFakeUserRepo())
		pool, err := service.CreatePool(ctx, testUser(1, "Alice"), "Test League", 3, "")
		require.NoError(t, err)
		return service, poolRepo, memberRepo, pool
	}

	t.Run("joins by code case-insensitively", func(t *testing.T) {
		service, _, memberRepo, pool := setup(t)

		joined, err := service.JoinPool(ctx, testUser(2, "Bob"), strings.ToLower(pool.Code))
		require.NoError(t, err)
		assert.Equal(t, pool.ID, joined.ID)

		membership, err := memberRepo.FindByPoolAndUser(ctx, pool.ID, 2)
		require.NoError(t, err)
		require.NotNil(t, membership)
		assert.Equal(t, models.RolePlayer, membership.Role)
		assert.Equal(t, 3, membership.LivesRemaining, "lives come from the pool's configured value")
	})

	t.Run("joins by pool id", func(t *testing.T) {
		service, _, _, pool := setup(t)

		joined, err := service.JoinPool(ctx, testUser(2, "Bob"), pool.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, pool.ID, joined.ID)
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		service, _, _, _ := setup(t)

		_, err := service.JoinPool(ctx, testUser(2, "Bob"), "ZZZZZZ")
		require.Error(t, err)
		message, ok := UserMessage(err)
		require.True(t, ok)
		assert.Equal(t, "We could not find a pool with that code.", message)
	})

	t.Run("wraps code lookup failures", func(t *testing.T) {
		poolRepo := newFakePoolRepo()
		poolRepo.findCodeErr = errors.New("boom")
		service := newTestPoolService(poolRepo, &fakeMemberRepo{}, newFakeUserRepo())

		_, err := service.JoinPool(ctx, testUser(2, "Bob"), "ABCDEF")
		require.Error(t, err)
		_, ok := UserMessage(err)
		assert.False(t, ok, "store failures are not user-facing")
		assert.Contains(t, err.Error(), "pool lookup failed")
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("rejects double join", func(t *testing.T) {
		service, _, _, pool := setup(t)
		bob := testUser(2, "Bob")

		_, err := service.JoinPool(ctx, bob, pool.Code)
		require.NoError(t, err)

		_, err = service.JoinPool(ctx, bob, pool.Code)
		require.Error(t, err)
		message, ok := UserMessage(err)
		require.True(t, ok)
		assert.Equal(t, "You are already part of this pool.", message)
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*PoolService, *fakeMemberRepo, *models.Pool, *models.PoolMember) {
		poolRepo := newFakePoolRepo()
		memberRepo := &fakeMemberRepo{}
		service := newTestPoolService(poolRepo, memberRepo, newFakeUserRepo())
		pool, err := service.CreatePool(ctx, testUser(1, "Alice"), "Test League", 1, "")
		require.NoError(t, err)
		_, err = service.JoinPool(ctx, testUser(2, "Bob"), pool.Code)
		require.NoError(t, err)
		membership, err := memberRepo.FindByPoolAndUser(ctx, pool.ID, 2)
		require.NoError(t, err)
		return service, memberRepo, pool, membership
	}

	t.Run("owner removes a member", func(t *testing.T) {
		service, memberRepo, pool, membership := setup(t)

		err := service.RemoveMember(ctx, testUser(1, "Alice"), pool.ID.Hex(), membership.ID.Hex())
		require.NoError(t, err)

		gone, err := memberRepo.FindByPoolAndUser(ctx, pool.ID, 2)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("non-owner cannot remove", func(t *testing.T) {
		service, _, pool, membership := setup(t)

		err := service.RemoveMember(ctx, testUser(2, "Bob"), pool.ID.Hex(), membership.ID.Hex())
		require.Error(t, err)
		message, _ := UserMessage(err)
		assert.Equal(t, "Only the pool owner can remove members.", message)
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		service, memberRepo, pool, _ := setup(t)
		ownerMembership, err := memberRepo.FindByPoolAndUser(ctx, pool.ID, 1)
		require.NoError(t, err)

		err = service.RemoveMember(ctx, testUser(1, "Alice"), pool.ID.Hex(), ownerMembership.ID.Hex())
		require.Error(t, err)
		message, _ := UserMessage(err)
		assert.Equal(t, "You cannot remove the pool owner.", message)
	})
}

func TestPoolPrizePot(t *testing.T) {
	ctx := context.Background()
	poolRepo := newFakePoolRepo()
	memberRepo := &fakeMemberRepo{}
	service := newTestPoolService(poolRepo, memberRepo, newFakeUserRepo())
	alice := testUser(1, "Alice")

	t.Run("defaults to entry fee times head count", func(t *testing.T) {
		pool, err := service.CreatePool(ctx, alice, "Paid League", 2, "7.50")
		require.NoError(t, err)
		_, err = service.JoinPool(ctx, testUser(2, "Bob"), pool.Code)
		require.NoError(t, err)

		detail, err := service.GetPoolDetail(ctx, alice, pool.ID.Hex())
		require.NoError(t, err)
		require.NotNil(t, detail.PrizePot)
		assert.Equal(t, "15.00", detail.PrizePot.StringFixed(2))
	})

	t.Run("an explicit pot wins over the computed one", func(t *testing.T) {
		pool, err := service.CreatePool(ctx, alice, "Sponsored League", 1, "5")
		require.NoError(t, err)

		stored := poolRepo.pools[pool.ID]
		pot := decimal.NewFromInt(100)
		stored.PrizePool = &pot
		poolRepo.pools[pool.ID] = stored

		detail, err := service.GetPoolDetail(ctx, alice, pool.ID.Hex())
		require.NoError(t, err)
		require.NotNil(t, detail.PrizePot)
		assert.Equal(t, "100.00", detail.PrizePot.StringFixed(2))
	})

	t.Run("free pools have no pot", func(t *testing.T) {
		pool, err := service.CreatePool(ctx, alice, "Free League", 1, "")
		require.NoError(t, err)

		detail, err := service.GetPoolDetail(ctx, alice, pool.ID.Hex())
		require.NoError(t, err)
		assert.Nil(t, detail.PrizePot)
	})
}

func TestShareMessage(t *testing.T) {
	ctx := context.Background()
	poolRepo := newFakePoolRepo()
	service := newTestPoolService(poolRepo, &fakeMemberRepo{}, newFakeUserRepo())

	pool, err := service.CreatePool(ctx, testUser(1, "Alice"), "Test League", 1, "")
	require.NoError(t, err)

	message, err := service.ShareMessage(ctx, pool.ID.Hex())
	require.NoError(t, err)
	assert.Contains(t, message, "Test League")
	assert.Contains(t, message, pool.Code)
	assert.Contains(t, message, "https://example.com/pool/join")
}

func TestDashboardMemberships(t *testing.T) {
	ctx := context.Background()
	poolRepo := newFakePoolRepo()
	memberRepo := &fakeMemberRepo{}
	service := newTestPoolService(poolRepo, memberRepo, newFakeUserRepo())

	alice := testUser(1, "Alice")
	pool, err := service.CreatePool(ctx, alice, "Test League", 2, "")
	require.NoError(t, err)
	_, err = service.JoinPool(ctx, testUser(2, "Bob"), pool.Code)
	require.NoError(t, err)

	pickRepo := &fakePickRepo{}
	teamRepo := &fakeTeamRepo{teams: []models.Team{{ID: 10, Name: "Arsenal"}}}
	require.NoError(t, pickRepo.Upsert(ctx, &models.Pick{
		PoolID: pool.ID, UserID: 1, Gameweek: 7, TeamID: 10, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	views, err := service.DashboardMemberships(ctx, 1, 7, pickRepo, teamRepo)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Test League", views[0].PoolName)
	assert.Equal(t, 2, views[0].MembersCount)
	assert.Equal(t, "Arsenal", views[0].CurrentPickTeam)
	assert.Equal(t, models.RoleOwner, views[0].Role)
}
