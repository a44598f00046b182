package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"survivor-pool-go/models"
)

// In-memory repository fakes shared by the service tests.

type fakePoolRepo struct {
	pools       map[primitive.ObjectID]models.Pool
	createErr   error
	findCodeErr error
	deleted     []primitive.ObjectID
}

func newFakePoolRepo() *fakePoolRepo {
	return &fakePoolRepo{pools: make(map[primitive.ObjectID]models.Pool)}
}

func (f *fakePoolRepo) Create(_ context.Context, pool *models.Pool) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.pools {
		if existing.Code == pool.Code {
			return errors.New("duplicate code")
		}
	}
	pool.ID = primitive.NewObjectID()
	f.pools[pool.ID] = *pool
	return nil
}

func (f *fakePoolRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Pool, error) {
	if pool, ok := f.pools[id]; ok {
		copied := pool
		return &copied, nil
	}
	return nil, nil
}

func (f *fakePoolRepo) FindByCode(_ context.Context, code string) (*models.Pool, error) {
	if f.findCodeErr != nil {
		return nil, f.findCodeErr
	}
	for _, pool := range f.pools {
		if pool.Code == code {
			copied := pool
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePoolRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Pool, error) {
	result := make([]models.Pool, 0, len(ids))
	for _, id := range ids {
		if pool, ok := f.pools[id]; ok {
			result = append(result, pool)
		}
	}
	return result, nil
}

func (f *fakePoolRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(f.pools, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeMemberRepo struct {
	members   []models.PoolMember
	createErr error
}

func (f *fakeMemberRepo) Create(_ context.Context, member *models.PoolMember) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.members {
		if existing.PoolID == member.PoolID && existing.UserID == member.UserID {
			return errors.New("duplicate membership")
		}
	}
	member.ID = primitive.NewObjectID()
	f.members = append(f.members, *member)
	return nil
}

func (f *fakeMemberRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.PoolMember, error) {
	for _, member := range f.members {
		if member.ID == id {
			copied := member
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) FindByPoolAndUser(_ context.Context, poolID primitive.ObjectID, userID int) (*models.PoolMember, error) {
	for _, member := range f.members {
		if member.PoolID == poolID && member.UserID == userID {
			copied := member
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) FindByPool(_ context.Context, poolID primitive.ObjectID) ([]models.PoolMember, error) {
	result := make([]models.PoolMember, 0)
	for _, member := range f.members {
		if member.PoolID == poolID {
			result = append(result, member)
		}
	}
	return result, nil
}

func (f *fakeMemberRepo) FindByUser(_ context.Context, userID int) ([]models.PoolMember, error) {
	result := make([]models.PoolMember, 0)
	for _, member := range f.members {
		if member.UserID == userID {
			result = append(result, member)
		}
	}
	return result, nil
}

func (f *fakeMemberRepo) CountByPools(_ context.Context, poolIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	counts := make(map[primitive.ObjectID]int)
	for _, id := range poolIDs {
		for _, member := range f.members {
			if member.PoolID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (f *fakeMemberRepo) UpdateStanding(_ context.Context, id primitive.ObjectID, lives int, status models.MemberStatus) error {
	for i := range f.members {
		if f.members[i].ID == id {
			f.members[i].LivesRemaining = lives
			f.members[i].Status = status
			return nil
		}
	}
	return errors.New("member not found")
}

func (f *fakeMemberRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range f.members {
		if f.members[i].ID == id {
			f.members = append(f.members[:i], f.members[i+1:]...)
			return nil
		}
	}
	return errors.New("member not found")
}

type fakePickRepo struct {
	picks []models.Pick
}

func (f *fakePickRepo) Upsert(_ context.Context, pick *models.Pick) error {
	for i := range f.picks {
		if f.picks[i].PoolID == pick.PoolID && f.picks[i].UserID == pick.UserID && f.picks[i].Gameweek == pick.Gameweek {
			f.picks[i].TeamID = pick.TeamID
			f.picks[i].UpdatedAt = pick.UpdatedAt
			return nil
		}
	}
	pick.ID = primitive.NewObjectID()
	f.picks = append(f.picks, *pick)
	return nil
}

func (f *fakePickRepo) FindByPoolUserGameweek(_ context.Context, poolID primitive.ObjectID, userID, gameweek int) (*models.Pick, error) {
	for _, pick := range f.picks {
		if pick.PoolID == poolID && pick.UserID == userID && pick.Gameweek == gameweek {
			copied := pick
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePickRepo) FindTeamUse(_ context.Context, poolID primitive.ObjectID, userID, teamID, excludeGameweek int) (*models.Pick, error) {
	for _, pick := range f.picks {
		if pick.PoolID == poolID && pick.UserID == userID && pick.TeamID == teamID && pick.Gameweek != excludeGameweek {
			copied := pick
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePickRepo) FindByPoolAndUser(_ context.Context, poolID primitive.ObjectID, userID int) ([]models.Pick, error) {
	result := make([]models.Pick, 0)
	for _, pick := range f.picks {
		if pick.PoolID == poolID && pick.UserID == userID {
			result = append(result, pick)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Gameweek < result[j].Gameweek })
	return result, nil
}

func (f *fakePickRepo) FindByUserAndGameweek(_ context.Context, userID, gameweek int, poolIDs []primitive.ObjectID) ([]models.Pick, error) {
	inScope := make(map[primitive.ObjectID]bool, len(poolIDs))
	for _, id := range poolIDs {
		inScope[id] = true
	}
	result := make([]models.Pick, 0)
	for _, pick := range f.picks {
		if pick.UserID == userID && pick.Gameweek == gameweek && inScope[pick.PoolID] {
			result = append(result, pick)
		}
	}
	return result, nil
}

func (f *fakePickRepo) FindByGameweek(_ context.Context, gameweek int) ([]models.Pick, error) {
	result := make([]models.Pick, 0)
	for _, pick := range f.picks {
		if pick.Gameweek == gameweek {
			result = append(result, pick)
		}
	}
	return result, nil
}

type fakeTeamRepo struct {
	teams []models.Team
}

func (f *fakeTeamRepo) GetAll(_ context.Context) ([]models.Team, error) {
	return append([]models.Team(nil), f.teams...), nil
}

func (f *fakeTeamRepo) FindByID(_ context.Context, id int) (*models.Team, error) {
	for _, team := range f.teams {
		if team.ID == id {
			copied := team
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTeamRepo) FindByIDs(_ context.Context, ids []int) ([]models.Team, error) {
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	result := make([]models.Team, 0)
	for _, team := range f.teams {
		if wanted[team.ID] {
			result = append(result, team)
		}
	}
	return result, nil
}

func (f *fakeTeamRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.teams)), nil
}

func (f *fakeTeamRepo) CreateMany(_ context.Context, teams []models.Team) error {
	f.teams = append(f.teams, teams...)
	return nil
}

type fakeGameweekRepo struct {
	rows []models.GameweekDeadline
}

func (f *fakeGameweekRepo) UpsertMany(_ context.Context, deadlines []models.GameweekDeadline) (int, error) {
	for _, deadline := range deadlines {
		replaced := false
		for i := range f.rows {
			if f.rows[i].Gameweek == deadline.Gameweek {
				f.rows[i] = deadline
				replaced = true
				break
			}
		}
		if !replaced {
			f.rows = append(f.rows, deadline)
		}
	}
	return len(deadlines), nil
}

func (f *fakeGameweekRepo) FindUpcoming(_ context.Context, now time.Time) (*models.GameweekDeadline, error) {
	var best *models.GameweekDeadline
	for i := range f.rows {
		row := f.rows[i]
		if row.PickDeadline.Before(now) {
			continue
		}
		if best == nil || row.PickDeadline.Before(best.PickDeadline) {
			copied := row
			best = &copied
		}
	}
	return best, nil
}

func (f *fakeGameweekRepo) FindLastClosed(_ context.Context, now time.Time) (*models.GameweekDeadline, error) {
	var best *models.GameweekDeadline
	for i := range f.rows {
		row := f.rows[i]
		if row.PickDeadline.After(now) {
			continue
		}
		if best == nil || row.PickDeadline.After(best.PickDeadline) {
			copied := row
			best = &copied
		}
	}
	return best, nil
}

type fakeOddsRepo struct {
	snapshots []models.OddsSnapshot
	rows      []models.GameOdds
}

func (f *fakeOddsRepo) InsertSnapshot(_ context.Context, snapshot *models.OddsSnapshot) error {
	f.snapshots = append(f.snapshots, *snapshot)
	return nil
}

func (f *fakeOddsRepo) LatestSnapshotForGameweek(_ context.Context, gameweek int) (*models.OddsSnapshot, error) {
	var latest *models.OddsSnapshot
	for i := range f.snapshots {
		snapshot := f.snapshots[i]
		if snapshot.Gameweek != gameweek {
			continue
		}
		if latest == nil || snapshot.TakenAt.After(latest.TakenAt) {
			copied := snapshot
			latest = &copied
		}
	}
	return latest, nil
}

func (f *fakeOddsRepo) UpsertGameOdds(_ context.Context, rows []models.GameOdds) (int, error) {
	f.rows = append(f.rows, rows...)
	return len(rows), nil
}

func (f *fakeOddsRepo) FindBySnapshot(_ context.Context, snapshotID string) ([]models.GameOdds, error) {
	result := make([]models.GameOdds, 0)
	for _, row := range f.rows {
		if row.SnapshotID == snapshotID {
			result = append(result, row)
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUserByID(id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		copied := user
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUsersByIDs(ids []int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

// NextUserID allocates like the real repository's counter increment: a
// repeated call hands out a fresh ID even before the first is inserted.
func (f *fakeUserRepo) NextUserID() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextID == 0 {
		for id := range f.users {
			if id > f.nextID {
				f.nextID = id
			}
		}
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeUserRepo) CreateUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) UpdateUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
	return nil
}

type fakeResultRepo struct {
	results []models.TeamResult
}

func (f *fakeResultRepo) UpsertMany(_ context.Context, results []models.TeamResult) error {
	for _, result := range results {
		replaced := false
		for i := range f.results {
			if f.results[i].Gameweek == result.Gameweek && f.results[i].TeamID == result.TeamID {
				f.results[i] = result
				replaced = true
				break
			}
		}
		if !replaced {
			f.results = append(f.results, result)
		}
	}
	return nil
}

func (f *fakeResultRepo) FindAll(_ context.Context) ([]models.TeamResult, error) {
	return append([]models.TeamResult(nil), f.results...), nil
}

func (f *fakeResultRepo) FindByGameweek(_ context.Context, gameweek int) ([]models.TeamResult, error) {
	result := make([]models.TeamResult, 0)
	for _, row := range f.results {
		if row.Gameweek == gameweek {
			result = append(result, row)
		}
	}
	return result, nil
}
