package services

import (
	"context"

	"survivor-pool-go/logging"
	"survivor-pool-go/models"
)

// TeamSeedRepository is the subset of team storage the seeder needs
type TeamSeedRepository interface {
	Count(ctx context.Context) (int64, error)
	CreateMany(ctx context.Context, teams []models.Team) error
}

// TeamSeeder loads the season's clubs on first start
type TeamSeeder struct {
	teamRepo TeamSeedRepository
}

// NewTeamSeeder creates a new team seeder
func NewTeamSeeder(teamRepo TeamSeedRepository) *TeamSeeder {
	return &TeamSeeder{teamRepo: teamRepo}
}

// premierLeagueTeams is the 2025-26 Premier League season, with names
// matching the fixture feed so result entry lines up with fixtures
var premierLeagueTeams = []models.Team{
	{ID: 1, Name: "Arsenal"},
	{ID: 2, Name: "Aston Villa"},
	{ID: 3, Name: "Bournemouth"},
	{ID: 4, Name: "Brentford"},
	{ID: 5, Name: "Brighton"},
	{ID: 6, Name: "Burnley"},
	{ID: 7, Name: "Chelsea"},
	{ID: 8, Name: "Crystal Palace"},
	{ID: 9, Name: "Everton"},
	{ID: 10, Name: "Fulham"},
	{ID: 11, Name: "Leeds"},
	{ID: 12, Name: "Liverpool"},
	{ID: 13, Name: "Man City"},
	{ID: 14, Name: "Man Utd"},
	{ID: 15, Name: "Newcastle"},
	{ID: 16, Name: "Nott'm Forest"},
	{ID: 17, Name: "Sunderland"},
	{ID: 18, Name: "Tottenham"},
	{ID: 19, Name: "West Ham"},
	{ID: 20, Name: "Wolves"},
}

// SeedTeams inserts the club list when the collection is empty.
// An already seeded database is left untouched.
func (s *TeamSeeder) SeedTeams(ctx context.Context) error {
	count, err := s.teamRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Debugf("Teams already seeded (%d present)", count)
		return nil
	}

	if err := s.teamRepo.CreateMany(ctx, premierLeagueTeams); err != nil {
		return err
	}

	logging.Infof("Seeded %d teams", len(premierLeagueTeams))
	return nil
}
