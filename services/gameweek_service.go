package services

import (
	"context"
	"fmt"
	"time"

	"survivor-pool-go/models"
)

// GameweekRepository interface for gameweek deadline data
type GameweekRepository interface {
	UpsertMany(ctx context.Context, deadlines []models.GameweekDeadline) (int, error)
	FindUpcoming(ctx context.Context, now time.Time) (*models.GameweekDeadline, error)
	FindLastClosed(ctx context.Context, now time.Time) (*models.GameweekDeadline, error)
}

// GameweekService resolves which gameweek each surface of the app
// should operate on. Picks target the next open gameweek, odds display
// stays on the gameweek whose matches are in progress, and ingestion
// follows the odds gameweek.
type GameweekService struct {
	gameweekRepo GameweekRepository
}

// NewGameweekService creates a new gameweek service
func NewGameweekService(gameweekRepo GameweekRepository) *GameweekService {
	return &GameweekService{gameweekRepo: gameweekRepo}
}

// ResolveContext loads the upcoming and last-closed deadlines relative
// to now. Upcoming is the earliest deadline at or after now, last
// closed the latest deadline at or before now.
func (s *GameweekService) ResolveContext(ctx context.Context, now time.Time) (*models.GameweekContext, error) {
	upcoming, err := s.gameweekRepo.FindUpcoming(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("upcoming deadline lookup failed: %w", err)
	}

	lastClosed, err := s.gameweekRepo.FindLastClosed(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("last closed deadline lookup failed: %w", err)
	}

	return &models.GameweekContext{
		Upcoming:   upcoming,
		LastClosed: lastClosed,
	}, nil
}

// IngestionGameweek is the gameweek an odds fetch should target:
// the gameweek currently being played, else the next one, else 1
func (s *GameweekService) IngestionGameweek(ctx context.Context, now time.Time) (int, error) {
	gwCtx, err := s.ResolveContext(ctx, now)
	if err != nil {
		return 0, err
	}

	if gwCtx.LastClosed != nil {
		return gwCtx.LastClosed.Gameweek, nil
	}
	if gwCtx.Upcoming != nil {
		return gwCtx.Upcoming.Gameweek, nil
	}
	return 1, nil
}

// ComputeOddsStatus decides whether the odds for a gameweek are stale
// because its matches are under way. Deadline and refresh fall back to
// one hour either side of the earliest kickoff among the loaded odds
// rows when the fixture feed has not supplied them.
func ComputeOddsStatus(deadline, refreshAt *time.Time, earliestKickoff *time.Time, snapshotTakenAt *time.Time, now time.Time) models.OddsStatus {
	status := models.OddsStatus{
		Deadline:        deadline,
		RefreshAt:       refreshAt,
		SnapshotTakenAt: snapshotTakenAt,
	}

	if status.Deadline == nil && earliestKickoff != nil {
		d := earliestKickoff.Add(-time.Hour)
		status.Deadline = &d
	}
	if status.RefreshAt == nil && earliestKickoff != nil {
		r := earliestKickoff.Add(time.Hour)
		status.RefreshAt = &r
	}

	if status.Deadline == nil || status.RefreshAt == nil {
		return status
	}

	inWindow := !now.Before(*status.Deadline) && now.Before(*status.RefreshAt)
	snapshotFresh := snapshotTakenAt != nil && !snapshotTakenAt.Before(*status.Deadline)
	status.IsUpdating = inWindow && !snapshotFresh

	return status
}
