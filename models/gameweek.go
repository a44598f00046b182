package models

import "time"

// GameweekDeadline holds the pick window timestamps for one gameweek.
// Exactly one row exists per gameweek; derived from fixture data with
// the pick deadline one hour before first kickoff and the odds refresh
// one hour after.
type GameweekDeadline struct {
	Gameweek      int       `json:"gameweek" bson:"gameweek"`
	FirstKickoff  time.Time `json:"first_kickoff" bson:"first_kickoff"`
	PickDeadline  time.Time `json:"pick_deadline" bson:"pick_deadline"`
	OddsRefreshAt time.Time `json:"odds_refresh_at" bson:"odds_refresh_at"`
}

// GameweekContext pairs the two rows the schedule resolver cares about:
// the next deadline still open for picks and the most recently closed one.
type GameweekContext struct {
	Upcoming   *GameweekDeadline
	LastClosed *GameweekDeadline
}

// PickGameweek returns the gameweek picks should target right now:
// the next open window, else the one just closed, else gameweek 1
func (c GameweekContext) PickGameweek() int {
	if c.Upcoming != nil {
		return c.Upcoming.Gameweek
	}
	if c.LastClosed != nil {
		return c.LastClosed.Gameweek
	}
	return 1
}

// OddsGameweek returns the gameweek whose odds should be displayed:
// the one in progress or just finished, else the upcoming one
func (c GameweekContext) OddsGameweek() int {
	if c.LastClosed != nil {
		return c.LastClosed.Gameweek
	}
	if c.Upcoming != nil {
		return c.Upcoming.Gameweek
	}
	return c.PickGameweek()
}

// DeadlineFor returns the loaded deadline row for a gameweek, or nil
func (c GameweekContext) DeadlineFor(gameweek int) *GameweekDeadline {
	if c.LastClosed != nil && c.LastClosed.Gameweek == gameweek {
		return c.LastClosed
	}
	if c.Upcoming != nil && c.Upcoming.Gameweek == gameweek {
		return c.Upcoming
	}
	return nil
}

// OddsStatus describes whether the odds board is mid-refresh
type OddsStatus struct {
	IsUpdating      bool       `json:"isUpdating"`
	Deadline        *time.Time `json:"deadline"`
	RefreshAt       *time.Time `json:"refreshAt"`
	SnapshotTakenAt *time.Time `json:"snapshotTakenAt"`
}
