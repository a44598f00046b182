package models

import "time"

// MatchResult is a team's W/D/L outcome for one gameweek
type MatchResult string

const (
	ResultWin  MatchResult = "W"
	ResultDraw MatchResult = "D"
	ResultLoss MatchResult = "L"
)

// Valid reports whether the value is a known result
func (r MatchResult) Valid() bool {
	return r == ResultWin || r == ResultDraw || r == ResultLoss
}

// TeamResult records a team's result for a gameweek, upserted keyed on
// (gameweek, team_id). Losses feed the elimination pass that decrements
// member lives.
type TeamResult struct {
	Gameweek   int         `json:"gameweek" bson:"gameweek"`
	TeamID     int         `json:"team_id" bson:"team_id"`
	Result     MatchResult `json:"result" bson:"result"`
	OpponentID int         `json:"opponent_id" bson:"opponent_id"`
	IsHome     bool        `json:"is_home" bson:"is_home"`
	MatchDate  time.Time   `json:"match_date" bson:"match_date"`
}
