package models

import "time"

// OddsSnapshot represents one odds ingestion run
type OddsSnapshot struct {
	ID          string    `json:"id" bson:"_id"`
	Gameweek    int       `json:"gameweek" bson:"gameweek"`
	TakenAt     time.Time `json:"taken_at" bson:"taken_at"`
	WindowStart time.Time `json:"window_start" bson:"window_start"`
	WindowEnd   time.Time `json:"window_end" bson:"window_end"`
}

// GameOdds holds one bookmaker's head-to-head prices for one event
// within a snapshot. Implied probabilities are 1/price when the price
// is greater than 1; margin is the overround (sum of implied minus 1).
type GameOdds struct {
	SnapshotID        string     `json:"snapshot_id" bson:"snapshot_id"`
	EventID           string     `json:"event_id" bson:"event_id"`
	Bookmaker         string     `json:"bookmaker" bson:"bookmaker"`
	CommenceTime      time.Time  `json:"commence_time" bson:"commence_time"`
	HomeTeam          string     `json:"home_team" bson:"home_team"`
	AwayTeam          string     `json:"away_team" bson:"away_team"`
	LastUpdate        *time.Time `json:"last_update,omitempty" bson:"last_update,omitempty"`
	HomePriceDecimal  *float64   `json:"home_price_decimal" bson:"home_price_decimal"`
	DrawPriceDecimal  *float64   `json:"draw_price_decimal" bson:"draw_price_decimal"`
	AwayPriceDecimal  *float64   `json:"away_price_decimal" bson:"away_price_decimal"`
	ImpliedHome       *float64   `json:"implied_home" bson:"implied_home"`
	ImpliedDraw       *float64   `json:"implied_draw" bson:"implied_draw"`
	ImpliedAway       *float64   `json:"implied_away" bson:"implied_away"`
	Margin            *float64   `json:"margin" bson:"margin"`
}

// OddsBestRow is the best price per outcome for one event across all
// bookmakers in the latest snapshot
type OddsBestRow struct {
	Gameweek     int       `json:"gameweek"`
	EventID      string    `json:"event_id"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	BestHome     *float64  `json:"best_home"`
	BestDraw     *float64  `json:"best_draw"`
	BestAway     *float64  `json:"best_away"`
	PHome        *float64  `json:"p_home"`
	PDraw        *float64  `json:"p_draw"`
	PAway        *float64  `json:"p_away"`
}

// TeamWinPct is one team's implied win chance derived from its best price
type TeamWinPct struct {
	Gameweek     int       `json:"gameweek"`
	EventID      string    `json:"event_id"`
	CommenceTime time.Time `json:"commence_time"`
	Team         string    `json:"team"`
	Opponent     string    `json:"opponent"`
	Side         string    `json:"side"` // "H" or "A"
	PriceDecimal *float64  `json:"price_decimal"`
	WinPct       *float64  `json:"win_pct"`
}
