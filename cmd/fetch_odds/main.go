package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"survivor-pool-go/config"
	"survivor-pool-go/database"
	"survivor-pool-go/services"
)

// fetch_odds takes one odds snapshot for the current gameweek. Run it
// from cron around each gameweek's kickoffs. Exits 0 on success or an
// empty feed, 1 on any fatal error.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch_odds: configuration error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Odds.APIKey == "" {
		fmt.Fprintln(os.Stderr, "fetch_odds: ODDS_API_KEY is required")
		os.Exit(1)
	}

	db, err := database.NewMongoConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch_odds: database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gameweekRepo := database.NewMongoGameweekRepository(db)
	oddsRepo := database.NewMongoOddsRepository(db)

	feed := services.NewOddsFeedClient(cfg.Odds)
	gameweekService := services.NewGameweekService(gameweekRepo)
	oddsService := services.NewOddsService(feed, oddsRepo, gameweekService, cfg.BookmakerList())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := oddsService.RunIngestion(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch_odds: ingestion failed: %v\n", err)
		os.Exit(1)
	}

	if result.SnapshotID == "" {
		fmt.Printf("No events in feed for GW%d; nothing written.\n", result.Gameweek)
		return
	}
	fmt.Printf("Snapshot %s for GW%d: %d events, %d rows (quota remaining: %s)\n",
		result.SnapshotID, result.Gameweek, result.Events, result.Rows, result.Usage.Remaining)
}
