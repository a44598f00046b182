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

// update_deadlines refreshes the per-gameweek pick deadlines from the
// season fixture feed. Run it after fixture rescheduling announcements.
// Exits 0 on success or an empty feed, 1 on any fatal error.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "update_deadlines: configuration error: %v\n", err)
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
		fmt.Fprintf(os.Stderr, "update_deadlines: database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gameweekRepo := database.NewMongoGameweekRepository(db)
	feed := services.NewFixtureFeedClient(cfg.Odds.FixtureURL)
	deadlineService := services.NewDeadlineService(feed, gameweekRepo)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	count, err := deadlineService.UpdateDeadlines(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "update_deadlines: %v\n", err)
		os.Exit(1)
	}

	if count == 0 {
		fmt.Println("No fixtures found; nothing to upsert.")
		return
	}
	fmt.Printf("Upserted %d gameweek deadline rows.\n", count)
}
