package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"survivor-pool-go/config"
	"survivor-pool-go/logging"
)

// OddsFeedClient fetches head-to-head match odds from The Odds API
type OddsFeedClient struct {
	client *http.Client
	cfg    config.OddsConfig
	logger *logging.Logger
}

// NewOddsFeedClient creates a new odds feed client
func NewOddsFeedClient(cfg config.OddsConfig) *OddsFeedClient {
	return &OddsFeedClient{
		client: &http.Client{Timeout: 15 * time.Second},
		cfg:    cfg,
		logger: logging.WithPrefix("OddsFeed"),
	}
}

// Odds API response structures
type OddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime time.Time          `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []OddsAPIBookmaker `json:"bookmakers"`
}

type OddsAPIBookmaker struct {
	Key        string          `json:"key"`
	Title      string          `json:"title"`
	LastUpdate *time.Time      `json:"last_update,omitempty"`
	Markets    []OddsAPIMarket `json:"markets"`
}

type OddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []OddsAPIOutcome `json:"outcomes"`
}

type OddsAPIOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OddsAPIUsage carries the quota accounting the API reports per request
type OddsAPIUsage struct {
	Remaining string
	Used      string
	LastCost  string
}

// FetchOdds requests current h2h odds for the configured sport,
// restricted to the configured bookmakers
func (c *OddsFeedClient) FetchOdds(ctx context.Context) ([]OddsAPIEvent, *OddsAPIUsage, error) {
	query := url.Values{}
	query.Set("apiKey", c.cfg.APIKey)
	query.Set("regions", c.cfg.Regions)
	query.Set("markets", "h2h")
	query.Set("oddsFormat", "decimal")
	query.Set("dateFormat", "iso")
	query.Set("bookmakers", c.cfg.Bookmakers)

	requestURL := fmt.Sprintf("%s/v4/sports/%s/odds?%s", c.cfg.BaseURL, c.cfg.SportKey, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build odds request: %w", err)
	}

	c.logger.Debugf("Fetching odds for %s", c.cfg.SportKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch odds: %w", err)
	}
	defer resp.Body.Close()

	usage := &OddsAPIUsage{
		Remaining: resp.Header.Get("x-requests-remaining"),
		Used:      resp.Header.Get("x-requests-used"),
		LastCost:  resp.Header.Get("x-requests-last"),
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, usage, fmt.Errorf("odds API returned status %d: %s", resp.StatusCode, string(body))
	}

	var events []OddsAPIEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, usage, fmt.Errorf("failed to decode odds response: %w", err)
	}

	c.logger.Infof("Received %d events (quota remaining: %s)", len(events), usage.Remaining)
	return events, usage, nil
}

// HealthCheck verifies the odds API host is reachable
func (c *OddsFeedClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.BaseURL, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}
