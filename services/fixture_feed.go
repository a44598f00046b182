package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"survivor-pool-go/logging"
)

// FixtureFeedClient fetches the season's fixture list, used to derive
// per-gameweek pick deadlines
type FixtureFeedClient struct {
	client  *http.Client
	feedURL string
	logger  *logging.Logger
}

// NewFixtureFeedClient creates a new fixture feed client
func NewFixtureFeedClient(feedURL string) *FixtureFeedClient {
	return &FixtureFeedClient{
		client:  &http.Client{Timeout: 15 * time.Second},
		feedURL: feedURL,
		logger:  logging.WithPrefix("FixtureFeed"),
	}
}

// Fixture is one match from the fixture feed
type Fixture struct {
	MatchNumber int         `json:"MatchNumber"`
	RoundNumber int         `json:"RoundNumber"`
	DateUtc     FixtureTime `json:"DateUtc"`
	HomeTeam    string      `json:"HomeTeam"`
	AwayTeam    string      `json:"AwayTeam"`
	HomeScore   *int        `json:"HomeTeamScore"`
	AwayScore   *int        `json:"AwayTeamScore"`
}

// FixtureTime parses the feed's "2025-08-15 19:00:00Z" timestamps,
// falling back to RFC 3339
type FixtureTime struct {
	time.Time
}

const fixtureTimeLayout = "2006-01-02 15:04:05Z07:00"

func (t *FixtureTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.Parse(fixtureTimeLayout, raw)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid fixture date %q: %w", raw, err)
		}
	}
	t.Time = parsed
	return nil
}

// FetchFixtures downloads and decodes the season fixture list
func (c *FixtureFeedClient) FetchFixtures(ctx context.Context) ([]Fixture, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fixture request: %w", err)
	}

	c.logger.Debugf("Fetching fixtures from %s", c.feedURL)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fixture feed returned status %d: %s", resp.StatusCode, string(body))
	}

	var fixtures []Fixture
	if err := json.NewDecoder(resp.Body).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("failed to decode fixture feed: %w", err)
	}

	c.logger.Infof("Received %d fixtures", len(fixtures))
	return fixtures, nil
}
