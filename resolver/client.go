// Package resolver is the HTTP client for the two external
// collaborators: the narrative combat resolver and the moderation
// service. Both are untrusted; transport failures and 5xx responses are
// retried with constant backoff, while malformed payloads are permanent
// errors the caller treats as a recoverable abandoned cycle.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"brawler/config"
	"brawler/models"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

var retryInterval = 2 * time.Second

// Client talks to the combat resolver / moderation service
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retries    uint64
}

// NewClient creates a resolver client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.ResolverTimeout},
		baseURL:    cfg.ResolverURL,
		apiKey:     cfg.ResolverAPIKey,
		retries:    uint64(cfg.ResolverRetries),
	}
}

// fighterProfile is the wire form of one combatant, public and private
// fields both, as the resolver contract requires.
type fighterProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Personality string   `json:"personality"`
	Alignment   string   `json:"alignment"`
	Popularity  int      `json:"popularity"`
	HP          int      `json:"hp"`
	Agility     int      `json:"agility"`
	Power       int      `json:"power"`
	Wins        int      `json:"wins"`
	Losses      int      `json:"losses"`
	Titles      []string `json:"titles"`
}

type matchRequest struct {
	Sides      [2][]fighterProfile `json:"sides"`
	WinnerBias int                 `json:"winner_bias"`
	Volatility int                 `json:"volatility"`
}

type moderationItem struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

type moderationRequest struct {
	Submissions []moderationItem `json:"submissions"`
}

// RunMatch asks the resolver to fight the match. The two influence
// scalars are uniform 1-100. The response is validated strictly: an
// unknown winner id or an empty battle log is a malformed payload.
func (c *Client) RunMatch(ctx context.Context, match *models.Match, winnerBias, volatility int) (*models.FightOutcome, error) {
	req := matchRequest{
		WinnerBias: winnerBias,
		Volatility: volatility,
	}
	for i, side := range match.Sides {
		req.Sides[i] = make([]fighterProfile, 0, len(side))
		for _, f := range side {
			req.Sides[i] = append(req.Sides[i], fighterProfile{
				ID:          f.ID,
				Name:        f.Name,
				Description: f.Description,
				Personality: f.Personality,
				Alignment:   f.Alignment,
				Popularity:  f.Popularity,
				HP:          f.HP,
				Agility:     f.Agility,
				Power:       f.Power,
				Wins:        f.Wins,
				Losses:      f.Losses,
				Titles:      f.Titles,
			})
		}
	}

	operation := func() (*models.FightOutcome, error) {
		body, err := c.post(ctx, "/fight", req)
		if err != nil {
			return nil, err
		}

		var outcome models.FightOutcome
		if err := json.Unmarshal(body, &outcome); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("malformed resolver response: %w", err))
		}
		if match.WinnerSide(outcome.WinnerID) < 0 {
			return nil, backoff.Permanent(fmt.Errorf("resolver named unknown winner %q", outcome.WinnerID))
		}
		if len(outcome.BattleLog) == 0 {
			return nil, backoff.Permanent(fmt.Errorf("resolver returned an empty battle log"))
		}
		return &outcome, nil
	}

	outcome, err := backoff.RetryWithData(operation, c.backOff(ctx))
	if err != nil {
		return nil, fmt.Errorf("resolver call failed: %w", err)
	}
	return outcome, nil
}

// Moderate screens a batch of pending submissions. The response maps
// fighter id to verdict; ids the service omits stay pending.
func (c *Client) Moderate(ctx context.Context, batch []*models.Fighter) (map[string]models.ModerationDecision, error) {
	req := moderationRequest{Submissions: make([]moderationItem, 0, len(batch))}
	for _, f := range batch {
		req.Submissions = append(req.Submissions, moderationItem{ID: f.ID, Image: f.ImageFile})
	}

	operation := func() (map[string]models.ModerationDecision, error) {
		body, err := c.post(ctx, "/moderate", req)
		if err != nil {
			return nil, err
		}

		var decisions map[string]models.ModerationDecision
		if err := json.Unmarshal(body, &decisions); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("malformed moderation response: %w", err))
		}
		return decisions, nil
	}

	decisions, err := backoff.RetryWithData(operation, c.backOff(ctx))
	if err != nil {
		return nil, fmt.Errorf("moderation call failed: %w", err)
	}
	return decisions, nil
}

// post sends one JSON request. Transport errors and 5xx responses are
// retryable; any other non-200 status is permanent.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("Resolver request failed; retrying")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("resolver returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("resolver returned %d", resp.StatusCode))
	}
	return body, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), c.retries), ctx)
}
