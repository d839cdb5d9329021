// Package steamgriddb scrapes game art from the SteamGridDB REST v2 API.
package steamgriddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
)

var (
	ErrAPIKeyMissing = errors.New("SteamGridDB API key is not configured")
	ErrAPIError      = errors.New("SteamGridDB API error")
)

// Client is a SteamGridDB REST v2 API client.
type Client struct {
	http    *retryhttp.Client
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

// NewClient creates a new SteamGridDB client.
func NewClient(cfg config.SteamGridDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		http: retryhttp.New(&http.Client{Timeout: cfg.Timeout()},
			logger.With().Str("component", "steamgriddb").Logger()),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger.With().Str("component", "steamgriddb").Logger(),
	}
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SearchGames searches by name via the autocomplete endpoint.
func (c *Client) SearchGames(ctx context.Context, name string) ([]Game, error) {
	endpoint := fmt.Sprintf("%s/search/autocomplete/%s", c.baseURL, url.PathEscape(name))
	var resp envelope[Game]
	if err := c.doRequest(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("name", name).Int("results", len(resp.Data)).Msg("game search completed")
	return resp.Data, nil
}

// Grids fetches grid assets (title art) for a game, optionally filtered by
// accepted styles.
func (c *Client) Grids(ctx context.Context, gameID int, styles []string) ([]Asset, error) {
	return c.assets(ctx, "grids", gameID, styles)
}

// Logos fetches logo assets for a game.
func (c *Client) Logos(ctx context.Context, gameID int, styles []string) ([]Asset, error) {
	return c.assets(ctx, "logos", gameID, styles)
}

// Heroes fetches hero assets for a game.
func (c *Client) Heroes(ctx context.Context, gameID int, styles []string) ([]Asset, error) {
	return c.assets(ctx, "heroes", gameID, styles)
}

func (c *Client) assets(ctx context.Context, kind string, gameID int, styles []string) ([]Asset, error) {
	endpoint := fmt.Sprintf("%s/%s/game/%d", c.baseURL, kind, gameID)
	params := url.Values{}
	for _, style := range styles {
		params.Add("styles", style)
	}

	var resp envelope[Asset]
	if err := c.doRequest(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("kind", kind).Int("gameId", gameID).
		Int("results", len(resp.Data)).Msg("assets fetched")
	return resp.Data, nil
}

// doRequest performs an authenticated GET and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	resp, err := c.http.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
