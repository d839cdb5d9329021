// Package igdb scrapes game metadata and art from the IGDB v4 API,
// authenticated through Twitch OAuth client credentials.
package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
)

var ErrAPIError = errors.New("IGDB API error")

// Client is an IGDB v4 API client. Queries are Apicalypse text bodies
// POSTed to per-entity endpoints.
type Client struct {
	http     *retryhttp.Client
	tokens   *TokenSource
	baseURL  string
	clientID string
	logger   zerolog.Logger
}

// NewClient creates an IGDB client sharing the given token source.
func NewClient(cfg config.IGDBConfig, tokens *TokenSource, logger zerolog.Logger) *Client {
	return &Client{
		http: retryhttp.New(&http.Client{Timeout: cfg.Timeout()},
			logger.With().Str("component", "igdb").Logger()),
		tokens:   tokens,
		baseURL:  cfg.BaseURL,
		clientID: cfg.ClientID,
		logger:   logger.With().Str("component", "igdb").Logger(),
	}
}

// IsConfigured returns true if Twitch credentials are present.
func (c *Client) IsConfigured() bool {
	return c.clientID != "" && c.tokens != nil
}

// SearchGames performs a full-text name search.
func (c *Client) SearchGames(ctx context.Context, name string) ([]Game, error) {
	query := fmt.Sprintf(`search %q; fields id,name,platforms,cover,screenshots,videos; limit 50;`, name)
	var games []Game
	if err := c.doRequest(ctx, "games", query, &games); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("name", name).Int("results", len(games)).Msg("game search completed")
	return games, nil
}

// AlternativeNames fetches the alternate titles of the given games.
func (c *Client) AlternativeNames(ctx context.Context, gameIDs []int) ([]AlternativeName, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`fields id,game,name; where game = (%s); limit 500;`, joinIDs(gameIDs))
	var names []AlternativeName
	if err := c.doRequest(ctx, "alternative_names", query, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Covers fetches a game's box cover art at 1080p resolution.
func (c *Client) Covers(ctx context.Context, gameID int) ([]Artwork, error) {
	return c.artwork(ctx, "covers", gameID, "t_1080p")
}

// Screenshots fetches a game's screenshots at full resolution.
func (c *Client) Screenshots(ctx context.Context, gameID int) ([]Artwork, error) {
	return c.artwork(ctx, "screenshots", gameID, "t_screenshot_huge")
}

// Videos fetches a game's video entries.
func (c *Client) Videos(ctx context.Context, gameID int) ([]Video, error) {
	query := fmt.Sprintf(`fields id,game,name,video_id; where game = %d; limit 50;`, gameID)
	var videos []Video
	if err := c.doRequest(ctx, "game_videos", query, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (c *Client) artwork(ctx context.Context, kind string, gameID int, size string) ([]Artwork, error) {
	query := fmt.Sprintf(`fields id,game,url,width,height; where game = %d; limit 50;`, gameID)
	var art []Artwork
	if err := c.doRequest(ctx, kind, query, &art); err != nil {
		return nil, err
	}

	for i := range art {
		art[i].URL = upscaleURL(art[i].URL, size)
	}

	c.logger.Debug().Str("kind", kind).Int("gameId", gameID).
		Int("results", len(art)).Msg("artwork fetched")
	return art, nil
}

// upscaleURL rewrites IGDB's protocol-relative thumbnail URL to an
// absolute URL at the requested size variant.
func upscaleURL(raw, size string) string {
	if raw == "" {
		return raw
	}
	raw = strings.Replace(raw, "t_thumb", size, 1)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	return raw
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// doRequest POSTs an Apicalypse query and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, entity, query string, result interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, entity)
	resp, err := c.http.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(query))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Client-ID", c.clientID)
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
