// Package ign scrapes game art from IGN's GraphQL search API and, when
// enabled, the public game page HTML.
package ign

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
)

var ErrAPIError = errors.New("IGN API error")

// assetHostPrefix marks the CDN-hosted screenshots on a game page.
const assetHostPrefix = "https://assets"

const searchQuery = `query SearchObjectsByName($term: String!, $count: Int) {
  searchObjectsByName(term: $term, objectType: Game, count: $count) {
    objects {
      id
      slug
      metadata { names { name alt } }
      primaryImage { url width height }
      attributes { id name }
    }
  }
}`

// Client talks to IGN's GraphQL endpoint and fetches public game pages.
type Client struct {
	http        *retryhttp.Client
	endpoint    string
	pageBaseURL string
	userAgent   string
	logger      zerolog.Logger
}

// NewClient creates an IGN client.
func NewClient(cfg config.IGNConfig, userAgent string, logger zerolog.Logger) *Client {
	return &Client{
		http: retryhttp.New(&http.Client{Timeout: cfg.Timeout()},
			logger.With().Str("component", "ign").Logger()),
		endpoint:    cfg.Endpoint,
		pageBaseURL: cfg.PageBaseURL,
		userAgent:   userAgent,
		logger:      logger.With().Str("component", "ign").Logger(),
	}
}

// SearchGames searches IGN game objects by name.
func (c *Client) SearchGames(ctx context.Context, name string) ([]GameObject, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": searchQuery,
		"variables": map[string]interface{}{
			"term":  name,
			"count": 20,
		},
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAPIError, envelope.Errors[0].Message)
	}

	objects := envelope.Data.SearchObjectsByName.Objects
	c.logger.Debug().Str("name", name).Int("results", len(objects)).Msg("game search completed")
	return objects, nil
}

// PageImages fetches the public game page for a slug and extracts the
// CDN-hosted screenshot URLs from it.
func (c *Client) PageImages(ctx context.Context, slug string) ([]string, error) {
	pageURL := fmt.Sprintf("%s/%s", c.pageBaseURL, slug)

	resp, err := c.http.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/html")
		req.Header.Set("Accept-Encoding", "gzip")
		req.Header.Set("User-Agent", c.userAgent)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip page: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var urls []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if ok && strings.HasPrefix(src, assetHostPrefix) {
			urls = append(urls, src)
		}
	})

	c.logger.Debug().Str("slug", slug).Int("images", len(urls)).Msg("page scraped")
	return urls, nil
}
