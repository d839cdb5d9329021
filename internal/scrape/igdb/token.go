package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
)

var ErrAuthFailed = errors.New("IGDB authentication failed")

// tokenResponse is the Twitch OAuth client-credentials grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenSource caches a Twitch-issued OAuth bearer token for IGDB. One
// instance is shared by every scraper the process creates; the mutex
// makes concurrent first-pass callers wait on a single fetch instead of
// issuing duplicate token requests.
type TokenSource struct {
	http         *retryhttp.Client
	tokenURL     string
	clientID     string
	clientSecret string
	logger       zerolog.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenSource creates a token cache for the given Twitch credentials.
func NewTokenSource(tokenURL, clientID, clientSecret string, httpClient *retryhttp.Client, logger zerolog.Logger) *TokenSource {
	if httpClient == nil {
		httpClient = retryhttp.New(&http.Client{Timeout: 30 * time.Second}, logger)
	}
	return &TokenSource{
		http:         httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger.With().Str("component", "igdb-token").Logger(),
	}
}

// Token returns a valid bearer token, fetching a fresh one when the
// cached token is absent or past its expiry.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiry) {
		return t.token, nil
	}

	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)
	form.Set("grant_type", "client_credentials")
	body := form.Encode()

	resp, err := t.http.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, t.tokenURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Error().Int("status", resp.StatusCode).Msg("token request rejected")
		return "", fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", ErrAuthFailed
	}

	t.token = tr.AccessToken
	t.expiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second + time.Hour)

	t.logger.Debug().Time("expiry", t.expiry).Msg("token refreshed")
	return t.token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()
}
