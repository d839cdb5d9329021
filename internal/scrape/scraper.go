// Package scrape defines the scraper contract shared by all providers and
// the service that coordinates them.
package scrape

import (
	"context"

	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/sanitize"
)

// Request is one scrape call against one provider. Previous carries the
// merged first-pass result on the second pass; State carries the match
// state the same provider returned from its first pass. Both are nil on
// the first pass.
type Request struct {
	Platform string
	Name     string
	Previous *media.MediaContext
	State    *media.ScrapeState
}

// Result pairs the media a provider found with the match state the
// orchestrator hands back for the second pass.
type Result struct {
	Context *media.MediaContext
	State   *media.ScrapeState
}

// Scraper is one external media source.
type Scraper interface {
	// Source identifies the provider.
	Source() media.Source
	// FillsGaps reports whether the provider participates in the second
	// pass to fetch roles other sources left empty.
	FillsGaps() bool
	// ScrapeMedia queries the provider. A nil result means nothing was
	// found; provider failures are logged inside and also surface as a
	// nil result so one source can never abort the overall scrape.
	ScrapeMedia(ctx context.Context, req Request) (*Result, error)
}

// SearchLevels is the sanitization ladder providers walk when a search at
// the plain name comes back empty.
var SearchLevels = []sanitize.Level{
	sanitize.LevelNone,
	sanitize.LevelRegion,
	sanitize.LevelRegionAndSpecialCharacters,
}

// SearchLadder runs attempt with the name sanitized at each level in
// turn, stopping at the first level that yields a result. Levels that do
// not change the query are skipped. Errors from one level do not stop the
// ladder; the last one is returned if no level succeeds.
func SearchLadder[T any](ctx context.Context, name string, levels []sanitize.Level,
	attempt func(ctx context.Context, query string) (T, bool, error)) (T, bool, error) {

	var zero T
	var lastErr error
	seen := make(map[string]bool, len(levels))

	for _, level := range levels {
		query := sanitize.Sanitize(name, level)
		if query == "" || seen[query] {
			continue
		}
		seen[query] = true

		value, ok, err := attempt(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return value, true, nil
		}
	}

	return zero, false, lastErr
}
