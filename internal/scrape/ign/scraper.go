package ign

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/download"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/sanitize"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape"
)

// Scraper adapts IGN to the common scraper contract. The poster image
// serves both the icon and title roles; page screenshots become slides.
type Scraper struct {
	*scrape.Base
	client *Client
	cfg    config.IGNConfig
}

// New creates the IGN scraper.
func New(cfg config.IGNConfig, userAgent string, extensions []string,
	downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return &Scraper{
		Base:   scrape.NewBase(media.SourceIGN, &cfg.SourceConfig, extensions, downloader, logger),
		client: NewClient(cfg, userAgent, logger),
		cfg:    cfg,
	}
}

// NewWithClient creates the scraper around an existing client (tests).
func NewWithClient(cfg config.IGNConfig, client *Client, extensions []string,
	downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return &Scraper{
		Base:   scrape.NewBase(media.SourceIGN, &cfg.SourceConfig, extensions, downloader, logger),
		client: client,
		cfg:    cfg,
	}
}

// FillsGaps reports second-pass participation.
func (s *Scraper) FillsGaps() bool { return true }

// ScrapeMedia implements scrape.Scraper.
func (s *Scraper) ScrapeMedia(ctx context.Context, req scrape.Request) (*scrape.Result, error) {
	return s.Run(ctx, req, s.onScrapeMedia)
}

func (s *Scraper) onScrapeMedia(ctx context.Context, platformID, name string, req scrape.Request) (*media.MediaContext, *media.ScrapeState, error) {
	if req.State != nil {
		return s.fillGaps(ctx, req)
	}
	return s.firstPass(ctx, platformID, name)
}

// firstPass searches at three sanitization levels, restricts candidates
// to the requested platform attribute and matches the primary name first,
// then the alternates IGN returns inline.
func (s *Scraper) firstPass(ctx context.Context, platformID, name string) (*media.MediaContext, *media.ScrapeState, error) {
	game, found, err := scrape.SearchLadder(ctx, name, scrape.SearchLevels,
		func(ctx context.Context, query string) (GameObject, bool, error) {
			objects, err := s.client.SearchGames(ctx, query)
			if err != nil {
				return GameObject{}, false, err
			}
			return matchObject(name, platformID, objects)
		})
	if err != nil {
		return nil, nil, err
	}
	if !found {
		logger := s.Logger()
		logger.Debug().Str("game", name).Msg("no matching game")
		return nil, nil, nil
	}

	state := media.NewScrapeState(game.Slug)
	mc := media.NewContext()

	if game.PrimaryImage != nil && game.PrimaryImage.URL != "" {
		poster := func() *media.Image {
			return &media.Image{
				Media:  media.Media{URL: game.PrimaryImage.URL},
				Width:  game.PrimaryImage.Width,
				Height: game.PrimaryImage.Height,
			}
		}
		if s.cfg.Icons.Fetch {
			mc.Icons = append(mc.Icons, poster())
			state.MarkFetched(media.RoleIcon)
		}
		if s.cfg.Titles.Fetch {
			mc.Titles = append(mc.Titles, poster())
			state.MarkFetched(media.RoleTitle)
		}
	}

	if s.cfg.ScrapePage && s.cfg.Slides.Fetch {
		s.fetchSlides(ctx, game.Slug, mc, state)
	}

	return mc, state, nil
}

// matchObject filters candidates to the requested platform attribute and
// matches by primary name, then by each alternate name.
func matchObject(name, platformID string, objects []GameObject) (GameObject, bool, error) {
	candidates := objects[:0:0]
	for _, obj := range objects {
		if platformID != "" && !hasAttribute(obj, platformID) {
			continue
		}
		candidates = append(candidates, obj)
	}

	for _, obj := range candidates {
		if sanitize.Matches(name, obj.Metadata.Names.Name) {
			return obj, true, nil
		}
	}
	for _, obj := range candidates {
		for _, alt := range obj.Metadata.Names.Alt {
			if sanitize.Matches(name, alt) {
				return obj, true, nil
			}
		}
	}

	return GameObject{}, false, nil
}

func hasAttribute(obj GameObject, id string) bool {
	for _, attr := range obj.Attributes {
		if attr.ID == id {
			return true
		}
	}
	return false
}

// fillGaps re-scrapes the game page for slides when the merged first
// pass found none. The poster roles are first-pass only; re-fetching
// them would require a fresh search.
func (s *Scraper) fillGaps(ctx context.Context, req scrape.Request) (*media.MediaContext, *media.ScrapeState, error) {
	if !s.cfg.ScrapePage || !s.cfg.Slides.FetchIfNoneFound || req.State.Fetched(media.RoleSlide) {
		return nil, nil, nil
	}
	if req.Previous != nil && len(req.Previous.Slides) > 0 {
		return nil, nil, nil
	}

	mc := media.NewContext()
	s.fetchSlides(ctx, req.State.GameID, mc, req.State)
	return mc, req.State, nil
}

func (s *Scraper) fetchSlides(ctx context.Context, slug string, mc *media.MediaContext, state *media.ScrapeState) {
	urls, err := s.client.PageImages(ctx, slug)
	if err != nil {
		logger := s.Logger()
		logger.Warn().Err(err).Str("slug", slug).Msg("page scrape failed")
		return
	}

	for _, u := range urls {
		mc.Slides = append(mc.Slides, &media.Image{Media: media.Media{URL: u}})
	}
	state.MarkFetched(media.RoleSlide)
}
