package igdb

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/download"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/sanitize"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape"
)

// Scraper adapts IGDB to the common scraper contract. Covers become
// title art, screenshots become slides, and game videos become YouTube
// watch URLs.
type Scraper struct {
	*scrape.Base
	client *Client
	cfg    config.IGDBConfig
}

// New creates the IGDB scraper. The token source is shared across
// instances so concurrent scrape calls reuse one cached bearer token.
func New(cfg config.IGDBConfig, tokens *TokenSource, extensions []string,
	downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return &Scraper{
		Base:   scrape.NewBase(media.SourceIGDB, &cfg.SourceConfig, extensions, downloader, logger),
		client: NewClient(cfg, tokens, logger),
		cfg:    cfg,
	}
}

// NewWithClient creates the scraper around an existing client (tests).
func NewWithClient(cfg config.IGDBConfig, client *Client, extensions []string,
	downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return &Scraper{
		Base:   scrape.NewBase(media.SourceIGDB, &cfg.SourceConfig, extensions, downloader, logger),
		client: client,
		cfg:    cfg,
	}
}

// FillsGaps reports second-pass participation.
func (s *Scraper) FillsGaps() bool { return true }

// ScrapeMedia implements scrape.Scraper.
func (s *Scraper) ScrapeMedia(ctx context.Context, req scrape.Request) (*scrape.Result, error) {
	if !s.client.IsConfigured() {
		return nil, nil
	}
	return s.Run(ctx, req, s.onScrapeMedia)
}

func (s *Scraper) onScrapeMedia(ctx context.Context, platformID, name string, req scrape.Request) (*media.MediaContext, *media.ScrapeState, error) {
	if req.State != nil {
		return s.fillGaps(ctx, req)
	}
	return s.firstPass(ctx, platformID, name)
}

// firstPass searches at three sanitization levels, restricts candidates
// to the requested platform and matches the primary name first, then
// every alternate name from a secondary query.
func (s *Scraper) firstPass(ctx context.Context, platformID, name string) (*media.MediaContext, *media.ScrapeState, error) {
	game, found, err := scrape.SearchLadder(ctx, name, scrape.SearchLevels,
		func(ctx context.Context, query string) (Game, bool, error) {
			games, err := s.client.SearchGames(ctx, query)
			if err != nil {
				return Game{}, false, err
			}
			return s.matchGame(ctx, name, platformID, games)
		})
	if err != nil {
		return nil, nil, err
	}
	if !found {
		logger := s.Logger()
		logger.Debug().Str("game", name).Msg("no matching game")
		return nil, nil, nil
	}

	state := media.NewScrapeState(strconv.Itoa(game.ID))
	mc := media.NewContext()

	var roles []media.Role
	if s.cfg.Titles.Fetch && game.Cover != 0 {
		roles = append(roles, media.RoleTitle)
	}
	if s.cfg.Slides.Fetch && len(game.Screenshots) > 0 {
		roles = append(roles, media.RoleSlide)
	}
	fetchVideos := s.cfg.Videos.Fetch && len(game.Videos) > 0

	s.fetchRoles(ctx, game.ID, roles, fetchVideos, mc, state)
	return mc, state, nil
}

// matchGame filters candidates to the requested platform and matches by
// primary name, falling back to one alternate-names query covering every
// remaining candidate.
func (s *Scraper) matchGame(ctx context.Context, name, platformID string, games []Game) (Game, bool, error) {
	pid, pidErr := strconv.Atoi(platformID)

	candidates := games[:0:0]
	for _, g := range games {
		if pidErr == nil && !hasPlatform(g, pid) {
			continue
		}
		candidates = append(candidates, g)
	}

	for _, g := range candidates {
		if sanitize.Matches(name, g.Name) {
			return g, true, nil
		}
	}

	ids := make([]int, len(candidates))
	byID := make(map[int]Game, len(candidates))
	for i, g := range candidates {
		ids[i] = g.ID
		byID[g.ID] = g
	}

	alternates, err := s.client.AlternativeNames(ctx, ids)
	if err != nil {
		return Game{}, false, err
	}
	for _, alt := range alternates {
		if sanitize.Matches(name, alt.Name) {
			if g, ok := byID[alt.Game]; ok {
				return g, true, nil
			}
		}
	}

	return Game{}, false, nil
}

func hasPlatform(g Game, pid int) bool {
	for _, p := range g.Platforms {
		if p == pid {
			return true
		}
	}
	return false
}

// fillGaps re-fetches only the roles the merged first pass left empty.
// Videos are refetched when the merged pass found none at all.
func (s *Scraper) fillGaps(ctx context.Context, req scrape.Request) (*media.MediaContext, *media.ScrapeState, error) {
	gameID, err := strconv.Atoi(req.State.GameID)
	if err != nil {
		return nil, nil, nil
	}

	var roles []media.Role
	for _, role := range []media.Role{media.RoleTitle, media.RoleSlide} {
		roleCfg := s.cfg.Role(role)
		if !roleCfg.FetchIfNoneFound || req.State.Fetched(role) {
			continue
		}
		if req.Previous != nil && len(req.Previous.Images(role)) > 0 {
			continue
		}
		roles = append(roles, role)
	}

	fetchVideos := s.cfg.Videos.FetchIfNoneFound &&
		(req.Previous == nil || len(req.Previous.Videos) == 0)

	if len(roles) == 0 && !fetchVideos {
		return nil, nil, nil
	}

	mc := media.NewContext()
	s.fetchRoles(ctx, gameID, roles, fetchVideos, mc, req.State)
	return mc, req.State, nil
}

// fetchRoles pulls covers, screenshots and videos concurrently.
func (s *Scraper) fetchRoles(ctx context.Context, gameID int, roles []media.Role, fetchVideos bool,
	mc *media.MediaContext, state *media.ScrapeState) {

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, role := range roles {
		wg.Add(1)
		go func(role media.Role) {
			defer wg.Done()

			var art []Artwork
			var err error
			switch role {
			case media.RoleTitle:
				art, err = s.client.Covers(ctx, gameID)
			case media.RoleSlide:
				art, err = s.client.Screenshots(ctx, gameID)
			}
			if err != nil {
				logger := s.Logger()
				logger.Warn().Err(err).Str("role", string(role)).Int("gameId", gameID).
					Msg("artwork fetch failed")
				return
			}

			images := make([]*media.Image, 0, len(art))
			for _, a := range art {
				images = append(images, &media.Image{
					Media:  media.Media{URL: a.URL},
					Width:  a.Width,
					Height: a.Height,
				})
			}

			mu.Lock()
			mc.SetImages(role, images)
			state.MarkFetched(role)
			mu.Unlock()
		}(role)
	}

	if fetchVideos {
		wg.Add(1)
		go func() {
			defer wg.Done()

			videos, err := s.client.Videos(ctx, gameID)
			if err != nil {
				logger := s.Logger()
				logger.Warn().Err(err).Int("gameId", gameID).Msg("video fetch failed")
				return
			}

			out := make([]*media.Video, 0, len(videos))
			for _, v := range videos {
				if v.VideoID == "" {
					continue
				}
				out = append(out, &media.Video{
					Media: media.Media{URL: "https://www.youtube.com/watch?v=" + v.VideoID},
					Title: v.Name,
				})
			}

			mu.Lock()
			mc.Videos = out
			mu.Unlock()
		}()
	}

	wg.Wait()
}
