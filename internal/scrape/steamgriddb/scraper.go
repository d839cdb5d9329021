package steamgriddb

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

// Scraper adapts SteamGridDB to the common scraper contract. Logos, grids
// (title art) and heroes come from the API; icons arrive via the
// title-as-icon fallback.
type Scraper struct {
	*scrape.Base
	client *Client
	cfg    config.SteamGridDBConfig
}

// New creates the SteamGridDB scraper.
func New(cfg config.SteamGridDBConfig, extensions []string, downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return &Scraper{
		Base:   scrape.NewBase(media.SourceSteamGridDB, &cfg.SourceConfig, extensions, downloader, logger),
		client: NewClient(cfg, logger),
		cfg:    cfg,
	}
}

// NewWithClient creates the scraper around an existing client (tests).
func NewWithClient(cfg config.SteamGridDBConfig, client *Client, extensions []string,
	downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return &Scraper{
		Base:   scrape.NewBase(media.SourceSteamGridDB, &cfg.SourceConfig, extensions, downloader, logger),
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

func (s *Scraper) onScrapeMedia(ctx context.Context, _ string, name string, req scrape.Request) (*media.MediaContext, *media.ScrapeState, error) {
	if req.State != nil {
		return s.fillGaps(ctx, req)
	}
	return s.firstPass(ctx, name)
}

// firstPass searches at three sanitization levels and fetches every
// enabled role for the first matching game.
func (s *Scraper) firstPass(ctx context.Context, name string) (*media.MediaContext, *media.ScrapeState, error) {
	game, found, err := scrape.SearchLadder(ctx, name, scrape.SearchLevels,
		func(ctx context.Context, query string) (Game, bool, error) {
			games, err := s.client.SearchGames(ctx, query)
			if err != nil {
				return Game{}, false, err
			}
			for _, g := range games {
				if sanitize.Matches(name, g.Name) {
					return g, true, nil
				}
			}
			return Game{}, false, nil
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

	roles := make([]media.Role, 0, 3)
	if s.cfg.Logos.Fetch {
		roles = append(roles, media.RoleLogo)
	}
	if s.cfg.Titles.Fetch {
		roles = append(roles, media.RoleTitle)
	}
	if s.cfg.Heros.Fetch {
		roles = append(roles, media.RoleHero)
	}

	s.fetchRoles(ctx, game.ID, roles, mc, state)
	return mc, state, nil
}

// fillGaps re-fetches only the roles the merged first pass left empty,
// at most once per role per call.
func (s *Scraper) fillGaps(ctx context.Context, req scrape.Request) (*media.MediaContext, *media.ScrapeState, error) {
	gameID, err := strconv.Atoi(req.State.GameID)
	if err != nil {
		return nil, nil, nil
	}

	var roles []media.Role
	for _, role := range []media.Role{media.RoleLogo, media.RoleTitle, media.RoleHero} {
		roleCfg := s.cfg.Role(role)
		if !roleCfg.FetchIfNoneFound || req.State.Fetched(role) {
			continue
		}
		if req.Previous != nil && len(req.Previous.Images(role)) > 0 {
			continue
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, nil, nil
	}

	mc := media.NewContext()
	s.fetchRoles(ctx, gameID, roles, mc, req.State)
	return mc, req.State, nil
}

// fetchRoles pulls the requested roles concurrently, each independently
// filtered by its configured style list.
func (s *Scraper) fetchRoles(ctx context.Context, gameID int, roles []media.Role, mc *media.MediaContext, state *media.ScrapeState) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, role := range roles {
		wg.Add(1)
		go func(role media.Role) {
			defer wg.Done()

			styles := s.cfg.Role(role).Styles
			var assets []Asset
			var err error
			switch role {
			case media.RoleLogo:
				assets, err = s.client.Logos(ctx, gameID, styles)
			case media.RoleTitle:
				assets, err = s.client.Grids(ctx, gameID, styles)
			case media.RoleHero:
				assets, err = s.client.Heroes(ctx, gameID, styles)
			}
			if err != nil {
				logger := s.Logger()
				logger.Warn().Err(err).Str("role", string(role)).Int("gameId", gameID).
					Msg("asset fetch failed")
				return
			}

			images := make([]*media.Image, 0, len(assets))
			for _, a := range assets {
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

	wg.Wait()
}
