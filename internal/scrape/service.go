package scrape

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/download"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
)

// Broadcaster receives real-time scrape progress events.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// ProgressEvent describes one provider finishing within a scrape run.
type ProgressEvent struct {
	Run      string       `json:"run"`
	Pass     int          `json:"pass"`
	Source   media.Source `json:"source"`
	Platform string       `json:"platform"`
	Game     string       `json:"game"`
	Found    int          `json:"found"`
}

// Service coordinates all providers: two concurrent passes, merge,
// dedupe, prioritize.
type Service struct {
	cfg         *config.ScrapeConfig
	downloader  *download.Downloader
	factory     func() []Scraper
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates the orchestrator. factory must return a fresh set of
// scrapers per call; their match state is call-scoped only.
func NewService(cfg *config.ScrapeConfig, downloader *download.Downloader,
	factory func() []Scraper, logger zerolog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		downloader: downloader,
		factory:    factory,
		logger:     logger.With().Str("component", "scrape").Logger(),
	}
}

// SetBroadcaster sets the progress event sink.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// GetMedia scrapes every configured source for one game and returns the
// merged, deduplicated and prioritized result. It never returns nil; on
// total failure the context is empty.
func (s *Service) GetMedia(ctx context.Context, platform, game string) *media.MediaContext {
	runID := uuid.NewString()
	log := s.logger.With().Str("run", runID).Str("platform", platform).Str("game", game).Logger()

	scrapers := s.factory()
	if len(scrapers) == 0 {
		return media.NewContext()
	}

	log.Info().Int("sources", len(scrapers)).Msg("scrape started")

	// Pass 1: every source, no prior knowledge.
	first := s.dispatch(ctx, log, runID, 1, scrapers, Request{Platform: platform, Name: game}, nil)

	merged := media.Flatten(resultContexts(first))

	// Pass 2: gap-filling sources only, informed by the merged pass-1
	// result and their own pass-1 match state. Pass 2 strictly follows
	// the full pass-1 fan-in: "previous" must mean the same thing for
	// every source.
	var second []Scraper
	states := make(map[media.Source]*media.ScrapeState, len(first))
	for i, sc := range scrapers {
		if first[i] != nil {
			states[sc.Source()] = first[i].State
		}
		if sc.FillsGaps() {
			second = append(second, sc)
		}
	}

	secondResults := s.dispatch(ctx, log, runID, 2, second,
		Request{Platform: platform, Name: game, Previous: merged}, states)

	contexts := append(resultContexts(first), resultContexts(secondResults)...)
	out := s.assemble(contexts)

	log.Info().
		Int("icons", len(out.Icons)).Int("logos", len(out.Logos)).
		Int("titles", len(out.Titles)).Int("heros", len(out.Heros)).
		Int("slides", len(out.Slides)).Int("music", len(out.Music)).
		Int("videos", len(out.Videos)).
		Msg("scrape completed")

	return out
}

// dispatch fans one request out to every scraper concurrently and waits
// for all of them. Results keep the scrapers' registration order so the
// downstream first-seen-wins dedupe is deterministic.
func (s *Service) dispatch(ctx context.Context, log zerolog.Logger, runID string, pass int,
	scrapers []Scraper, base Request, states map[media.Source]*media.ScrapeState) []*Result {

	results := make([]*Result, len(scrapers))
	var wg sync.WaitGroup

	for i, sc := range scrapers {
		wg.Add(1)
		go func(i int, sc Scraper) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("source", string(sc.Source())).
						Msg("scraper panicked")
				}
			}()

			req := base
			if states != nil {
				req.State = states[sc.Source()]
			}

			res, err := sc.ScrapeMedia(ctx, req)
			if err != nil {
				log.Warn().Err(err).Str("source", string(sc.Source())).Int("pass", pass).
					Msg("scraper failed")
				return
			}
			results[i] = res

			if s.broadcaster != nil {
				found := 0
				if res != nil && res.Context != nil {
					for _, role := range media.Roles {
						found += len(res.Context.Images(role))
					}
					found += len(res.Context.Music) + len(res.Context.Videos)
				}
				_ = s.broadcaster.Broadcast("scrape:progress", ProgressEvent{
					Run: runID, Pass: pass, Source: sc.Source(),
					Platform: base.Platform, Game: base.Name, Found: found,
				})
			}
		}(i, sc)
	}

	wg.Wait()
	return results
}

func resultContexts(results []*Result) []*media.MediaContext {
	contexts := make([]*media.MediaContext, 0, len(results))
	for _, r := range results {
		if r != nil && r.Context != nil {
			contexts = append(contexts, r.Context)
		}
	}
	return contexts
}

// assemble folds all collected contexts into the final one: per role,
// first-seen-wins URL dedupe then a stable sort by configured priority.
func (s *Service) assemble(contexts []*media.MediaContext) *media.MediaContext {
	out := media.NewContext()

	for _, role := range media.Roles {
		var images []*media.Image
		for _, c := range contexts {
			images = append(images, c.Images(role)...)
		}
		images = dedupeImages(images)
		s.sortImages(role, images)
		out.SetImages(role, images)
	}

	var tracks []*media.Music
	for _, c := range contexts {
		tracks = append(tracks, c.Music...)
	}
	out.Music = s.sortMusic(dedupeMusic(tracks))

	var videos []*media.Video
	for _, c := range contexts {
		videos = append(videos, c.Videos...)
	}
	videos = dedupeVideos(videos)
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].LikeCount > videos[j].LikeCount
	})
	out.Videos = videos

	return out
}

// Merge folds extra contexts (stored selections, user-added local files)
// into an already-scraped result. Extras come first so their items win
// the first-seen dedupe and their zero priority sorts them ahead.
func (s *Service) Merge(scraped *media.MediaContext, extras ...*media.MediaContext) *media.MediaContext {
	contexts := make([]*media.MediaContext, 0, len(extras)+1)
	for _, c := range extras {
		if c != nil {
			contexts = append(contexts, c)
		}
	}
	if scraped != nil {
		contexts = append(contexts, scraped)
	}
	return s.assemble(contexts)
}

// rolePriority returns the configured per-source priority for a role.
// Local and previous media have no source config and sort first.
func (s *Service) rolePriority(src media.Source, role media.Role) int {
	if cfg := s.cfg.Source(src); cfg != nil {
		return cfg.Role(role).Priority
	}
	return 0
}

// squarePriority is the icon/title tie-break: 0 for square images when
// the owning source prefers square icons, 1 for non-square, 0 when the
// preference is off.
func (s *Service) squarePriority(img *media.Image) int {
	cfg := s.cfg.Source(img.Source)
	if cfg == nil || !cfg.PreferSquareIcons {
		return 0
	}
	if img.Width == img.Height {
		return 0
	}
	return 1
}

func (s *Service) sortImages(role media.Role, images []*media.Image) {
	squareTieBreak := role == media.RoleIcon || role == media.RoleTitle
	sort.SliceStable(images, func(i, j int) bool {
		pi, pj := s.rolePriority(images[i].Source, role), s.rolePriority(images[j].Source, role)
		if pi != pj {
			return pi < pj
		}
		if squareTieBreak {
			return s.squarePriority(images[i]) < s.squarePriority(images[j])
		}
		return false
	})
}

// musicTermIndex ranks a track title by how early a configured priority
// term appears in the search-term list; titles matching no term sort last.
func (s *Service) musicTermIndex(title string) int {
	lower := strings.ToLower(title)
	for i, term := range s.cfg.MusicSearchTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return i
		}
	}
	return len(s.cfg.MusicSearchTerms)
}

func (s *Service) sortMusic(tracks []*media.Music) []*media.Music {
	sort.SliceStable(tracks, func(i, j int) bool {
		ti, tj := s.musicTermIndex(tracks[i].Title), s.musicTermIndex(tracks[j].Title)
		if ti != tj {
			return ti < tj
		}
		return tracks[i].LikeCount > tracks[j].LikeCount
	})
	return tracks
}

func dedupeImages(images []*media.Image) []*media.Image {
	seen := make(map[string]bool, len(images))
	out := images[:0:0]
	for _, img := range images {
		if img.URL != "" && seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		out = append(out, img)
	}
	return out
}

func dedupeMusic(tracks []*media.Music) []*media.Music {
	seen := make(map[string]bool, len(tracks))
	out := tracks[:0:0]
	for _, m := range tracks {
		if m.URL != "" && seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		out = append(out, m)
	}
	return out
}

func dedupeVideos(videos []*media.Video) []*media.Video {
	seen := make(map[string]bool, len(videos))
	out := videos[:0:0]
	for _, v := range videos {
		if v.URL != "" && seen[v.URL] {
			continue
		}
		seen[v.URL] = true
		out = append(out, v)
	}
	return out
}

// DownloadMissingMedia concurrently downloads every image across all five
// image roles; used when assembling a context from user-added local files
// rather than a fresh scrape.
func (s *Service) DownloadMissingMedia(ctx context.Context, mc *media.MediaContext) {
	if mc == nil || s.downloader == nil {
		return
	}
	var wg sync.WaitGroup
	for _, role := range media.Roles {
		for _, img := range mc.Images(role) {
			wg.Add(1)
			go func(img *media.Image) {
				defer wg.Done()
				if !s.downloader.DownloadMedia(ctx, img) {
					s.logger.Warn().Str("url", img.URL).Msg("failed to download media")
				}
			}(img)
		}
	}
	wg.Wait()
}
