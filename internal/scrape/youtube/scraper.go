package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/download"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape"
)

// playlistFilter is the YouTube search filter restricting results to
// playlists (base64 of the filter protobuf).
const playlistFilter = "EgIQAw=="

// Scraper finds a game's soundtrack playlist and turns every video in it
// into a music entry. It produces no image roles and has no gap-filling
// second pass; one call does the playlist search and the video listing.
type Scraper struct {
	*scrape.Base
	runner             Runner
	cfg                config.YouTubeConfig
	maxDurationSeconds int
}

// New creates the YouTube scraper. maxDurationSeconds caps individual
// track length; zero disables the filter.
func New(cfg config.YouTubeConfig, maxDurationSeconds int, extensions []string,
	downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return NewWithRunner(cfg, NewRunner(cfg.BinaryPath), maxDurationSeconds, extensions, downloader, logger)
}

// NewWithRunner creates the scraper around an existing runner (tests).
func NewWithRunner(cfg config.YouTubeConfig, runner Runner, maxDurationSeconds int,
	extensions []string, downloader *download.Downloader, logger zerolog.Logger) *Scraper {
	return &Scraper{
		Base:               scrape.NewBase(media.SourceYouTube, &cfg.SourceConfig, extensions, downloader, logger),
		runner:             runner,
		cfg:                cfg,
		maxDurationSeconds: maxDurationSeconds,
	}
}

// FillsGaps reports second-pass participation; YouTube has none.
func (s *Scraper) FillsGaps() bool { return false }

// ScrapeMedia implements scrape.Scraper.
func (s *Scraper) ScrapeMedia(ctx context.Context, req scrape.Request) (*scrape.Result, error) {
	if req.State != nil {
		return nil, nil
	}
	return s.Run(ctx, req, s.onScrapeMedia)
}

func (s *Scraper) onScrapeMedia(ctx context.Context, platformID, name string, _ scrape.Request) (*media.MediaContext, *media.ScrapeState, error) {
	if !s.cfg.Music.Fetch {
		return nil, nil, nil
	}

	playlist, found, err := scrape.SearchLadder(ctx, name, scrape.SearchLevels,
		func(ctx context.Context, query string) (playlistEntry, bool, error) {
			return s.searchPlaylist(ctx, platformID, query)
		})
	if err != nil {
		return nil, nil, err
	}
	if !found {
		logger := s.Logger()
		logger.Debug().Str("game", name).Msg("no soundtrack playlist")
		return nil, nil, nil
	}

	tracks, err := s.listPlaylist(ctx, playlist)
	if err != nil {
		return nil, nil, err
	}

	mc := media.NewContext()
	mc.Music = tracks
	return mc, media.NewScrapeState(playlist.ID), nil
}

// searchPlaylist runs one playlist-filtered search for "<platform> <game>
// OST" and keeps only the first result. The first hit is assumed correct;
// there is no ranking signal to pick among several.
func (s *Scraper) searchPlaylist(ctx context.Context, platformID, game string) (playlistEntry, bool, error) {
	term := fmt.Sprintf("%s %s OST", platformID, game)

	params := url.Values{}
	params.Set("search_query", term)
	params.Set("sp", playlistFilter)
	searchURL := "https://www.youtube.com/results?" + params.Encode()

	limit := s.cfg.PlaylistSearchLimit
	if limit <= 0 {
		limit = 5
	}

	out, err := s.runner.Run(ctx,
		"--dump-single-json",
		"--flat-playlist",
		"--playlist-end", strconv.Itoa(limit),
		searchURL,
	)
	if err != nil {
		return playlistEntry{}, false, err
	}

	var result searchResult
	if err := json.Unmarshal(out, &result); err != nil {
		return playlistEntry{}, false, fmt.Errorf("failed to parse search output: %w", err)
	}
	if len(result.Entries) == 0 {
		return playlistEntry{}, false, nil
	}

	logger := s.Logger()
	logger.Debug().Str("term", term).Str("playlist", result.Entries[0].ID).
		Msg("soundtrack playlist found")
	return result.Entries[0], true, nil
}

// listPlaylist lists the playlist's videos as JSON lines and maps each to
// a music entry with a default-resolution thumbnail.
func (s *Scraper) listPlaylist(ctx context.Context, playlist playlistEntry) ([]*media.Music, error) {
	args := []string{"--dump-json", "--skip-download"}
	if s.maxDurationSeconds > 0 {
		args = append(args, "--match-filter", fmt.Sprintf("duration < %d", s.maxDurationSeconds))
	}
	args = append(args, "--flat-playlist", s.playlistURL(playlist))

	out, err := s.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var tracks []*media.Music
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry videoEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			logger := s.Logger()
			logger.Warn().Err(err).Msg("skipping unparseable video entry")
			continue
		}
		if entry.ID == "" {
			continue
		}

		tracks = append(tracks, &media.Music{
			Media:     media.Media{URL: "https://www.youtube.com/watch?v=" + entry.ID},
			Title:     entry.Title,
			Duration:  time.Duration(entry.Duration * float64(time.Second)),
			LikeCount: entry.LikeCount,
			Thumbnail: &media.Image{
				Media: media.Media{URL: fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", entry.ID)},
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing output: %w", err)
	}

	return tracks, nil
}

func (s *Scraper) playlistURL(playlist playlistEntry) string {
	if playlist.URL != "" {
		return playlist.URL
	}
	return "https://www.youtube.com/playlist?list=" + playlist.ID
}
