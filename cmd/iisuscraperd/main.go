package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"github.com/Crimson-Traxis/iisumediascraper/internal/api"
	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/database"
	"github.com/Crimson-Traxis/iisumediascraper/internal/download"
	"github.com/Crimson-Traxis/iisumediascraper/internal/library"
	"github.com/Crimson-Traxis/iisumediascraper/internal/logger"
	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape/igdb"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape/ign"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape/steamgriddb"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape/youtube"
	"github.com/Crimson-Traxis/iisumediascraper/internal/websocket"
)

func main() {
	// A missing .env is fine; it only overrides the environment.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting iisumediascraper")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	selections := database.NewSelectionStore(db, log.Logger)

	scanner := library.NewScanner(&cfg.Library, log.Logger)
	libraryService := library.NewService(scanner, log.Logger)

	downloader := download.New(
		retryhttp.New(&http.Client{Timeout: 60 * time.Second},
			log.Logger.With().Str("component", "download").Logger()),
		cfg.Scrape.UserAgent,
		log.Logger,
	)

	// One token source for the process; every scrape call's fresh IGDB
	// scraper shares the cached bearer token.
	igdbTokens := igdb.NewTokenSource(
		cfg.Scrape.IGDB.TokenURL,
		cfg.Scrape.IGDB.ClientID,
		cfg.Scrape.IGDB.ClientSecret,
		nil,
		log.Logger,
	)

	extensions := cfg.Library.Extensions()
	factory := func() []scrape.Scraper {
		return []scrape.Scraper{
			steamgriddb.New(cfg.Scrape.SteamGridDB, extensions, downloader, log.Logger),
			igdb.New(cfg.Scrape.IGDB, igdbTokens, extensions, downloader, log.Logger),
			ign.New(cfg.Scrape.IGN, cfg.Scrape.UserAgent, extensions, downloader, log.Logger),
			youtube.New(cfg.Scrape.YouTube, cfg.Scrape.MaxMusicDurationSeconds, extensions, downloader, log.Logger),
		}
	}

	scrapeService := scrape.NewService(&cfg.Scrape, downloader, factory, log.Logger)

	hub := websocket.NewHub()
	go hub.Run()
	scrapeService.SetBroadcaster(hub)

	server := api.NewServer(cfg, hub, libraryService, selections, scrapeService, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := libraryService.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial library scan failed")
	}

	var scheduler gocron.Scheduler
	if cfg.Library.ScanIntervalMin > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create scheduler")
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(time.Duration(cfg.Library.ScanIntervalMin)*time.Minute),
			gocron.NewTask(func() {
				if _, err := libraryService.Refresh(ctx); err != nil {
					log.Warn().Err(err).Msg("scheduled library scan failed")
				}
			}),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to schedule library scan")
		}

		scheduler.Start()
		log.Info().Int("intervalMinutes", cfg.Library.ScanIntervalMin).Msg("library rescan scheduled")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	cancel()

	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("stopped")
}
