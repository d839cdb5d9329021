// Package api serves the HTTP interface: library listing, scrape runs,
// selection persistence and the progress WebSocket.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/database"
	"github.com/Crimson-Traxis/iisumediascraper/internal/library"
	"github.com/Crimson-Traxis/iisumediascraper/internal/scrape"
	"github.com/Crimson-Traxis/iisumediascraper/internal/websocket"
)

// Server handles HTTP requests for the scraper API.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	hub    *websocket.Hub
	logger zerolog.Logger

	library    *library.Service
	selections *database.SelectionStore
	scraper    *scrape.Service
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, hub *websocket.Hub, libraryService *library.Service,
	selections *database.SelectionStore, scraper *scrape.Service, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		cfg:        cfg,
		hub:        hub,
		logger:     logger.With().Str("component", "api").Logger(),
		library:    libraryService,
		selections: selections,
		scraper:    scraper,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.BodyLimit("2M"))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/ws", s.hub.HandleWebSocket)

	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)

	api.GET("/library", s.handleLibraryList)
	api.POST("/library/refresh", s.handleLibraryRefresh)

	api.POST("/scrape", s.handleScrape)

	api.GET("/selections", s.handleSelectionsList)
	api.GET("/selections/:platform/:game", s.handleSelectionsGet)
	api.PUT("/selections/:platform/:game", s.handleSelectionsPut)
	api.DELETE("/selections/:platform/:game", s.handleSelectionsDelete)
}

// Start begins serving and blocks until the listener fails or closes.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()
	s.logger.Info().Str("address", addr).Msg("starting HTTP server")

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
