package api

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Version: config.Version})
}

// handleLibraryList returns the cached library game list.
func (s *Server) handleLibraryList(c echo.Context) error {
	games, err := s.library.Games(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, games)
}

// handleLibraryRefresh rescans the library folder.
func (s *Server) handleLibraryRefresh(c echo.Context) error {
	result, err := s.library.Refresh(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

type scrapeRequest struct {
	Platform string `json:"platform"`
	Game     string `json:"game"`
}

// handleScrape runs a full two-pass scrape for one game and folds any
// stored selections back in as the "previous" source.
func (s *Server) handleScrape(c echo.Context) error {
	var req scrapeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Platform == "" || req.Game == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "platform and game are required"})
	}

	ctx := c.Request().Context()

	previous, err := s.selections.Load(ctx, req.Platform, req.Game)
	if err != nil {
		s.logger.Warn().Err(err).Str("game", req.Game).Msg("failed to load stored selections")
	}
	if previous != nil {
		previous.Restamp(media.SourcePrevious)
	}

	out := s.scraper.GetMedia(ctx, req.Platform, req.Game)
	if previous != nil {
		out = s.scraper.Merge(out, previous)
	}

	return c.JSON(http.StatusOK, out)
}

// pathParam returns a path parameter with percent-escapes resolved, so
// game names with spaces address the same stored row however the client
// encoded them.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// handleSelectionsList lists every game with stored selections.
func (s *Server) handleSelectionsList(c echo.Context) error {
	keys, err := s.selections.Games(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, keys)
}

// handleSelectionsGet returns the stored selections for one game.
func (s *Server) handleSelectionsGet(c echo.Context) error {
	mc, err := s.selections.Load(c.Request().Context(), pathParam(c, "platform"), pathParam(c, "game"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	if mc == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no selections for game"})
	}
	return c.JSON(http.StatusOK, mc)
}

// handleSelectionsPut replaces the stored selections for one game.
func (s *Server) handleSelectionsPut(c echo.Context) error {
	var mc media.MediaContext
	if err := c.Bind(&mc); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := s.selections.Save(c.Request().Context(), pathParam(c, "platform"), pathParam(c, "game"), &mc); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSelectionsDelete removes the stored selections for one game.
func (s *Server) handleSelectionsDelete(c echo.Context) error {
	if err := s.selections.Delete(c.Request().Context(), pathParam(c, "platform"), pathParam(c, "game")); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
