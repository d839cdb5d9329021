// Package library scans the games folder and resolves each file to a
// platform through the configured extension map.
package library

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/sanitize"
)

// Game is one library entry: a game file whose extension mapped to a
// known platform.
type Game struct {
	Platform string `json:"platform"`
	Name     string `json:"name"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
}

// ScanError records a path the scan could not read.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanResult contains the results of scanning the library folder.
type ScanResult struct {
	RootPath   string      `json:"rootPath"`
	Games      []Game      `json:"games"`
	Errors     []ScanError `json:"errors"`
	TotalFiles int         `json:"totalFiles"`
	Skipped    int         `json:"skipped"`
}

// Scanner walks the library folder for game files.
type Scanner struct {
	cfg    *config.LibraryConfig
	logger zerolog.Logger
}

// NewScanner creates a library scanner.
func NewScanner(cfg *config.LibraryConfig, logger zerolog.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg,
		logger: logger.With().Str("component", "library").Logger(),
	}
}

// Scan walks the library folder and returns every recognized game file.
// Unreadable entries are recorded and skipped, never fatal.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{
		RootPath: s.cfg.Path,
		Games:    make([]Game, 0),
		Errors:   make([]ScanError, 0),
	}

	extensions := s.cfg.Extensions()

	s.logger.Info().Str("path", s.cfg.Path).Msg("starting library scan")

	err := filepath.WalkDir(s.cfg.Path, func(path string, d os.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			result.Errors = append(result.Errors, ScanError{Path: path, Error: walkErr.Error()})
			return nil //nolint:nilerr // Record error but continue scanning
		}
		if d.IsDir() {
			return nil
		}

		result.TotalFiles++

		platform, ok := s.platformFor(d.Name())
		if !ok {
			result.Skipped++
			return nil
		}

		result.Games = append(result.Games, Game{
			Platform: platform,
			Name:     sanitize.CleanName(d.Name(), extensions),
			FileName: d.Name(),
			Path:     path,
		})
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.Slice(result.Games, func(i, j int) bool {
		if result.Games[i].Platform != result.Games[j].Platform {
			return result.Games[i].Platform < result.Games[j].Platform
		}
		return result.Games[i].Name < result.Games[j].Name
	})

	s.logger.Info().
		Str("path", s.cfg.Path).
		Int("totalFiles", result.TotalFiles).
		Int("games", len(result.Games)).
		Int("errors", len(result.Errors)).
		Int("skipped", result.Skipped).
		Msg("library scan completed")

	return result, nil
}

// platformFor resolves a file name's extension to a platform code.
func (s *Scanner) platformFor(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", false
	}
	platform, ok := s.cfg.ExtensionPlatforms[ext]
	return platform, ok
}
