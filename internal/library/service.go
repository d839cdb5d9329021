package library

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service caches the most recent scan so API reads never block on a
// filesystem walk.
type Service struct {
	scanner *Scanner
	logger  zerolog.Logger

	mu       sync.RWMutex
	games    []Game
	lastScan time.Time
}

// NewService creates the library service around a scanner.
func NewService(scanner *Scanner, logger zerolog.Logger) *Service {
	return &Service{
		scanner: scanner,
		logger:  logger.With().Str("component", "library").Logger(),
	}
}

// Refresh rescans the library folder and replaces the cached game list.
func (s *Service) Refresh(ctx context.Context) (*ScanResult, error) {
	result, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.games = result.Games
	s.lastScan = time.Now()
	s.mu.Unlock()

	return result, nil
}

// Games returns a copy of the cached game list, scanning first if the
// cache has never been filled.
func (s *Service) Games(ctx context.Context) ([]Game, error) {
	s.mu.RLock()
	scanned := !s.lastScan.IsZero()
	games := append([]Game(nil), s.games...)
	s.mu.RUnlock()

	if scanned {
		return games, nil
	}

	result, err := s.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Game(nil), result.Games...), nil
}

// Find returns the cached entry for one game, if present.
func (s *Service) Find(ctx context.Context, platform, name string) (Game, bool, error) {
	games, err := s.Games(ctx)
	if err != nil {
		return Game{}, false, err
	}
	for _, g := range games {
		if g.Platform == platform && g.Name == name {
			return g, true, nil
		}
	}
	return Game{}, false, nil
}

// LastScan reports when the cache was last refreshed.
func (s *Service) LastScan() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScan
}
