package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
)

// row kinds beyond the image roles.
const (
	kindMusic = "music"
	kindVideo = "video"
)

// SelectionStore persists the media a user picked for each game. Saved
// selections come back on later scrapes as the "previous" source.
type SelectionStore struct {
	db     *DB
	logger zerolog.Logger
}

// NewSelectionStore creates a selection store over an open database.
func NewSelectionStore(db *DB, logger zerolog.Logger) *SelectionStore {
	return &SelectionStore{
		db:     db,
		logger: logger.With().Str("component", "selections").Logger(),
	}
}

// Save replaces the stored selections for one game with the given
// context. The whole replace runs in a single transaction.
func (s *SelectionStore) Save(ctx context.Context, platform, game string, mc *media.MediaContext) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM selections WHERE platform = ? AND game = ?`, platform, game); err != nil {
		return fmt.Errorf("failed to clear previous selections: %w", err)
	}

	if mc != nil {
		now := time.Now().UTC()
		for _, role := range media.Roles {
			for i, img := range mc.Images(role) {
				if err := insertImage(ctx, tx, platform, game, string(role), i, img, now); err != nil {
					return err
				}
			}
		}
		for i, m := range mc.Music {
			if err := insertTrack(ctx, tx, platform, game, kindMusic, i,
				&m.Media, m.Title, m.Duration, m.LikeCount, m.Thumbnail, now); err != nil {
				return err
			}
		}
		for i, v := range mc.Videos {
			if err := insertTrack(ctx, tx, platform, game, kindVideo, i,
				&v.Media, v.Title, v.Duration, v.LikeCount, v.Thumbnail, now); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selections: %w", err)
	}

	s.logger.Debug().Str("platform", platform).Str("game", game).Msg("selections saved")
	return nil
}

func insertImage(ctx context.Context, tx *sql.Tx, platform, game, kind string, position int,
	img *media.Image, now time.Time) error {

	var cropTop, cropLeft, cropWidth, cropHeight sql.NullInt64
	if img.Crop != nil {
		cropTop = sql.NullInt64{Int64: int64(img.Crop.Top), Valid: true}
		cropLeft = sql.NullInt64{Int64: int64(img.Crop.Left), Valid: true}
		cropWidth = sql.NullInt64{Int64: int64(img.Crop.Width), Valid: true}
		cropHeight = sql.NullInt64{Int64: int64(img.Crop.Height), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO selections (platform, game, kind, position, url, path, source,
			width, height, crop_top, crop_left, crop_width, crop_height, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		platform, game, kind, position, img.URL, img.Path, string(img.Source),
		img.Width, img.Height, cropTop, cropLeft, cropWidth, cropHeight, now)
	if err != nil {
		return fmt.Errorf("failed to insert %s selection: %w", kind, err)
	}
	return nil
}

func insertTrack(ctx context.Context, tx *sql.Tx, platform, game, kind string, position int,
	m *media.Media, title string, duration time.Duration, likeCount int64,
	thumbnail *media.Image, now time.Time) error {

	thumbURL := ""
	if thumbnail != nil {
		thumbURL = thumbnail.URL
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO selections (platform, game, kind, position, url, path, source,
			title, duration_seconds, like_count, thumbnail_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		platform, game, kind, position, m.URL, m.Path, string(m.Source),
		title, int64(duration/time.Second), likeCount, thumbURL, now)
	if err != nil {
		return fmt.Errorf("failed to insert %s selection: %w", kind, err)
	}
	return nil
}

// Load returns the stored selections for one game, or nil when the game
// has none. Items keep the source tag they were saved with.
func (s *SelectionStore) Load(ctx context.Context, platform, game string) (*media.MediaContext, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT kind, url, path, source, title, duration_seconds, like_count,
			thumbnail_url, width, height, crop_top, crop_left, crop_width, crop_height
		FROM selections
		WHERE platform = ? AND game = ?
		ORDER BY kind, position`,
		platform, game)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	mc := media.NewContext()
	found := false

	for rows.Next() {
		var kind, url, path, source, title, thumbURL string
		var durationSeconds, likeCount int64
		var width, height int
		var cropTop, cropLeft, cropWidth, cropHeight sql.NullInt64

		if err := rows.Scan(&kind, &url, &path, &source, &title, &durationSeconds, &likeCount,
			&thumbURL, &width, &height, &cropTop, &cropLeft, &cropWidth, &cropHeight); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		found = true

		base := media.Media{URL: url, Path: path, Source: media.Source(source)}

		switch kind {
		case kindMusic, kindVideo:
			var thumbnail *media.Image
			if thumbURL != "" {
				thumbnail = &media.Image{Media: media.Media{URL: thumbURL, Source: base.Source}}
			}
			if kind == kindMusic {
				mc.Music = append(mc.Music, &media.Music{
					Media: base, Title: title,
					Duration:  time.Duration(durationSeconds) * time.Second,
					LikeCount: likeCount, Thumbnail: thumbnail,
				})
			} else {
				mc.Videos = append(mc.Videos, &media.Video{
					Media: base, Title: title,
					Duration:  time.Duration(durationSeconds) * time.Second,
					LikeCount: likeCount, Thumbnail: thumbnail,
				})
			}
		default:
			if cropTop.Valid {
				base.Crop = &media.Rect{
					Top: int(cropTop.Int64), Left: int(cropLeft.Int64),
					Width: int(cropWidth.Int64), Height: int(cropHeight.Int64),
				}
			}
			img := &media.Image{Media: base, Width: width, Height: height}
			role := media.Role(kind)
			mc.SetImages(role, append(mc.Images(role), img))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read selections: %w", err)
	}

	if !found {
		return nil, nil
	}
	return mc, nil
}

// Delete removes every stored selection for one game.
func (s *SelectionStore) Delete(ctx context.Context, platform, game string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM selections WHERE platform = ? AND game = ?`, platform, game)
	if err != nil {
		return fmt.Errorf("failed to delete selections: %w", err)
	}
	return nil
}

// Games lists every (platform, game) pair that has stored selections.
func (s *SelectionStore) Games(ctx context.Context) ([]GameKey, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT DISTINCT platform, game FROM selections ORDER BY platform, game`)
	if err != nil {
		return nil, fmt.Errorf("failed to list selection games: %w", err)
	}
	defer rows.Close()

	var keys []GameKey
	for rows.Next() {
		var k GameKey
		if err := rows.Scan(&k.Platform, &k.Game); err != nil {
			return nil, fmt.Errorf("failed to scan selection game: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GameKey identifies one game in the library.
type GameKey struct {
	Platform string `json:"platform"`
	Game     string `json:"game"`
}
