package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crimson-Traxis/iisumediascraper/internal/database"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/testutil"
)

func newTestStore(t *testing.T) *database.SelectionStore {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return database.NewSelectionStore(tdb.DB, tdb.Logger)
}

func sampleContext() *media.MediaContext {
	mc := media.NewContext()
	mc.Icons = []*media.Image{
		{
			Media: media.Media{
				URL:    "https://cdn.test/icon.png",
				Path:   "icons/icon.png",
				Source: media.SourceSteamGridDB,
				Crop:   &media.Rect{Top: 10, Left: 20, Width: 100, Height: 100},
			},
			Width:  512,
			Height: 512,
		},
	}
	mc.Titles = []*media.Image{
		{Media: media.Media{URL: "https://cdn.test/title1.png", Source: media.SourceIGDB}, Width: 1920, Height: 1080},
		{Media: media.Media{URL: "https://cdn.test/title2.png", Source: media.SourceIGN}},
	}
	mc.Music = []*media.Music{
		{
			Media:     media.Media{URL: "https://www.youtube.com/watch?v=vid1", Source: media.SourceYouTube},
			Title:     "Main Theme",
			Duration:  154 * time.Second,
			LikeCount: 1200,
			Thumbnail: &media.Image{Media: media.Media{URL: "https://i.ytimg.com/vi/vid1/default.jpg"}},
		},
	}
	mc.Videos = []*media.Video{
		{
			Media:    media.Media{URL: "https://www.youtube.com/watch?v=trailer", Source: media.SourceIGDB},
			Title:    "Trailer",
			Duration: 90 * time.Second,
		},
	}
	return mc
}

func TestSelectionStore_SaveLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "snes", "Chrono Trigger", sampleContext()))

	got, err := store.Load(ctx, "snes", "Chrono Trigger")
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.Icons, 1)
	icon := got.Icons[0]
	assert.Equal(t, "https://cdn.test/icon.png", icon.URL)
	assert.Equal(t, "icons/icon.png", icon.Path)
	assert.Equal(t, media.SourceSteamGridDB, icon.Source)
	assert.Equal(t, 512, icon.Width)
	assert.Equal(t, 512, icon.Height)
	require.NotNil(t, icon.Crop)
	assert.Equal(t, media.Rect{Top: 10, Left: 20, Width: 100, Height: 100}, *icon.Crop)

	require.Len(t, got.Titles, 2)
	assert.Equal(t, "https://cdn.test/title1.png", got.Titles[0].URL, "insertion order kept")
	assert.Nil(t, got.Titles[1].Crop, "cropless image must come back without a crop")

	require.Len(t, got.Music, 1)
	track := got.Music[0]
	assert.Equal(t, "Main Theme", track.Title)
	assert.Equal(t, 154*time.Second, track.Duration)
	assert.Equal(t, int64(1200), track.LikeCount)
	require.NotNil(t, track.Thumbnail)
	assert.Equal(t, "https://i.ytimg.com/vi/vid1/default.jpg", track.Thumbnail.URL)

	require.Len(t, got.Videos, 1)
	assert.Equal(t, "Trailer", got.Videos[0].Title)
	assert.Nil(t, got.Videos[0].Thumbnail)
}

func TestSelectionStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "snes", "Game", sampleContext()))

	replacement := media.NewContext()
	replacement.Heros = []*media.Image{
		{Media: media.Media{URL: "https://cdn.test/hero.png", Source: media.SourceSteamGridDB}},
	}
	require.NoError(t, store.Save(ctx, "snes", "Game", replacement))

	got, err := store.Load(ctx, "snes", "Game")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Len(t, got.Heros, 1)
	assert.Empty(t, got.Icons, "old selections must not survive the replace")
	assert.Empty(t, got.Titles)
	assert.Empty(t, got.Music)
}

func TestSelectionStore_LoadMissingIsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Load(context.Background(), "snes", "Never Saved")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectionStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "snes", "Game", sampleContext()))
	require.NoError(t, store.Delete(ctx, "snes", "Game"))

	got, err := store.Load(ctx, "snes", "Game")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectionStore_Games(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []database.GameKey{
		{Platform: "snes", Game: "Chrono Trigger"},
		{Platform: "n64", Game: "Mario Kart 64"},
		{Platform: "snes", Game: "Secret of Mana"},
	} {
		require.NoError(t, store.Save(ctx, key.Platform, key.Game, sampleContext()))
	}

	keys, err := store.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []database.GameKey{
		{Platform: "n64", Game: "Mario Kart 64"},
		{Platform: "snes", Game: "Chrono Trigger"},
		{Platform: "snes", Game: "Secret of Mana"},
	}, keys)
}
