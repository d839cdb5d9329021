package scrape

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/download"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
)

func testSourceConfig() *config.SourceConfig {
	cfg := &config.SourceConfig{Enabled: true}
	cfg.PlatformMap = map[string]string{"snes": "6"}
	return cfg
}

func newTestBase(cfg *config.SourceConfig) *Base {
	return NewBase(media.SourceSteamGridDB, cfg, []string{".sfc"}, nil, zerolog.Nop())
}

func TestRun_DisabledReturnsNil(t *testing.T) {
	cfg := testSourceConfig()
	cfg.Enabled = false

	called := false
	res, err := newTestBase(cfg).Run(context.Background(), Request{Platform: "snes", Name: "Game"},
		func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error) {
			called = true
			return nil, nil, nil
		})
	if err != nil || res != nil {
		t.Errorf("Run() = (%v, %v), want (nil, nil)", res, err)
	}
	if called {
		t.Error("hook called for disabled source")
	}
}

func TestRun_TranslatesPlatformAndCleansName(t *testing.T) {
	var gotPlatform, gotName string
	_, err := newTestBase(testSourceConfig()).Run(context.Background(),
		Request{Platform: "snes", Name: "Chrono Trigger (USA).sfc"},
		func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error) {
			gotPlatform, gotName = platformID, name
			return nil, nil, nil
		})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotPlatform != "6" {
		t.Errorf("platform = %q, want 6", gotPlatform)
	}
	if gotName != "Chrono Trigger" {
		t.Errorf("name = %q, want Chrono Trigger", gotName)
	}
}

func TestRun_HookErrorBecomesNilResult(t *testing.T) {
	res, err := newTestBase(testSourceConfig()).Run(context.Background(),
		Request{Platform: "snes", Name: "Game"},
		func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error) {
			return nil, nil, errors.New("provider exploded")
		})
	if err != nil {
		t.Errorf("Run() error = %v, want nil (failures are swallowed)", err)
	}
	if res != nil {
		t.Errorf("Run() result = %v, want nil", res)
	}
}

func TestRun_TitleAsIconFallback(t *testing.T) {
	cfg := testSourceConfig()
	cfg.AllowTitleAsIconWhenNoIconFound = true

	res, err := newTestBase(cfg).Run(context.Background(), Request{Platform: "snes", Name: "Game"},
		func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error) {
			mc := media.NewContext()
			mc.Titles = []*media.Image{{Media: media.Media{URL: "title1"}}}
			return mc, nil, nil
		})
	if err != nil || res == nil {
		t.Fatalf("Run() = (%v, %v)", res, err)
	}

	if len(res.Context.Icons) != 1 || res.Context.Icons[0].URL != "title1" {
		t.Errorf("icons = %v, want the title image copied in", res.Context.Icons)
	}
	if res.Context.Icons[0].Source != media.SourceSteamGridDB {
		t.Errorf("fallback icon source = %q, want the scraper's own", res.Context.Icons[0].Source)
	}
	if res.Context.Icons[0] == res.Context.Titles[0] {
		t.Error("fallback icon shares the title image pointer")
	}
}

func TestRun_TitleAsIconFallbackDownloadsIndependently(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 6))); err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	cfg := testSourceConfig()
	cfg.AllowTitleAsIconWhenNoIconFound = true

	downloader := download.New(
		retryhttp.New(&http.Client{Timeout: 5 * time.Second}, zerolog.Nop()),
		"test-agent", zerolog.Nop())
	base := NewBase(media.SourceSteamGridDB, cfg, nil, downloader, zerolog.Nop())

	res, err := base.Run(context.Background(), Request{Platform: "snes", Name: "Game"},
		func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error) {
			mc := media.NewContext()
			mc.Titles = []*media.Image{{Media: media.Media{URL: server.URL + "/title.png"}}}
			return mc, nil, nil
		})
	if err != nil || res == nil {
		t.Fatalf("Run() = (%v, %v)", res, err)
	}

	if len(res.Context.Icons) != 1 || len(res.Context.Titles) != 1 {
		t.Fatalf("icons/titles = %d/%d, want 1/1", len(res.Context.Icons), len(res.Context.Titles))
	}
	icon, title := res.Context.Icons[0], res.Context.Titles[0]
	if icon == title {
		t.Fatal("icon and title share one image; concurrent downloads would race")
	}
	if len(icon.Data) == 0 || len(title.Data) == 0 {
		t.Error("both copies must download their payload")
	}
	if icon.Width != 4 || icon.Height != 6 || title.Width != 4 || title.Height != 6 {
		t.Errorf("probed dimensions = %dx%d / %dx%d, want 4x6 on both",
			icon.Width, icon.Height, title.Width, title.Height)
	}
}

func TestRun_NoFallbackWhenIconsPresent(t *testing.T) {
	cfg := testSourceConfig()
	cfg.AllowTitleAsIconWhenNoIconFound = true

	res, _ := newTestBase(cfg).Run(context.Background(), Request{Platform: "snes", Name: "Game"},
		func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error) {
			mc := media.NewContext()
			mc.Icons = []*media.Image{{Media: media.Media{URL: "icon1"}}}
			mc.Titles = []*media.Image{{Media: media.Media{URL: "title1"}}}
			return mc, nil, nil
		})

	if len(res.Context.Icons) != 1 {
		t.Errorf("icons = %d, want 1 (no fallback when icons exist)", len(res.Context.Icons))
	}
}

func TestRun_AppliesLimits(t *testing.T) {
	cfg := testSourceConfig()
	cfg.Slides.Limit = 2
	cfg.Music.Limit = 1

	res, _ := newTestBase(cfg).Run(context.Background(), Request{Platform: "snes", Name: "Game"},
		func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error) {
			mc := media.NewContext()
			mc.Slides = []*media.Image{
				{Media: media.Media{URL: "s1"}},
				{Media: media.Media{URL: "s2"}},
				{Media: media.Media{URL: "s3"}},
			}
			mc.Music = []*media.Music{
				{Media: media.Media{URL: "m1"}},
				{Media: media.Media{URL: "m2"}},
			}
			return mc, nil, nil
		})

	if len(res.Context.Slides) != 2 || res.Context.Slides[0].URL != "s1" || res.Context.Slides[1].URL != "s2" {
		t.Errorf("slides = %v, want first 2 kept in order", res.Context.Slides)
	}
	if len(res.Context.Music) != 1 || res.Context.Music[0].URL != "m1" {
		t.Errorf("music = %v, want first entry kept", res.Context.Music)
	}
}

func TestSearchLadder(t *testing.T) {
	t.Run("stops at first hit", func(t *testing.T) {
		var queries []string
		got, ok, err := SearchLadder(context.Background(), "Game (USA)", SearchLevels,
			func(ctx context.Context, query string) (string, bool, error) {
				queries = append(queries, query)
				if query == "Game" {
					return "hit", true, nil
				}
				return "", false, nil
			})
		if err != nil || !ok || got != "hit" {
			t.Fatalf("SearchLadder() = (%q, %v, %v)", got, ok, err)
		}
		if len(queries) != 2 {
			t.Errorf("queries = %v, want the raw then region-stripped name", queries)
		}
	})

	t.Run("skips duplicate queries", func(t *testing.T) {
		var queries []string
		_, ok, err := SearchLadder(context.Background(), "Plain Name", SearchLevels,
			func(ctx context.Context, query string) (string, bool, error) {
				queries = append(queries, query)
				return "", false, nil
			})
		if ok || err != nil {
			t.Fatalf("SearchLadder() = (_, %v, %v)", ok, err)
		}
		if len(queries) != 1 {
			t.Errorf("queries = %v, want a single attempt for an already-clean name", queries)
		}
	})

	t.Run("errors do not stop the ladder", func(t *testing.T) {
		boom := errors.New("boom")
		got, ok, err := SearchLadder(context.Background(), "Game. (USA)", SearchLevels,
			func(ctx context.Context, query string) (string, bool, error) {
				if query == "Game. (USA)" {
					return "", false, boom
				}
				if query == "Game" {
					return "hit", true, nil
				}
				return "", false, nil
			})
		if err != nil || !ok || got != "hit" {
			t.Errorf("SearchLadder() = (%q, %v, %v), want recovery after error", got, ok, err)
		}
	})

	t.Run("last error surfaces when nothing found", func(t *testing.T) {
		boom := errors.New("boom")
		_, ok, err := SearchLadder(context.Background(), "Game", SearchLevels,
			func(ctx context.Context, query string) (string, bool, error) {
				return "", false, boom
			})
		if ok || !errors.Is(err, boom) {
			t.Errorf("SearchLadder() = (_, %v, %v), want the last error", ok, err)
		}
	})
}
