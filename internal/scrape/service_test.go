package scrape

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
)

// mockScraper scripts one provider: a first-pass result and an optional
// second-pass result. It records the requests it received.
type mockScraper struct {
	source    media.Source
	fillsGaps bool
	first     *Result
	second    *Result
	err       error
	panics    bool

	mu       sync.Mutex
	requests []Request
}

func (m *mockScraper) Source() media.Source { return m.source }
func (m *mockScraper) FillsGaps() bool      { return m.fillsGaps }

func (m *mockScraper) ScrapeMedia(_ context.Context, req Request) (*Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.panics {
		panic("scripted panic")
	}
	if m.err != nil {
		return nil, m.err
	}
	if req.State != nil || req.Previous != nil {
		return m.second, nil
	}
	return m.first, nil
}

func (m *mockScraper) recorded() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func testScrapeConfig() *config.ScrapeConfig {
	cfg := &config.ScrapeConfig{
		MusicSearchTerms: []string{"full", "ost"},
	}
	cfg.SteamGridDB.Enabled = true
	cfg.SteamGridDB.PreferSquareIcons = true
	cfg.IGDB.Enabled = true
	cfg.IGN.Enabled = true
	cfg.YouTube.Enabled = true

	for _, role := range media.Roles {
		setPriority(&cfg.SteamGridDB.SourceConfig, role, 1)
		setPriority(&cfg.IGDB.SourceConfig, role, 2)
		setPriority(&cfg.IGN.SourceConfig, role, 3)
	}
	return cfg
}

func setPriority(sc *config.SourceConfig, role media.Role, priority int) {
	switch role {
	case media.RoleIcon:
		sc.Icons.Priority = priority
	case media.RoleLogo:
		sc.Logos.Priority = priority
	case media.RoleTitle:
		sc.Titles.Priority = priority
	case media.RoleHero:
		sc.Heros.Priority = priority
	case media.RoleSlide:
		sc.Slides.Priority = priority
	}
}

func newTestService(scrapers ...Scraper) *Service {
	return NewService(testScrapeConfig(), nil, func() []Scraper { return scrapers }, zerolog.Nop())
}

func imageCtx(role media.Role, urls ...string) *media.MediaContext {
	mc := media.NewContext()
	for _, u := range urls {
		mc.SetImages(role, append(mc.Images(role), &media.Image{Media: media.Media{URL: u}}))
	}
	return mc
}

func stamped(mc *media.MediaContext, src media.Source) *media.MediaContext {
	mc.Restamp(src)
	return mc
}

func TestGetMedia_TwoPassProtocol(t *testing.T) {
	state := media.NewScrapeState("7")
	gapFiller := &mockScraper{
		source:    media.SourceSteamGridDB,
		fillsGaps: true,
		first:     &Result{Context: stamped(imageCtx(media.RoleLogo, "logo1"), media.SourceSteamGridDB), State: state},
		second:    &Result{Context: stamped(imageCtx(media.RoleHero, "hero1"), media.SourceSteamGridDB), State: state},
	}
	oneShot := &mockScraper{
		source:    media.SourceYouTube,
		fillsGaps: false,
		first:     &Result{Context: &media.MediaContext{Music: []*media.Music{{Media: media.Media{URL: "m1", Source: media.SourceYouTube}}}}},
	}

	out := newTestService(gapFiller, oneShot).GetMedia(context.Background(), "snes", "Some Game")

	if len(out.Logos) != 1 || len(out.Heros) != 1 || len(out.Music) != 1 {
		t.Fatalf("logos/heros/music = %d/%d/%d, want 1/1/1",
			len(out.Logos), len(out.Heros), len(out.Music))
	}

	gapReqs := gapFiller.recorded()
	if len(gapReqs) != 2 {
		t.Fatalf("gap filler called %d times, want 2", len(gapReqs))
	}
	secondReq := gapReqs[1]
	if secondReq.State != state {
		t.Error("second pass did not carry back the first-pass state")
	}
	if secondReq.Previous == nil || len(secondReq.Previous.Logos) != 1 {
		t.Error("second pass previous does not hold the merged first-pass result")
	}

	if got := len(oneShot.recorded()); got != 1 {
		t.Errorf("non-gap-filling scraper called %d times, want 1", got)
	}
}

func TestGetMedia_FailuresNeverAbort(t *testing.T) {
	failing := &mockScraper{source: media.SourceIGDB, fillsGaps: true, err: errors.New("api down")}
	panicking := &mockScraper{source: media.SourceIGN, fillsGaps: true, panics: true}
	healthy := &mockScraper{
		source: media.SourceSteamGridDB,
		first:  &Result{Context: stamped(imageCtx(media.RoleIcon, "icon1"), media.SourceSteamGridDB)},
	}

	out := newTestService(failing, panicking, healthy).GetMedia(context.Background(), "snes", "Game")

	if out == nil {
		t.Fatal("GetMedia() = nil, must never be nil")
	}
	if len(out.Icons) != 1 {
		t.Errorf("icons = %d, want 1 from healthy scraper", len(out.Icons))
	}
}

func TestGetMedia_TotalFailureIsEmptyContext(t *testing.T) {
	out := newTestService(
		&mockScraper{source: media.SourceIGDB, err: errors.New("down")},
		&mockScraper{source: media.SourceIGN, err: errors.New("down")},
	).GetMedia(context.Background(), "snes", "Game")

	if out == nil || !out.IsEmpty() {
		t.Errorf("GetMedia() = %+v, want empty non-nil context", out)
	}
}

func TestAssemble_DedupeFirstSeenWins(t *testing.T) {
	svc := newTestService()

	a := stamped(imageCtx(media.RoleIcon, "dup", "only-a"), media.SourceSteamGridDB)
	b := stamped(imageCtx(media.RoleIcon, "dup", "only-b"), media.SourceIGDB)

	out := svc.assemble([]*media.MediaContext{a, b})

	if len(out.Icons) != 3 {
		t.Fatalf("icons = %d, want 3 after dedupe", len(out.Icons))
	}
	var dup *media.Image
	for _, img := range out.Icons {
		if img.URL == "dup" {
			dup = img
		}
	}
	if dup == nil || dup.Source != media.SourceSteamGridDB {
		t.Error("dedupe did not keep the first-seen duplicate")
	}
}

func TestAssemble_PriorityOrder(t *testing.T) {
	svc := newTestService()

	ign := stamped(imageCtx(media.RoleHero, "ign1"), media.SourceIGN)
	sgdb := stamped(imageCtx(media.RoleHero, "sgdb1"), media.SourceSteamGridDB)
	previous := stamped(imageCtx(media.RoleHero, "prev1"), media.SourcePrevious)

	out := svc.assemble([]*media.MediaContext{ign, sgdb, previous})

	got := []string{out.Heros[0].URL, out.Heros[1].URL, out.Heros[2].URL}
	want := []string{"prev1", "sgdb1", "ign1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("hero order = %v, want %v", got, want)
		}
	}
}

func TestAssemble_SquareIconTieBreak(t *testing.T) {
	svc := newTestService()

	mc := media.NewContext()
	mc.Icons = []*media.Image{
		{Media: media.Media{URL: "wide", Source: media.SourceSteamGridDB}, Width: 460, Height: 215},
		{Media: media.Media{URL: "square", Source: media.SourceSteamGridDB}, Width: 512, Height: 512},
	}

	out := svc.assemble([]*media.MediaContext{mc})

	if out.Icons[0].URL != "square" {
		t.Errorf("icon order = [%s %s], want square first", out.Icons[0].URL, out.Icons[1].URL)
	}
}

func TestAssemble_MusicTermThenLikes(t *testing.T) {
	svc := newTestService()

	mc := media.NewContext()
	mc.Music = []*media.Music{
		{Media: media.Media{URL: "a"}, Title: "Game OST", LikeCount: 10},
		{Media: media.Media{URL: "b"}, Title: "Full Soundtrack", LikeCount: 1},
		{Media: media.Media{URL: "c"}, Title: "Random Mix", LikeCount: 999},
		{Media: media.Media{URL: "d"}, Title: "Game OST", LikeCount: 50},
	}

	out := svc.assemble([]*media.MediaContext{mc})

	got := []string{out.Music[0].URL, out.Music[1].URL, out.Music[2].URL, out.Music[3].URL}
	// "full" is term 0, "ost" term 1, unmatched last; likes break ties.
	want := []string{"b", "d", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("music order = %v, want %v", got, want)
		}
	}
}

func TestMerge_ExtrasLeadAndWinDedupe(t *testing.T) {
	svc := newTestService()

	scraped := stamped(imageCtx(media.RoleTitle, "shared", "scraped-only"), media.SourceIGDB)
	previous := stamped(imageCtx(media.RoleTitle, "shared", "prev-only"), media.SourcePrevious)

	out := svc.Merge(scraped, previous)

	if len(out.Titles) != 3 {
		t.Fatalf("titles = %d, want 3", len(out.Titles))
	}
	if out.Titles[0].Source != media.SourcePrevious {
		t.Error("previous selections do not lead the merged list")
	}
	for _, img := range out.Titles {
		if img.URL == "shared" && img.Source != media.SourcePrevious {
			t.Error("scraped duplicate won over the stored selection")
		}
	}
}
