package scrape

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/config"
	"github.com/Crimson-Traxis/iisumediascraper/internal/download"
	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/sanitize"
)

// Hook is the provider-specific part of a scrape call. It receives the
// translated platform identifier and the cleaned game name.
type Hook func(ctx context.Context, platformID, name string, req Request) (*media.MediaContext, *media.ScrapeState, error)

// Base carries the behavior every provider adapter shares: the disabled
// short-circuit, platform translation, name cleaning, per-role limits,
// the title-as-icon fallback and the download-and-validate step.
type Base struct {
	source     media.Source
	cfg        *config.SourceConfig
	extensions []string
	downloader *download.Downloader
	logger     zerolog.Logger
}

// NewBase creates the shared adapter scaffolding for one provider.
func NewBase(source media.Source, cfg *config.SourceConfig, extensions []string,
	downloader *download.Downloader, logger zerolog.Logger) *Base {
	return &Base{
		source:     source,
		cfg:        cfg,
		extensions: extensions,
		downloader: downloader,
		logger:     logger.With().Str("component", "scraper").Str("source", string(source)).Logger(),
	}
}

// Source identifies the provider.
func (b *Base) Source() media.Source { return b.source }

// Config exposes the provider's common settings to the adapter.
func (b *Base) Config() *config.SourceConfig { return b.cfg }

// Logger exposes the adapter logger.
func (b *Base) Logger() zerolog.Logger { return b.logger }

// Run is the single public scrape entry point. It translates the platform
// code, cleans the name, invokes the provider hook and post-processes the
// result. Hook failures are logged and converted into a nil result.
func (b *Base) Run(ctx context.Context, req Request, hook Hook) (*Result, error) {
	if b.cfg == nil || !b.cfg.Enabled {
		return nil, nil
	}

	platformID := b.cfg.TranslatePlatform(req.Platform)
	name := sanitize.CleanName(req.Name, b.extensions)

	mc, state, err := hook(ctx, platformID, name, req)
	if err != nil {
		b.logger.Warn().Err(err).Str("platform", req.Platform).Str("game", name).
			Msg("provider scrape failed")
		return nil, nil
	}
	if mc == nil {
		return nil, nil
	}

	b.fallbackTitleAsIcon(mc)
	b.applyLimits(mc)
	b.downloadAndValidate(ctx, mc)
	b.stampSource(mc)

	return &Result{Context: mc, State: state}, nil
}

// fallbackTitleAsIcon copies title images into the icon list when the
// provider found none and the fallback is configured. The entries are
// struct copies, never shared pointers: downloadAndValidate fans out one
// goroutine per entry of every role list, and a pointer present in both
// lists would be written from two goroutines at once.
func (b *Base) fallbackTitleAsIcon(mc *media.MediaContext) {
	if !b.cfg.AllowTitleAsIconWhenNoIconFound || len(mc.Icons) > 0 || len(mc.Titles) == 0 {
		return
	}
	for _, title := range mc.Titles {
		icon := *title
		mc.Icons = append(mc.Icons, &icon)
	}
}

// applyLimits keeps the first n entries of each list, in current order.
func (b *Base) applyLimits(mc *media.MediaContext) {
	for _, role := range media.Roles {
		if limit := b.cfg.Role(role).Limit; limit > 0 {
			if images := mc.Images(role); len(images) > limit {
				mc.SetImages(role, images[:limit])
			}
		}
	}
	if limit := b.cfg.Music.Limit; limit > 0 && len(mc.Music) > limit {
		mc.Music = mc.Music[:limit]
	}
	if limit := b.cfg.Videos.Limit; limit > 0 && len(mc.Videos) > limit {
		mc.Videos = mc.Videos[:limit]
	}
}

// downloadAndValidate downloads every image across all roles concurrently
// and drops the ones whose download failed.
func (b *Base) downloadAndValidate(ctx context.Context, mc *media.MediaContext) {
	if b.downloader == nil {
		return
	}

	type roleBatch struct {
		role   media.Role
		images []*media.Image
		ok     []bool
	}

	var wg sync.WaitGroup
	batches := make([]*roleBatch, 0, len(media.Roles))

	for _, role := range media.Roles {
		images := mc.Images(role)
		batch := &roleBatch{role: role, images: images, ok: make([]bool, len(images))}
		batches = append(batches, batch)

		for i := range images {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				batch.ok[i] = b.downloader.DownloadMedia(ctx, batch.images[i])
			}(i)
		}
	}

	wg.Wait()

	for _, batch := range batches {
		kept := batch.images[:0:0]
		for i, img := range batch.images {
			if batch.ok[i] {
				kept = append(kept, img)
			}
		}
		if len(kept) != len(batch.images) {
			b.logger.Debug().Str("role", string(batch.role)).
				Int("dropped", len(batch.images)-len(kept)).
				Msg("dropped images that failed to download")
		}
		mc.SetImages(batch.role, kept)
	}
}

// stampSource tags every surviving item with the provider's source.
func (b *Base) stampSource(mc *media.MediaContext) {
	for _, role := range media.Roles {
		for _, img := range mc.Images(role) {
			img.Source = b.source
		}
	}
	for _, m := range mc.Music {
		m.Source = b.source
		if m.Thumbnail != nil {
			m.Thumbnail.Source = b.source
		}
	}
	for _, v := range mc.Videos {
		v.Source = b.source
		if v.Thumbnail != nil {
			v.Thumbnail.Source = b.source
		}
	}
}
