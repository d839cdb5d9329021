// Package download fetches raw bytes for media URLs and probes image
// pixel dimensions.
package download

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
)

// Downloader fetches image bytes over HTTP. Video and music downloads are
// intentionally unsupported here; the soundtrack pipeline delegates to its
// external downloader tool.
type Downloader struct {
	client    *retryhttp.Client
	userAgent string
	logger    zerolog.Logger
}

// New creates a Downloader.
func New(client *retryhttp.Client, userAgent string, logger zerolog.Logger) *Downloader {
	if client == nil {
		client = retryhttp.New(&http.Client{Timeout: 60 * time.Second}, logger)
	}
	return &Downloader{
		client:    client,
		userAgent: userAgent,
		logger:    logger.With().Str("component", "download").Logger(),
	}
}

// DownloadMedia resolves the item's payload. For images it fetches the
// bytes and probes pixel dimensions, returning true only when the payload
// is non-empty. For every other media type it returns false without
// touching the network. Failures are logged, never propagated.
func (d *Downloader) DownloadMedia(ctx context.Context, item media.Item) bool {
	img, ok := item.(*media.Image)
	if !ok {
		return false
	}
	return d.downloadImage(ctx, img)
}

func (d *Downloader) downloadImage(ctx context.Context, img *media.Image) bool {
	if len(img.Data) > 0 {
		d.probe(img)
		return true
	}

	if img.URL == "" || strings.HasPrefix(img.URL, "file:") {
		return false
	}

	data, err := d.fetch(ctx, img.URL)
	if err != nil {
		d.logger.Warn().Err(err).Str("url", img.URL).Msg("image download failed")
		return false
	}
	if len(data) == 0 {
		d.logger.Warn().Str("url", img.URL).Msg("image download returned no bytes")
		return false
	}

	img.Data = data
	d.probe(img)
	return true
}

// fetch GETs the URL with a browser-like User-Agent.
func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.client.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", d.userAgent)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// probe fills in pixel dimensions from the downloaded bytes. Unknown
// formats leave the dimensions at zero.
func (d *Downloader) probe(img *media.Image) {
	if img.Width > 0 && img.Height > 0 {
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		d.logger.Debug().Err(err).Str("url", img.URL).Msg("could not probe image dimensions")
		return
	}
	img.Width = cfg.Width
	img.Height = cfg.Height
}
