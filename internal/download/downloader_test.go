package download

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
	"github.com/Crimson-Traxis/iisumediascraper/internal/retryhttp"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestDownloader() *Downloader {
	client := retryhttp.New(&http.Client{Timeout: 5 * time.Second}, zerolog.Nop(),
		retryhttp.WithMaxAttempts(2), retryhttp.WithBackoffBase(time.Millisecond))
	return New(client, "test-agent", zerolog.Nop())
}

func TestDownloadMedia_ImageFetchAndProbe(t *testing.T) {
	payload := pngBytes(t, 32, 48)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", got)
		}
		w.Write(payload)
	}))
	defer server.Close()

	img := &media.Image{Media: media.Media{URL: server.URL + "/icon.png"}}
	if !newTestDownloader().DownloadMedia(context.Background(), img) {
		t.Fatal("DownloadMedia() = false, want true")
	}

	if len(img.Data) != len(payload) {
		t.Errorf("Data length = %d, want %d", len(img.Data), len(payload))
	}
	if img.Width != 32 || img.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 32x48", img.Width, img.Height)
	}
}

func TestDownloadMedia_KeepsKnownDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, 10, 10))
	}))
	defer server.Close()

	img := &media.Image{Media: media.Media{URL: server.URL}, Width: 600, Height: 900}
	if !newTestDownloader().DownloadMedia(context.Background(), img) {
		t.Fatal("DownloadMedia() = false, want true")
	}
	if img.Width != 600 || img.Height != 900 {
		t.Errorf("dimensions overwritten to %dx%d", img.Width, img.Height)
	}
}

func TestDownloadMedia_NonImageSkipsNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	d := newTestDownloader()
	video := &media.Video{Media: media.Media{URL: server.URL}}
	music := &media.Music{Media: media.Media{URL: server.URL}}

	if d.DownloadMedia(context.Background(), video) {
		t.Error("DownloadMedia(video) = true, want false")
	}
	if d.DownloadMedia(context.Background(), music) {
		t.Error("DownloadMedia(music) = true, want false")
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("server calls = %d, want 0", got)
	}
}

func TestDownloadMedia_SkipsFileAndEmptyURLs(t *testing.T) {
	d := newTestDownloader()

	if d.DownloadMedia(context.Background(), &media.Image{}) {
		t.Error("empty URL downloaded")
	}
	if d.DownloadMedia(context.Background(),
		&media.Image{Media: media.Media{URL: "file:///c:/art/icon.png"}}) {
		t.Error("file URL downloaded")
	}
}

func TestDownloadMedia_ExistingDataSkipsFetch(t *testing.T) {
	img := &media.Image{Media: media.Media{URL: "http://127.0.0.1:1/unreachable", Data: pngBytes(t, 7, 9)}}
	if !newTestDownloader().DownloadMedia(context.Background(), img) {
		t.Fatal("DownloadMedia() = false, want true")
	}
	if img.Width != 7 || img.Height != 9 {
		t.Errorf("dimensions = %dx%d, want 7x9", img.Width, img.Height)
	}
}

func TestDownloadMedia_FailureReturnsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	img := &media.Image{Media: media.Media{URL: server.URL}}
	if newTestDownloader().DownloadMedia(context.Background(), img) {
		t.Error("DownloadMedia() = true for 404, want false")
	}
}
