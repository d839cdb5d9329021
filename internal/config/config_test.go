package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Server.Address(); got != "127.0.0.1:8714" {
		t.Errorf("server address = %q", got)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Library.ExtensionPlatforms[".sfc"] != "snes" {
		t.Errorf("extension map = %v, want .sfc mapped to snes", cfg.Library.ExtensionPlatforms)
	}
	if len(cfg.Scrape.MusicSearchTerms) != 4 || cfg.Scrape.MusicSearchTerms[0] != "full" {
		t.Errorf("music search terms = %v", cfg.Scrape.MusicSearchTerms)
	}
	if cfg.Scrape.MaxMusicDurationSeconds != 600 {
		t.Errorf("max music duration = %d", cfg.Scrape.MaxMusicDurationSeconds)
	}

	// SteamGridDB leads, IGDB second, IGN third.
	if cfg.Scrape.SteamGridDB.Icons.Priority != 1 ||
		cfg.Scrape.IGDB.Icons.Priority != 2 ||
		cfg.Scrape.IGN.Icons.Priority != 3 {
		t.Errorf("icon priorities = %d/%d/%d, want 1/2/3",
			cfg.Scrape.SteamGridDB.Icons.Priority,
			cfg.Scrape.IGDB.Icons.Priority,
			cfg.Scrape.IGN.Icons.Priority)
	}
	if !cfg.Scrape.SteamGridDB.PreferSquareIcons {
		t.Error("prefer_square_icons default = false, want true")
	}
	if !cfg.Scrape.SteamGridDB.AllowTitleAsIconWhenNoIconFound {
		t.Error("title-as-icon fallback default = false, want true")
	}

	if cfg.Scrape.IGDB.BaseURL != "https://api.igdb.com/v4" {
		t.Errorf("igdb base URL = %q", cfg.Scrape.IGDB.BaseURL)
	}
	if cfg.Scrape.IGDB.TokenURL != "https://id.twitch.tv/oauth2/token" {
		t.Errorf("igdb token URL = %q", cfg.Scrape.IGDB.TokenURL)
	}
	if cfg.Scrape.IGN.Endpoint != "https://mollusk.apis.ign.com/graphql" {
		t.Errorf("ign endpoint = %q", cfg.Scrape.IGN.Endpoint)
	}
	if cfg.Scrape.YouTube.BinaryPath != "yt-dlp" {
		t.Errorf("youtube binary = %q", cfg.Scrape.YouTube.BinaryPath)
	}
}

func TestLoad_PlatformDefaultsMerged(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Scrape.IGDB.SourceConfig.TranslatePlatform("snes"); got != "19" {
		t.Errorf("igdb snes = %q, want 19", got)
	}
	if got := cfg.Scrape.IGN.SourceConfig.TranslatePlatform("SNES"); got != "6" {
		t.Errorf("ign SNES = %q, want 6 (codes are case-insensitive)", got)
	}
	if got := cfg.Scrape.YouTube.SourceConfig.TranslatePlatform("n64"); got != "Nintendo 64" {
		t.Errorf("youtube n64 = %q", got)
	}
	// Unmapped codes pass through.
	if got := cfg.Scrape.IGDB.SourceConfig.TranslatePlatform("vectrex"); got != "vectrex" {
		t.Errorf("unmapped code = %q, want passthrough", got)
	}
}

func TestLoad_FileOverridesAndUserPlatformsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
scrape:
  steamgriddb:
    api_key: file-key
  igdb:
    platform_map:
      snes: "override"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want file value 9999", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want default kept", cfg.Server.Host)
	}
	if cfg.Scrape.SteamGridDB.APIKey != "file-key" {
		t.Errorf("api key = %q", cfg.Scrape.SteamGridDB.APIKey)
	}

	// User platform entries win over the embedded table; the rest of the
	// table still merges in.
	if got := cfg.Scrape.IGDB.SourceConfig.TranslatePlatform("snes"); got != "override" {
		t.Errorf("igdb snes = %q, want the configured override", got)
	}
	if got := cfg.Scrape.IGDB.SourceConfig.TranslatePlatform("n64"); got != "4" {
		t.Errorf("igdb n64 = %q, want embedded default", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IISU_SERVER_PORT", "7777")
	t.Setenv("IISU_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want env value 7777", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want env value debug", cfg.Logging.Level)
	}
}

func TestSourceConfig_Timeout(t *testing.T) {
	sc := SourceConfig{}
	if sc.Timeout().Seconds() != 30 {
		t.Errorf("zero timeout = %v, want 30s default", sc.Timeout())
	}
	sc.TimeoutSeconds = 5
	if sc.Timeout().Seconds() != 5 {
		t.Errorf("timeout = %v, want 5s", sc.Timeout())
	}
}

func TestEmbeddedPlatformsParses(t *testing.T) {
	cfg := &Config{}
	applyPlatformDefaults(cfg)

	if len(cfg.Scrape.IGDB.PlatformMap) == 0 ||
		len(cfg.Scrape.IGN.PlatformMap) == 0 ||
		len(cfg.Scrape.YouTube.PlatformMap) == 0 {
		t.Error("embedded platform tables did not populate every provider")
	}
}
