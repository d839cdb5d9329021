// Package config loads application configuration from file, environment
// and embedded defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Crimson-Traxis/iisumediascraper/internal/media"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Library  LibraryConfig  `mapstructure:"library"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LibraryConfig describes the local games library folder.
type LibraryConfig struct {
	Path               string            `mapstructure:"path"`
	ScanIntervalMin    int               `mapstructure:"scan_interval_minutes"`
	ExtensionPlatforms map[string]string `mapstructure:"extension_platforms"`
}

// Extensions returns the known game file extensions, derived from the
// extension-to-platform map.
func (c *LibraryConfig) Extensions() []string {
	exts := make([]string, 0, len(c.ExtensionPlatforms))
	for ext := range c.ExtensionPlatforms {
		exts = append(exts, ext)
	}
	return exts
}

// RoleConfig is the per-role slice of a source's settings.
type RoleConfig struct {
	Fetch            bool     `mapstructure:"fetch"`
	FetchIfNoneFound bool     `mapstructure:"fetch_if_none_found"`
	Priority         int      `mapstructure:"priority"`
	Limit            int      `mapstructure:"limit"`
	Styles           []string `mapstructure:"styles"`
}

// SourceConfig carries the settings common to every provider.
type SourceConfig struct {
	Enabled                         bool              `mapstructure:"enabled"`
	TimeoutSeconds                  int               `mapstructure:"timeout_seconds"`
	AllowTitleAsIconWhenNoIconFound bool              `mapstructure:"allow_title_as_icon_when_no_icon_found"`
	PreferSquareIcons               bool              `mapstructure:"prefer_square_icons"`
	PlatformMap                     map[string]string `mapstructure:"platform_map"`

	Icons  RoleConfig `mapstructure:"icons"`
	Logos  RoleConfig `mapstructure:"logos"`
	Titles RoleConfig `mapstructure:"titles"`
	Heros  RoleConfig `mapstructure:"heros"`
	Slides RoleConfig `mapstructure:"slides"`
	Videos RoleConfig `mapstructure:"videos"`
	Music  RoleConfig `mapstructure:"music"`
}

// Role returns the config slice for an image role.
func (c *SourceConfig) Role(role media.Role) RoleConfig {
	switch role {
	case media.RoleIcon:
		return c.Icons
	case media.RoleLogo:
		return c.Logos
	case media.RoleTitle:
		return c.Titles
	case media.RoleHero:
		return c.Heros
	case media.RoleSlide:
		return c.Slides
	}
	return RoleConfig{}
}

// Timeout returns the provider HTTP timeout.
func (c *SourceConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TranslatePlatform maps a library platform code to the provider's own
// identifier, passing the code through unchanged when unmapped.
func (c *SourceConfig) TranslatePlatform(code string) string {
	if id, ok := c.PlatformMap[strings.ToLower(code)]; ok {
		return id
	}
	return code
}

// SteamGridDBConfig configures the SteamGridDB adapter.
type SteamGridDBConfig struct {
	SourceConfig `mapstructure:",squash"`
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
}

// IGDBConfig configures the IGDB adapter.
type IGDBConfig struct {
	SourceConfig `mapstructure:",squash"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	BaseURL      string `mapstructure:"base_url"`
	TokenURL     string `mapstructure:"token_url"`
}

// IGNConfig configures the IGN adapter.
type IGNConfig struct {
	SourceConfig `mapstructure:",squash"`
	Endpoint     string `mapstructure:"endpoint"`
	PageBaseURL  string `mapstructure:"page_base_url"`
	ScrapePage   bool   `mapstructure:"scrape_page"`
}

// YouTubeConfig configures the yt-dlp backed soundtrack adapter.
type YouTubeConfig struct {
	SourceConfig       `mapstructure:",squash"`
	BinaryPath         string `mapstructure:"binary_path"`
	PlaylistSearchLimit int   `mapstructure:"playlist_search_limit"`
}

// ScrapeConfig holds all scraper configuration.
type ScrapeConfig struct {
	UserAgent               string   `mapstructure:"user_agent"`
	MusicSearchTerms        []string `mapstructure:"music_search_terms"`
	MaxMusicDurationSeconds int      `mapstructure:"max_music_duration_seconds"`

	SteamGridDB SteamGridDBConfig `mapstructure:"steamgriddb"`
	IGDB        IGDBConfig        `mapstructure:"igdb"`
	IGN         IGNConfig         `mapstructure:"ign"`
	YouTube     YouTubeConfig     `mapstructure:"youtube"`
}

// Source returns the common slice of the named source's config.
func (c *ScrapeConfig) Source(src media.Source) *SourceConfig {
	switch src {
	case media.SourceSteamGridDB:
		return &c.SteamGridDB.SourceConfig
	case media.SourceIGDB:
		return &c.IGDB.SourceConfig
	case media.SourceIGN:
		return &c.IGN.SourceConfig
	case media.SourceYouTube:
		return &c.YouTube.SourceConfig
	}
	return nil
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.iisumediascraper")
	}

	v.SetEnvPrefix("IISU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEmbeddedKeys(cfg)
	applyPlatformDefaults(cfg)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8714)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.path", "./data/iisumediascraper.db")

	v.SetDefault("library.path", "./games")
	v.SetDefault("library.scan_interval_minutes", 0)
	v.SetDefault("library.extension_platforms", map[string]string{
		".nes": "nes", ".sfc": "snes", ".smc": "snes", ".gb": "gb",
		".gbc": "gbc", ".gba": "gba", ".nds": "nds", ".n64": "n64",
		".z64": "n64", ".gcm": "gc", ".iso": "ps2", ".cue": "psx",
		".chd": "psx", ".md": "genesis", ".32x": "sega32x",
	})

	v.SetDefault("scrape.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("scrape.music_search_terms", []string{"full", "complete", "ost", "soundtrack"})
	v.SetDefault("scrape.max_music_duration_seconds", 600)

	for _, src := range []string{"steamgriddb", "igdb", "ign", "youtube"} {
		v.SetDefault("scrape."+src+".enabled", true)
		v.SetDefault("scrape."+src+".timeout_seconds", 30)
	}
	for _, role := range []string{"icons", "logos", "titles", "heros", "slides", "videos", "music"} {
		for _, src := range []string{"steamgriddb", "igdb", "ign", "youtube"} {
			v.SetDefault("scrape."+src+"."+role+".fetch", true)
			v.SetDefault("scrape."+src+"."+role+".fetch_if_none_found", true)
			v.SetDefault("scrape."+src+"."+role+".limit", 10)
		}
	}

	// Lower priority wins; SteamGridDB art is curated, so it leads.
	v.SetDefault("scrape.steamgriddb.base_url", "https://www.steamgriddb.com/api/v2")
	v.SetDefault("scrape.steamgriddb.allow_title_as_icon_when_no_icon_found", true)
	v.SetDefault("scrape.steamgriddb.prefer_square_icons", true)
	for _, role := range []string{"icons", "logos", "titles", "heros", "slides"} {
		v.SetDefault("scrape.steamgriddb."+role+".priority", 1)
		v.SetDefault("scrape.igdb."+role+".priority", 2)
		v.SetDefault("scrape.ign."+role+".priority", 3)
	}

	v.SetDefault("scrape.igdb.base_url", "https://api.igdb.com/v4")
	v.SetDefault("scrape.igdb.token_url", "https://id.twitch.tv/oauth2/token")

	v.SetDefault("scrape.ign.endpoint", "https://mollusk.apis.ign.com/graphql")
	v.SetDefault("scrape.ign.page_base_url", "https://www.ign.com/games")
	v.SetDefault("scrape.ign.scrape_page", true)

	v.SetDefault("scrape.youtube.binary_path", "yt-dlp")
	v.SetDefault("scrape.youtube.playlist_search_limit", 5)
}

// applyEmbeddedKeys fills credentials from build-time embedded values when
// the config leaves them empty.
func applyEmbeddedKeys(cfg *Config) {
	if cfg.Scrape.SteamGridDB.APIKey == "" {
		cfg.Scrape.SteamGridDB.APIKey = EmbeddedSteamGridDBKey
	}
	if cfg.Scrape.IGDB.ClientID == "" {
		cfg.Scrape.IGDB.ClientID = EmbeddedIGDBClientID
	}
	if cfg.Scrape.IGDB.ClientSecret == "" {
		cfg.Scrape.IGDB.ClientSecret = EmbeddedIGDBClientSecret
	}
}
