package config

// Embedded API credentials injected at build time via ldflags. These serve
// as defaults and can be overridden by environment variables or config
// file.
//
// Build with:
//   go build -ldflags "-X 'github.com/Crimson-Traxis/iisumediascraper/internal/config.EmbeddedSteamGridDBKey=xxx' \
//                      -X 'github.com/Crimson-Traxis/iisumediascraper/internal/config.EmbeddedIGDBClientID=yyy' \
//                      -X 'github.com/Crimson-Traxis/iisumediascraper/internal/config.EmbeddedIGDBClientSecret=zzz'"
var (
	EmbeddedSteamGridDBKey   string
	EmbeddedIGDBClientID     string
	EmbeddedIGDBClientSecret string
)
