package config

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed platforms.yaml
var embeddedPlatforms []byte

// applyPlatformDefaults merges the embedded platform-code translation
// tables under any mappings the user configured. User entries win.
func applyPlatformDefaults(cfg *Config) {
	var defaults map[string]map[string]string
	if err := yaml.Unmarshal(embeddedPlatforms, &defaults); err != nil {
		// The embedded file is validated by tests; an unmarshal failure
		// here leaves the configured maps untouched.
		return
	}

	merge := func(dst *map[string]string, src map[string]string) {
		if *dst == nil {
			*dst = make(map[string]string, len(src))
		}
		for code, id := range src {
			if _, ok := (*dst)[code]; !ok {
				(*dst)[code] = id
			}
		}
	}

	merge(&cfg.Scrape.SteamGridDB.PlatformMap, defaults["steamgriddb"])
	merge(&cfg.Scrape.IGDB.PlatformMap, defaults["igdb"])
	merge(&cfg.Scrape.IGN.PlatformMap, defaults["ign"])
	merge(&cfg.Scrape.YouTube.PlatformMap, defaults["youtube"])
}
