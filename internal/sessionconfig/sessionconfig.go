// Package sessionconfig loads optional per-deployment editing defaults —
// the default revision author and cache capacity — from a YAML settings
// file, layered on top of internal/config's environment-variable
// defaults.
package sessionconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds the editing-session defaults a YAML file may override.
type Settings struct {
	DefaultAuthor string `yaml:"default_author"`
	CacheCapacity int    `yaml:"cache_capacity"`
}

// Default returns the built-in fallbacks used when no settings file is
// present.
func Default() Settings {
	return Settings{DefaultAuthor: "", CacheCapacity: 10}
}

// Load reads settings from path, falling back to Default() for any field
// the file leaves unset. A missing file is not an error — it just means
// defaults apply.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("sessionconfig: read %q: %w", path, err)
	}

	var overrides Settings
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return s, fmt.Errorf("sessionconfig: parse %q: %w", path, err)
	}

	if overrides.DefaultAuthor != "" {
		s.DefaultAuthor = overrides.DefaultAuthor
	}
	if overrides.CacheCapacity > 0 {
		s.CacheCapacity = overrides.CacheCapacity
	}
	return s, nil
}
