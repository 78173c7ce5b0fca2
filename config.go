package docdex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Configuration defaults and bounds.
const (
	DefaultRefreshInterval = 6 * time.Hour
	MinRefreshInterval     = 1 * time.Hour
	MaxRefreshInterval     = 168 * time.Hour

	DefaultMaxConcurrentFetches = 5
	MaxConcurrentFetchesLimit   = 20
)

// Config holds the server configuration.
type Config struct {
	Sources              []Source      `json:"sources"`
	DBPath               string        `json:"dbPath"`
	RefreshInterval      time.Duration `json:"-"`
	MaxConcurrentFetches int           `json:"maxConcurrentFetches"`
	SkipStartupRefresh   bool          `json:"skipStartupRefresh"`
}

// configFile is the on-disk JSON shape. Sources may be either plain
// strings in "name:url" form or {"name": ..., "url": ...} objects, and
// the refresh interval is given in hours.
type configFile struct {
	Sources              []json.RawMessage `json:"sources"`
	DBPath               string            `json:"dbPath"`
	RefreshIntervalHours int               `json:"refreshIntervalHours"`
	MaxConcurrentFetches int               `json:"maxConcurrentFetches"`
	SkipStartupRefresh   *bool             `json:"skipStartupRefresh"`
}

// DefaultConfig returns a Config with all defaults applied and no
// sources configured.
func DefaultConfig() Config {
	return Config{
		DBPath:               defaultDBPath(),
		RefreshInterval:      DefaultRefreshInterval,
		MaxConcurrentFetches: DefaultMaxConcurrentFetches,
	}
}

// LoadConfig builds the configuration from the optional JSON config
// file at path and DOCDEX_* environment variables. Environment values
// take precedence over the file; missing values fall back to defaults.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := applyConfigFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	cfg.Clamp()
	return cfg, nil
}

// Clamp forces interval and concurrency settings into their allowed
// ranges.
func (c *Config) Clamp() {
	if c.RefreshInterval < MinRefreshInterval {
		c.RefreshInterval = MinRefreshInterval
	}
	if c.RefreshInterval > MaxRefreshInterval {
		c.RefreshInterval = MaxRefreshInterval
	}
	if c.MaxConcurrentFetches < 1 {
		c.MaxConcurrentFetches = 1
	}
	if c.MaxConcurrentFetches > MaxConcurrentFetchesLimit {
		c.MaxConcurrentFetches = MaxConcurrentFetchesLimit
	}
}

func applyConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return Errorf(EINVALID, "reading config file %q: %v", path, err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Errorf(EINVALID, "parsing config file %q: %v", path, err)
	}

	for _, raw := range file.Sources {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			cfg.Sources = append(cfg.Sources, ParseSource(s))
			continue
		}
		var src Source
		if err := json.Unmarshal(raw, &src); err == nil && src.Name != "" && src.URL != "" {
			cfg.Sources = append(cfg.Sources, src)
		}
	}
	if file.DBPath != "" {
		cfg.DBPath = expandHome(file.DBPath)
	}
	if file.RefreshIntervalHours > 0 {
		cfg.RefreshInterval = time.Duration(file.RefreshIntervalHours) * time.Hour
	}
	if file.MaxConcurrentFetches > 0 {
		cfg.MaxConcurrentFetches = file.MaxConcurrentFetches
	}
	if file.SkipStartupRefresh != nil {
		cfg.SkipStartupRefresh = *file.SkipStartupRefresh
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCDEX_SOURCES"); v != "" {
		cfg.Sources = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Sources = append(cfg.Sources, ParseSource(s))
			}
		}
	}
	if v := os.Getenv("DOCDEX_DB"); v != "" {
		cfg.DBPath = expandHome(v)
	}
	if v := os.Getenv("DOCDEX_REFRESH_INTERVAL"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			cfg.RefreshInterval = time.Duration(hours) * time.Hour
		}
	}
	if v := os.Getenv("DOCDEX_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrentFetches = n
		}
	}
	if v := os.Getenv("DOCDEX_SKIP_STARTUP_REFRESH"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.SkipStartupRefresh = true
		}
	}
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "docdex.db"
	}
	return filepath.Join(home, ".docdex", "docdex.db")
}
