package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"calpicker/internal/calendar"
	appLog "calpicker/internal/log"
	"calpicker/internal/paging"
	"calpicker/internal/selection"
	"calpicker/internal/today"
	"calpicker/internal/widget"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CacheConfig bounds the page cache.
type CacheConfig struct {
	// Capacity is the maximum number of live pages.
	Capacity int `yaml:"capacity" json:"capacity"`
	// Radius is how many periods are kept on each side of the displayed one.
	Radius int `yaml:"radius" json:"radius"`
}

// Config is the top-level application configuration. It is read once at
// startup.
type Config struct {
	// Listen is the HTTP listen address for the API. Empty disables it.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone the calendar works in; "Local" uses the
	// system zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is the first column of the grid ("sunday" ... "saturday").
	WeekStart string `yaml:"week_start" json:"week_start"`

	// Layout is the initial display: "month" or "week".
	Layout string `yaml:"layout" json:"layout"`

	// Selection is "single" or "multiple".
	Selection string `yaml:"selection" json:"selection"`

	// WeekdaySymbols is "very_short", "short", "regular" or "custom".
	WeekdaySymbols string `yaml:"weekday_symbols" json:"weekday_symbols"`

	// CustomWeekdaySymbols are used with WeekdaySymbols "custom". They
	// are listed Sunday first and must hold exactly seven entries.
	CustomWeekdaySymbols []string `yaml:"custom_weekday_symbols,omitempty" json:"custom_weekday_symbols,omitempty"`

	Cache CacheConfig `yaml:"cache" json:"cache"`

	// TodayCron schedules the day rollover refresh.
	TodayCron string `yaml:"today_cron" json:"today_cron"`

	// EventsFile is an optional local .ics file shown on the grid.
	EventsFile string `yaml:"events_file,omitempty" json:"events_file,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:8080",
		Timezone:       "Local",
		WeekStart:      "sunday",
		Layout:         "month",
		Selection:      "single",
		WeekdaySymbols: "short",
		Cache: CacheConfig{
			Capacity: paging.DefaultCapacity,
			Radius:   paging.DefaultRadius,
		},
		TodayCron: today.DefaultSpec,
		LogLevel:  "info",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. It does not validate.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if c.WeekStart == "" {
		c.WeekStart = def.WeekStart
	}
	if c.Layout == "" {
		c.Layout = def.Layout
	}
	if c.Selection == "" {
		c.Selection = def.Selection
	}
	if c.WeekdaySymbols == "" {
		c.WeekdaySymbols = def.WeekdaySymbols
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = def.Cache.Capacity
	}
	if c.Cache.Radius <= 0 {
		c.Cache.Radius = def.Cache.Radius
	}
	if c.TodayCron == "" {
		c.TodayCron = def.TodayCron
	}
	c.EventsFile = strings.TrimSpace(c.EventsFile)
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate reports the first invalid setting. The widget cannot be built
// from an invalid config, so callers should stop on error.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := ParseWeekday(c.WeekStart); err != nil {
		return err
	}
	if _, err := calendar.ParseLayout(c.Layout); err != nil {
		return fmt.Errorf("config: layout: %w", err)
	}
	if _, err := selection.ParseMode(c.Selection); err != nil {
		return fmt.Errorf("config: selection: %w", err)
	}
	style, err := calendar.ParseSymbolStyle(c.WeekdaySymbols)
	if err != nil {
		return fmt.Errorf("config: weekday_symbols: %w", err)
	}
	if style == calendar.SymbolsCustom && len(c.CustomWeekdaySymbols) != 7 {
		return fmt.Errorf("config: custom_weekday_symbols: %w: got %d",
			calendar.ErrInvalidWeekdaySymbols, len(c.CustomWeekdaySymbols))
	}
	if c.Cache.Capacity < 0 || c.Cache.Radius < 0 {
		return errors.New("config: cache capacity and radius must not be negative")
	}
	if c.Cache.Capacity > 0 && c.Cache.Capacity < paging.MinCapacity {
		return fmt.Errorf("config: cache capacity must be at least %d, got %d", paging.MinCapacity, c.Cache.Capacity)
	}
	if _, err := today.ParseSpec(c.TodayCron); err != nil {
		return fmt.Errorf("config: today_cron: %w", err)
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if a := c.BasicAuth; a != nil && (a.Username == "" || a.Password == "") {
		return errors.New("config: basic_auth needs both username and password")
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseWeekday maps "sunday" ... "saturday" (or three-letter forms) to a
// time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if v == name || v == name[:3] {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("config: unknown week_start %q", s)
}

// WidgetOptions converts a validated config into widget options.
func (c *Config) WidgetOptions() (widget.Options, error) {
	if err := c.Validate(); err != nil {
		return widget.Options{}, err
	}
	loc, _ := c.Location()
	wd, _ := ParseWeekday(c.WeekStart)
	layout, _ := calendar.ParseLayout(c.Layout)
	mode, _ := selection.ParseMode(c.Selection)
	style, _ := calendar.ParseSymbolStyle(c.WeekdaySymbols)

	return widget.Options{
		Location:      loc,
		FirstWeekday:  wd,
		Layout:        layout,
		Selection:     mode,
		SymbolStyle:   style,
		CustomSymbols: append([]string(nil), c.CustomWeekdaySymbols...),
		CacheCapacity: c.Cache.Capacity,
		CacheRadius:   c.Cache.Radius,
	}, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 perms and returned.
//   - Otherwise the YAML is read and normalized.
//
// Load does not validate; call Validate before using the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("default config written", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calpicker-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
