package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SemesterConfig identifies the semester being rendered and its date
// envelope. Dates may be left empty; the engine then falls back to
// now-anchored defaults.
type SemesterConfig struct {
	ID        string `yaml:"id" json:"id"`
	StartDate string `yaml:"start_date" json:"start_date"`
	EndDate   string `yaml:"end_date" json:"end_date"`
	MaxWeek   int    `yaml:"max_week" json:"max_week"`
}

// ExportConfig controls the single-shot export mode and export defaults.
type ExportConfig struct {
	// OutputDir receives artifacts written by --once mode.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	// Formats lists which artifacts --once produces ("png", "pdf", "ics").
	Formats []string `yaml:"formats" json:"formats"`
	// SkipRenderMode is "GRAY_SKIPPED" or "HIDE_SKIPPED".
	SkipRenderMode string `yaml:"skip_render_mode" json:"skip_render_mode"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for date resolution.
	Timezone string `yaml:"timezone" json:"timezone"`

	// ScheduleServiceURL is the base URL of the external schedule/course
	// service that owns the raw occurrence data.
	ScheduleServiceURL string `yaml:"schedule_service_url" json:"schedule_service_url"`

	// CacheDir holds the schedule-service response cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RefreshCron is a cron-style schedule string for periodic schedule
	// refresh notifications (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DayStart / DayEnd bound the visible day window ("HH:MM").
	DayStart string `yaml:"day_start" json:"day_start"`
	DayEnd   string `yaml:"day_end" json:"day_end"`

	Semester SemesterConfig `yaml:"semester" json:"semester"`
	Export   ExportConfig   `yaml:"export" json:"export"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:             "127.0.0.1:8080",
		Timezone:           "Local",
		ScheduleServiceURL: "http://127.0.0.1:9000",
		CacheDir:           "./var/schedule-cache",
		RefreshCron:        "*/15 * * * *",
		DayStart:           "08:00",
		DayEnd:             "20:00",
		Semester: SemesterConfig{
			MaxWeek: 16,
		},
		Export: ExportConfig{
			OutputDir:      "./exports",
			Formats:        []string{"png", "pdf", "ics"},
			SkipRenderMode: "GRAY_SKIPPED",
		},
		BasicAuth: nil,
	}
}

// Normalize fills missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.ScheduleServiceURL == "" {
		c.ScheduleServiceURL = "http://127.0.0.1:9000"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/schedule-cache"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.DayStart == "" {
		c.DayStart = "08:00"
	}
	if c.DayEnd == "" {
		c.DayEnd = "20:00"
	}
	if c.Semester.MaxWeek <= 0 {
		c.Semester.MaxWeek = 16
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "./exports"
	}
	if len(c.Export.Formats) == 0 {
		c.Export.Formats = []string{"png", "pdf", "ics"}
	}
	switch c.Export.SkipRenderMode {
	case "GRAY_SKIPPED", "HIDE_SKIPPED":
		// ok
	default:
		c.Export.SkipRenderMode = "GRAY_SKIPPED"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, write a default config (0600, parent dir
//     created) and return the defaults.
//   - Otherwise read, unmarshal and normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
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

	tmp, err := os.CreateTemp(dir, ".semestra-config-*.tmp")
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

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
