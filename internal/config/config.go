package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Tools contains external binary locations and their time budgets.
type Tools struct {
	Potrace       string `toml:"potrace"`
	Inkscape      string `toml:"inkscape"`
	TraceTimeout  int    `toml:"trace_timeout"`
	RenderTimeout int    `toml:"render_timeout"`
}

// Page describes the single print target every composed artifact is laid out on.
type Page struct {
	WidthMM     float64 `toml:"width_mm"`
	HeightMM    float64 `toml:"height_mm"`
	DPI         float64 `toml:"dpi"`
	MarginRatio float64 `toml:"margin_ratio"`
	Fill        string  `toml:"fill"`
	Stroke      string  `toml:"stroke"`
}

// Trace contains potrace tuning parameters.
type Trace struct {
	BlackLevel   float64 `toml:"blacklevel"`
	TurdSize     int     `toml:"turdsize"`
	AlphaMax     float64 `toml:"alphamax"`
	OptTolerance float64 `toml:"opttolerance"`
	Autocrop     bool    `toml:"autocrop"`
}

// Thumbnail contains preview rendering and acceptance settings.
type Thumbnail struct {
	Width          int     `toml:"width"`
	RatioTolerance float64 `toml:"ratio_tolerance"`
	MinContrast    int     `toml:"min_contrast"`
}

// LLM contains the vision/translation service connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Retry contains the backoff policy applied to external service calls.
type Retry struct {
	MaxAttempts     int     `toml:"max_attempts"`
	Base            float64 `toml:"base"`
	UnitMillis      int     `toml:"unit_ms"`
	MaxDelaySeconds int     `toml:"max_delay_seconds"`
}

// RateLimit bounds outbound service calls per trailing window.
type RateLimit struct {
	Calls         int `toml:"calls"`
	WindowSeconds int `toml:"window_seconds"`
}

// Pipeline contains batch processing settings. Work directories older than
// StaleWorkHours are removed when a run starts.
type Pipeline struct {
	Workers            int      `toml:"workers"`
	Patterns           []string `toml:"patterns"`
	DeleteSource       bool     `toml:"delete_source"`
	PlaceholderTitle   string   `toml:"placeholder_title"`
	DefaultSubcategory string   `toml:"default_subcategory"`
	StaleWorkHours     int      `toml:"stale_work_hours"`
}

// Language pairs a display name with its language code.
type Language struct {
	Name string `toml:"name"`
	Code string `toml:"code"`
}

// Languages lists the base language and every localization target.
type Languages struct {
	Base    string     `toml:"base"`
	Targets []Language `toml:"targets"`
}

// Publish contains output record settings.
type Publish struct {
	Format      string `toml:"format"`
	IconBaseURL string `toml:"icon_base_url"`
}

// Notifications contains push notification settings. An empty topic
// disables notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for pagesmith.
//
// Configuration sections by subsystem:
//   - Paths: source, output, scratch, state, and log directories
//   - Tools: potrace and inkscape binaries plus timeouts
//   - Page: print target size, resolution, margin, and forced style
//   - Trace: potrace tuning
//   - Thumbnail: preview size and acceptance thresholds
//   - LLM: image analysis and translation service
//   - Retry / RateLimit: outbound call policy
//   - Pipeline: worker count, discovery patterns, source cleanup
//   - Languages: base language and localization targets
//   - Publish: metadata record format
//   - Notifications: ntfy run notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Page          Page          `toml:"page"`
	Trace         Trace         `toml:"trace"`
	Thumbnail     Thumbnail     `toml:"thumbnail"`
	LLM           LLM           `toml:"llm"`
	Retry         Retry         `toml:"retry"`
	RateLimit     RateLimit     `toml:"rate_limit"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Languages     Languages     `toml:"languages"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pagesmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is read
// first so credentials kept there act as environment fallbacks.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pagesmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The input
// directory is not created; a missing input directory is a configuration error
// surfaced by preflight.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file holding the translation cache and the
// processed-file ledger.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "pagesmith.db")
}

// LockPath returns the run lock file guarding the ledger against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "pagesmith.lock")
}

// PageWidthPx returns the page width in whole pixels (truncated).
func (c *Config) PageWidthPx() int {
	return int(c.Page.WidthMM * c.Page.DPI / 25.4)
}

// PageHeightPx returns the page height in whole pixels (truncated).
func (c *Config) PageHeightPx() int {
	return int(c.Page.HeightMM * c.Page.DPI / 25.4)
}

// TraceTimeout returns the potrace time budget.
func (c *Config) TraceTimeout() time.Duration {
	return time.Duration(c.Tools.TraceTimeout) * time.Second
}

// RenderTimeout returns the inkscape time budget.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Tools.RenderTimeout) * time.Second
}

// StaleWorkAge returns the age after which leftover work directories are
// removed. Zero disables the cleanup.
func (c *Config) StaleWorkAge() time.Duration {
	return time.Duration(c.Pipeline.StaleWorkHours) * time.Hour
}

// NotifyTimeout returns the ntfy request timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// RateWindow returns the trailing rate limit window.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// RetryUnit returns the duration multiplied by the exponential backoff factor.
func (c *Config) RetryUnit() time.Duration {
	return time.Duration(c.Retry.UnitMillis) * time.Millisecond
}

// RetryMaxDelay caps a single backoff wait, including server Retry-After hints.
// Zero leaves waits uncapped.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelaySeconds) * time.Second
}

// BaseLanguage returns the configured base language entry. When the base code
// is not among the targets a bare entry carrying only the code is returned.
func (c *Config) BaseLanguage() Language {
	for _, lang := range c.Languages.Targets {
		if lang.Code == c.Languages.Base {
			return lang
		}
	}
	return Language{Name: c.Languages.Base, Code: c.Languages.Base}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
