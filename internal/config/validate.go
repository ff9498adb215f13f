package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validatePage(); err != nil {
		return err
	}
	if err := c.validateTrace(); err != nil {
		return err
	}
	if err := c.validateThumbnail(); err != nil {
		return err
	}
	if err := c.validateServicePolicy(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

// ValidateCredentials checks settings only needed when a run contacts the
// analysis service. Commands that inspect local state skip it.
func (c *Config) ValidateCredentials() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/pagesmith/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set PAGESMITH_LLM_API_KEY or OPENROUTER_API_KEY, or edit %s (create with 'pagesmith config init')", defaultPath)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	return nil
}

func (c *Config) validateTools() error {
	return ensurePositiveMap(map[string]int{
		"tools.trace_timeout":  c.Tools.TraceTimeout,
		"tools.render_timeout": c.Tools.RenderTimeout,
	})
}

func (c *Config) validatePage() error {
	if c.Page.WidthMM <= 0 || c.Page.HeightMM <= 0 {
		return errors.New("page.width_mm and page.height_mm must be positive")
	}
	if c.Page.DPI <= 0 {
		return errors.New("page.dpi must be positive")
	}
	if c.PageWidthPx() <= 0 || c.PageHeightPx() <= 0 {
		return errors.New("page dimensions round to zero pixels; raise page.dpi")
	}
	if c.Page.MarginRatio < 0 || c.Page.MarginRatio >= 1 {
		return errors.New("page.margin_ratio must be in [0, 1)")
	}
	return nil
}

func (c *Config) validateTrace() error {
	if c.Trace.BlackLevel <= 0 || c.Trace.BlackLevel >= 1 {
		return errors.New("trace.blacklevel must be between 0 and 1")
	}
	if c.Trace.TurdSize < 0 {
		return errors.New("trace.turdsize must be >= 0")
	}
	if c.Trace.AlphaMax < 0 {
		return errors.New("trace.alphamax must be >= 0")
	}
	if c.Trace.OptTolerance < 0 {
		return errors.New("trace.opttolerance must be >= 0")
	}
	return nil
}

func (c *Config) validateThumbnail() error {
	if c.Thumbnail.Width <= 0 {
		return errors.New("thumbnail.width must be positive")
	}
	if c.Thumbnail.RatioTolerance < 0 || c.Thumbnail.RatioTolerance >= 1 {
		return errors.New("thumbnail.ratio_tolerance must be in [0, 1)")
	}
	if c.Thumbnail.MinContrast < 0 || c.Thumbnail.MinContrast > 255 {
		return errors.New("thumbnail.min_contrast must be between 0 and 255")
	}
	return nil
}

func (c *Config) validateServicePolicy() error {
	if err := ensurePositiveMap(map[string]int{
		"retry.max_attempts":        c.Retry.MaxAttempts,
		"rate_limit.calls":          c.RateLimit.Calls,
		"rate_limit.window_seconds": c.RateLimit.WindowSeconds,
		"llm.timeout_seconds":       c.LLM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Retry.Base < 1 {
		return errors.New("retry.base must be >= 1")
	}
	if c.Retry.UnitMillis < 0 {
		return errors.New("retry.unit_ms must be >= 0")
	}
	if c.Retry.MaxDelaySeconds < 0 {
		return errors.New("retry.max_delay_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers <= 0 {
		return errors.New("pipeline.workers must be positive")
	}
	if c.Pipeline.Workers > maxWorkers {
		return fmt.Errorf("pipeline.workers must be <= %d", maxWorkers)
	}
	if c.Pipeline.StaleWorkHours < 0 {
		return errors.New("pipeline.stale_work_hours must be zero (disabled) or positive")
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if _, err := language.Parse(c.Languages.Base); err != nil {
		return fmt.Errorf("languages.base %q is not a valid language tag: %w", c.Languages.Base, err)
	}
	for _, lang := range c.Languages.Targets {
		if _, err := language.Parse(lang.Code); err != nil {
			return fmt.Errorf("languages.targets: %q is not a valid language tag: %w", lang.Code, err)
		}
	}
	return nil
}

func (c *Config) validatePublish() error {
	switch c.Publish.Format {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("publish.format must be json or yaml, got %q", c.Publish.Format)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
