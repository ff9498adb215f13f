package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizePage()
	c.normalizeLLM()
	c.normalizePipeline()
	c.normalizeLanguages()
	c.normalizePublish()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.Potrace = strings.TrimSpace(c.Tools.Potrace)
	if value, ok := os.LookupEnv("POTRACE_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Tools.Potrace = strings.TrimSpace(value)
	}
	if c.Tools.Potrace == "" {
		c.Tools.Potrace = defaultPotrace
	}
	c.Tools.Inkscape = strings.TrimSpace(c.Tools.Inkscape)
	if value, ok := os.LookupEnv("INKSCAPE_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Tools.Inkscape = strings.TrimSpace(value)
	}
	if c.Tools.Inkscape == "" {
		c.Tools.Inkscape = defaultInkscape
	}
}

func (c *Config) normalizePage() {
	c.Page.Fill = strings.ToLower(strings.TrimSpace(c.Page.Fill))
	if c.Page.Fill == "" {
		c.Page.Fill = defaultFill
	}
	c.Page.Stroke = strings.ToLower(strings.TrimSpace(c.Page.Stroke))
	if c.Page.Stroke == "" {
		c.Page.Stroke = defaultStroke
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("PAGESMITH_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePipeline() {
	patterns := make([]string, 0, len(c.Pipeline.Patterns))
	seen := make(map[string]struct{}, len(c.Pipeline.Patterns))
	for _, pattern := range c.Pipeline.Patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		patterns = append(patterns, trimmed)
	}
	if len(patterns) == 0 {
		patterns = []string{defaultDiscoveryPattern}
	}
	c.Pipeline.Patterns = patterns
	c.Pipeline.PlaceholderTitle = strings.TrimSpace(c.Pipeline.PlaceholderTitle)
	if c.Pipeline.PlaceholderTitle == "" {
		c.Pipeline.PlaceholderTitle = defaultPlaceholderTitle
	}
	c.Pipeline.DefaultSubcategory = strings.TrimSpace(c.Pipeline.DefaultSubcategory)
	if c.Pipeline.DefaultSubcategory == "" {
		c.Pipeline.DefaultSubcategory = defaultSubcategory
	}
}

func (c *Config) normalizeLanguages() {
	c.Languages.Base = strings.ToLower(strings.TrimSpace(c.Languages.Base))
	if c.Languages.Base == "" {
		c.Languages.Base = defaultBaseLanguage
	}
	if len(c.Languages.Targets) == 0 {
		c.Languages.Targets = defaultTargets()
	}
	targets := make([]Language, 0, len(c.Languages.Targets))
	seen := make(map[string]struct{}, len(c.Languages.Targets))
	for _, lang := range c.Languages.Targets {
		code := strings.ToLower(strings.TrimSpace(lang.Code))
		if code == "" {
			continue
		}
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		name := strings.TrimSpace(lang.Name)
		if name == "" {
			name = code
		}
		targets = append(targets, Language{Name: name, Code: code})
	}
	c.Languages.Targets = targets
}

func (c *Config) normalizePublish() {
	c.Publish.Format = strings.ToLower(strings.TrimSpace(c.Publish.Format))
	switch c.Publish.Format {
	case "", "json":
		c.Publish.Format = "json"
	case "yml":
		c.Publish.Format = "yaml"
	}
	c.Publish.IconBaseURL = strings.TrimRight(strings.TrimSpace(c.Publish.IconBaseURL), "/")
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.StageOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			key := strings.ToLower(strings.TrimSpace(stage))
			value := strings.ToLower(strings.TrimSpace(level))
			if key == "" || value == "" {
				continue
			}
			overrides[key] = value
		}
		c.Logging.StageOverrides = overrides
	}
}
