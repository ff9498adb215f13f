package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndUsesEnvKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("PAGESMITH_LLM_API_KEY", "")
	os.Unsetenv("PAGESMITH_LLM_API_KEY")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
	assert.False(t, exists, "expected config file to be absent in temp HOME")

	assert.Equal(t, filepath.Join(tempHome, "pagesmith", "input"), cfg.Paths.InputDir)
	assert.Equal(t, filepath.Join(tempHome, ".local", "share", "pagesmith"), cfg.Paths.StateDir)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, 793, cfg.PageWidthPx())
	assert.Equal(t, 1122, cfg.PageHeightPx())
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.RetryMaxDelay())
	assert.Equal(t, 60, cfg.RateLimit.Calls)
	assert.Len(t, cfg.Languages.Targets, 20)
	assert.Equal(t, "Deutsch", cfg.BaseLanguage().Name)
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "pagesmith.db"), cfg.DatabasePath())

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.WorkDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), "%s should be a directory", dir)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Chdir(t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "pagesmith.toml")

	type payload struct {
		Paths struct {
			InputDir  string `toml:"input_dir"`
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
		Pipeline struct {
			Workers  int      `toml:"workers"`
			Patterns []string `toml:"patterns"`
		} `toml:"pipeline"`
		Languages struct {
			Base    string            `toml:"base"`
			Targets []config.Language `toml:"targets"`
		} `toml:"languages"`
		Publish struct {
			Format string `toml:"format"`
		} `toml:"publish"`
	}
	custom := payload{}
	custom.Paths.InputDir = filepath.Join(tempDir, "in")
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.LLM.APIKey = "abc123"
	custom.Pipeline.Workers = 3
	custom.Pipeline.Patterns = []string{" **/*.png ", "**/*.png", ""}
	custom.Languages.Base = "EN"
	custom.Languages.Targets = []config.Language{{Name: "English", Code: "en"}, {Name: "", Code: "FR"}, {Code: "en"}}
	custom.Publish.Format = "YML"

	data, err := toml.Marshal(custom)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o644))

	cfg, resolved, exists, err := config.Load(configPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, configPath, resolved)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, []string{"**/*.png"}, cfg.Pipeline.Patterns)
	assert.Equal(t, "en", cfg.Languages.Base)
	assert.Equal(t, []config.Language{{Name: "English", Code: "en"}, {Name: "fr", Code: "fr"}}, cfg.Languages.Targets)
	assert.Equal(t, "yaml", cfg.Publish.Format)
	assert.Equal(t, "abc123", cfg.LLM.APIKey)
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("INKSCAPE_PATH", "/opt/inkscape/bin/inkscape")
	t.Setenv("PAGESMITH_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	os.Unsetenv("PAGESMITH_LLM_API_KEY")
	os.Unsetenv("OPENROUTER_API_KEY")

	env := "PAGESMITH_LLM_API_KEY=from-dotenv\nINKSCAPE_PATH=/usr/bin/inkscape\n"
	require.NoError(t, os.WriteFile(filepath.Join(workDir, ".env"), []byte(env), 0o644))

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
	assert.Equal(t, "/opt/inkscape/bin/inkscape", cfg.Tools.Inkscape)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"page.margin_ratio":       func(c *config.Config) { c.Page.MarginRatio = 1 },
		"page.dpi":                func(c *config.Config) { c.Page.DPI = 0 },
		"thumbnail.width":         func(c *config.Config) { c.Thumbnail.Width = 0 },
		"retry.max_attempts":      func(c *config.Config) { c.Retry.MaxAttempts = 0 },
		"retry.max_delay_seconds": func(c *config.Config) { c.Retry.MaxDelaySeconds = -1 },
		"rate_limit.calls":        func(c *config.Config) { c.RateLimit.Calls = 0 },
		"pipeline.workers":        func(c *config.Config) { c.Pipeline.Workers = 0 },
		"languages.targets":       func(c *config.Config) { c.Languages.Targets = []config.Language{{Name: "x", Code: "not a tag"}} },
		"publish.format":          func(c *config.Config) { c.Publish.Format = "xml" },
		"trace.blacklevel":        func(c *config.Config) { c.Trace.BlackLevel = 1.5 },
		"paths.output_dir must":   func(c *config.Config) { c.Paths.OutputDir = c.Paths.InputDir },
	}
	for fragment, mutate := range cases {
		t.Run(fragment, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), strings.Fields(fragment)[0])
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg := config.Default()
	require.Error(t, cfg.ValidateCredentials())
	cfg.LLM.APIKey = "key"
	require.NoError(t, cfg.ValidateCredentials())
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, config.Default().Thumbnail.Width, cfg.Thumbnail.Width)
	assert.Len(t, cfg.Languages.Targets, 20)
}
