package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/config"
	"pagesmith/internal/logging"
	"pagesmith/internal/services"
)

func TestConsoleLoggerWritesComponentAndShortDigest(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	digest := strings.Repeat("ab", 32)
	ctx := services.WithDigest(context.Background(), digest)
	ctx = services.WithStage(ctx, "trace")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline")).Info("stage completed", logging.Int("paths", 3))

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	line := string(content)
	assert.Contains(t, line, "INFO pipeline: stage completed")
	assert.Contains(t, line, "digest="+digest[:12])
	assert.NotContains(t, line, digest)
	assert.Contains(t, line, "stage=trace")
	assert.Contains(t, line, "paths=3")
	assert.NotContains(t, line, ".go:", "info logs should not carry caller info")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	require.Error(t, err)
}

func TestNewFromConfigTeesJSONIntoLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "warn"

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	logger.Info("suppressed")
	logging.WarnWithContext(logger, "analysis degraded", "analysis_fallback")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "analysis degraded", entry["msg"])
	assert.Equal(t, "analysis_fallback", entry[logging.FieldEventType])
	assert.NotEmpty(t, entry[logging.FieldErrorHint])
	assert.NotEmpty(t, entry[logging.FieldImpact])
}

func TestStageLoggerLowersLevelForOneStage(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "info"
	cfg.Logging.StageOverrides = map[string]string{"trace": "debug"}

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	logger.Debug("base debug hidden")
	logging.StageLogger(logger, cfg.Logging.StageOverrides, "Trace").Debug("trace debug shown")
	logging.StageLogger(logger, cfg.Logging.StageOverrides, "render").Debug("render debug hidden")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "trace debug shown")
	assert.NotContains(t, string(content), "hidden")
}

func TestTeeHandlerSkipsNilAndFansOut(t *testing.T) {
	var a, b bytes.Buffer
	single := slog.NewJSONHandler(&a, nil)
	assert.Same(t, single, logging.TeeHandler(nil, single, nil))
	_, isNoop := logging.TeeHandler(nil).(logging.NoopHandler)
	assert.True(t, isNoop)

	logger := slog.New(logging.TeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError})))
	logger.With("k", "v").Info("hello")
	assert.Contains(t, a.String(), `"k":"v"`)
	assert.Empty(t, b.String())
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logging.ErrorWithContext(nil, "ignored", "none")
}
