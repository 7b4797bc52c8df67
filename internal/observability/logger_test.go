package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/smartscan/internal/config"
)

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultConfig().Logger
	logger := NewLogger(cfg, zapcore.AddSync(&buf))

	logger.Named("scan").Info("scan started", zap.Int("files", 2))
	logger.Debug("hidden at info level")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "\x1b[32mINFO\x1b[0m")
	assert.Contains(t, out, "smartscan.scan.")
	assert.Contains(t, out, "scan started")
	assert.Contains(t, out, `{"files": 2}`)
	assert.NotContains(t, out, "hidden at info level")
}

func TestNewLoggerJSONAndVerbose(t *testing.T) {
	var buf bytes.Buffer
	cfg := Verbose(config.LoggerConfig{Format: "json", Level: "warn"})
	logger := NewLogger(cfg, zapcore.AddSync(&buf))

	logger.Debug("finding dropped", zap.String("check", "weird"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "weird", entry["check"])
	_, named := entry["logger"]
	assert.False(t, named, "empty service name leaves the logger unnamed")
}

func TestNewLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Format: "json", Level: "loud"}, zapcore.AddSync(&buf))
	logger.Debug("dropped")
	logger.Info("kept")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLoggerWritesFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "smartscan.log")
	cfg := config.NewDefaultConfig().Logger
	cfg.LogFile = path

	logger := NewLogger(cfg, zapcore.AddSync(&console))
	logger.Warn("file failed", zap.String("file", "a.sol"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "smartscan", entry["logger"])
	assert.Equal(t, "a.sol", entry["file"])
}

func TestColorizedLevelEncoder(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultConfig().Logger
	cfg.ServiceName = ""
	cfg.Colors.Warn = " Magenta "
	cfg.Colors.Error = "chartreuse"
	logger := NewLogger(cfg, zapcore.AddSync(&buf))

	logger.Warn("slow analyzer")
	logger.Error("analyzer crashed")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "\x1b[35mWARN\x1b[0m", "color names are matched case-insensitively")
	assert.Contains(t, out, "\tERROR\t", "unknown color names leave the level plain")
	assert.NotContains(t, out, "m"+"ERROR")
}
