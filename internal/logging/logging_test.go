package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/petnames/reminders/internal/config"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("REMINDERS_CONFIG_PATH", "")
	return tmp
}

func enable(t *testing.T, extra map[string]string) {
	t.Helper()
	t.Setenv("REMINDERS_LOGGING_ENABLED", "true")
	for k, v := range extra {
		t.Setenv(k, v)
	}
	config.Load()
}

func readLastLine(t *testing.T) string {
	t.Helper()
	logDir := filepath.Join(config.Get("state_dir", ""), "logs")
	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	data, err := os.ReadFile(filepath.Join(logDir, entries[len(entries)-1].Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return lines[len(lines)-1]
}

func TestConfigFromGlobal(t *testing.T) {
	setupTest(t)
	enable(t, map[string]string{
		"REMINDERS_LOGGING_LEVEL":     "warn",
		"REMINDERS_LOGGING_MAX_FILES": "5",
	})

	cfg := FromGlobalConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, "warn", cfg.Level)
	require.Equal(t, 5, cfg.MaxFiles)
	require.Equal(t, filepath.Base(os.Args[0]), cfg.Command)
	require.Equal(t, os.Getpid(), cfg.PID)
}

func TestLogLevelMapping(t *testing.T) {
	tests := []struct {
		name  string
		debug string
		quiet string
		want  string
	}{
		{"configured level", "false", "false", "warn"},
		{"debug wins", "true", "false", "debug"},
		{"debug wins over quiet", "true", "true", "debug"},
		{"quiet raises to error", "false", "true", "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t)
			t.Setenv("REMINDERS_LOGGING_LEVEL", "warn")
			t.Setenv("REMINDERS_DEBUG", tt.debug)
			t.Setenv("REMINDERS_QUIET", tt.quiet)
			config.Load()
			require.Equal(t, tt.want, FromGlobalConfig().Level)
		})
	}
}

func TestLogDir(t *testing.T) {
	tmp := setupTest(t)
	config.Load()

	stateDir := config.Get("state_dir", "")
	require.True(t, strings.HasPrefix(stateDir, tmp), "state_dir %s not in temp dir %s", stateDir, tmp)

	logDir, err := LogDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(stateDir, "logs"), logDir)
	info, err := os.Stat(logDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestInitDisabled(t *testing.T) {
	logger, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, noopLogger{}, logger)
	logger.Debug("test")
	logger.With("k", "v").Info("test")
	require.NoError(t, logger.Shutdown())
}

func TestInitEnabledCreatesFile(t *testing.T) {
	setupTest(t)
	enable(t, nil)

	cfg := FromGlobalConfig()
	cfg.Command = "serve now"
	logger, err := Init(cfg)
	require.NoError(t, err)
	defer logger.Shutdown()

	logDir := filepath.Join(config.Get("state_dir", ""), "logs")
	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	fname := entries[0].Name()
	require.True(t, strings.HasPrefix(fname, "reminders_"))
	require.Contains(t, fname, fmt.Sprintf("_PID%d_", os.Getpid()))
	require.True(t, strings.HasSuffix(fname, "_serve_now.log"))
	info, err := os.Stat(filepath.Join(logDir, fname))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoggingWritesJSON(t *testing.T) {
	setupTest(t)
	enable(t, nil)

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	logger.Info("dismissed", "user_id", "u1", "appointment_id", "a1")
	require.NoError(t, logger.Shutdown())

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(readLastLine(t)), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "dismissed", entry["msg"])
	require.Equal(t, float64(os.Getpid()), entry["pid"])
	require.Equal(t, "u1", entry["user_id"])
	require.Equal(t, "a1", entry["appointment_id"])
}

func TestRedaction(t *testing.T) {
	setupTest(t)
	enable(t, nil)

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	logger.Info("connect", "postgres_dsn", "postgres://u:p@h/db", "token", "xyz", "backend", "postgres")
	require.NoError(t, logger.Shutdown())

	line := readLastLine(t)
	require.Contains(t, line, `"postgres_dsn":"[REDACTED]"`)
	require.Contains(t, line, `"token":"[REDACTED]"`)
	require.Contains(t, line, `"backend":"postgres"`)
}

func TestRedactionEdgeCases(t *testing.T) {
	r := newRedactor()
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{"case insensitive", []any{"PaSsWoRd", "x"}, []any{"PaSsWoRd", redacted}},
		{"underscore", []any{"api_token", "x"}, []any{"api_token", redacted}},
		{"dash", []any{"api-token", "x"}, []any{"api-token", redacted}},
		{"dot", []any{"api.token", "x"}, []any{"api.token", redacted}},
		{"no separator", []any{"apitoken", "x"}, []any{"apitoken", "x"}},
		{"word prefix", []any{"secretary", "x"}, []any{"secretary", "x"}},
		{"mixed", []any{"password", "h", "user_id", "u1", "count", 3}, []any{"password", redacted, "user_id", "u1", "count", 3}},
		{"odd length", []any{"password", "h", "extra"}, []any{"password", redacted, "extra"}},
		{"empty", []any{}, []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, r.redact(tt.in))
		})
	}
}

func TestRotation(t *testing.T) {
	setupTest(t)
	enable(t, map[string]string{"REMINDERS_LOGGING_MAX_FILES": "2"})

	logDir, err := LogDir()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		path := filepath.Join(logDir, fmt.Sprintf("reminders_20260101_12000%d_PID999_test.log", i))
		require.NoError(t, os.WriteFile(path, nil, 0600))
		old := time.Now().Add(-time.Duration(i+1) * time.Hour)
		require.NoError(t, os.Chtimes(path, old, old))
	}
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "other.log"), nil, 0600))

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	require.NoError(t, logger.Shutdown())

	_, err = os.Stat(filepath.Join(logDir, "reminders_20260101_120002_PID999_test.log"))
	require.True(t, os.IsNotExist(err), "oldest file should be rotated away")
	_, err = os.Stat(filepath.Join(logDir, "reminders_20260101_120000_PID999_test.log"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(logDir, "other.log"))
	require.NoError(t, err, "non-matching files are left alone")
}

func TestGlobalLogger(t *testing.T) {
	setupTest(t)
	enable(t, nil)

	require.NoError(t, InitGlobal())
	defer ShutdownGlobal()

	require.NotEmpty(t, CurrentLogFile())
	Warn("global warning", "count", 1)
	require.Contains(t, readLastLine(t), `"msg":"global warning"`)
}

func TestGlobalDefaultsToNoop(t *testing.T) {
	require.NoError(t, ShutdownGlobal())
	require.IsType(t, noopLogger{}, GetGlobal())
	require.Empty(t, CurrentLogFile())
	Info("dropped")
}

func TestWith(t *testing.T) {
	setupTest(t)
	enable(t, nil)

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	logger.With("correlation_id", "abc").Info("request")
	require.NoError(t, logger.Shutdown())

	require.Contains(t, readLastLine(t), `"correlation_id":"abc"`)
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(&buf, "info")
	logger.Debug("hidden")
	logger.Info("request", "status", 200, "secret", "s3")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "request")
	require.Contains(t, out, "status=200")
	require.Contains(t, out, redacted)
	require.NoError(t, logger.Shutdown())
}

func TestLevelParsing(t *testing.T) {
	require.Equal(t, clog.DebugLevel, parseLevel("debug"))
	require.Equal(t, clog.InfoLevel, parseLevel("info"))
	require.Equal(t, clog.WarnLevel, parseLevel("warn"))
	require.Equal(t, clog.WarnLevel, parseLevel("warning"))
	require.Equal(t, clog.ErrorLevel, parseLevel("error"))
	require.Equal(t, clog.InfoLevel, parseLevel("unknown"))
}
