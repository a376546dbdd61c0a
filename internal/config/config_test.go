package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv() map[string]string { return map[string]string{} }

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arcade.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.StarMatch.Seconds)
	assert.Equal(t, "1s", cfg.StarMatch.Tick)
	assert.Equal(t, time.Second, cfg.StarMatch.TickDuration())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "", cfg.Trace.DB)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FileOverlay(t *testing.T) {
	path := writeFile(t, `
starmatch: seconds: 30
log: level: "debug"
trace: db: "trace.db"
`)

	cfg, err := Load(Options{File: path, Environ: noEnv()})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.StarMatch.Seconds)
	assert.Equal(t, "1s", cfg.StarMatch.Tick, "unset fields keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "trace.db", cfg.Trace.DB)
}

func TestLoad_FileConstraintViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero seconds", `starmatch: seconds: 0`},
		{"too many seconds", `starmatch: seconds: 3601`},
		{"non-int seconds", `starmatch: seconds: "ten"`},
		{"unknown level", `log: level: "trace"`},
		{"unknown format", `log: format: "xml"`},
		{"unknown field", `starmatch: stars: 5`},
		{"unknown section", `colors: true`},
		{"syntax error", `starmatch: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Options{File: writeFile(t, tt.content), Environ: noEnv()})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.cue"), Environ: noEnv()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestLoad_EnvOverlay(t *testing.T) {
	path := writeFile(t, `starmatch: seconds: 30`)

	cfg, err := Load(Options{File: path, Environ: map[string]string{
		"ARCADE_STARMATCH_SECONDS": "45",
		"ARCADE_STARMATCH_TICK":    "250ms",
		"ARCADE_LOG_FORMAT":        "json",
		"ARCADE_HTTP_ADDR":         "127.0.0.1:9000",
		"UNRELATED":                "x",
	}})
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.StarMatch.Seconds, "env wins over the file")
	assert.Equal(t, 250*time.Millisecond, cfg.StarMatch.TickDuration())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
}

func TestLoad_EnvViolations(t *testing.T) {
	tests := map[string]string{
		"ARCADE_STARMATCH_SECONDS": "0",
		"ARCADE_LOG_LEVEL":         "loud",
		"ARCADE_STARMATCH_TICK":    "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := Load(Options{Environ: map[string]string{key: value}})
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Load(Options{Environ: map[string]string{"ARCADE_STARMATCH_SECONDS": "many"}})
	assert.ErrorIs(t, err, ErrInvalid, "unparseable ints are config errors")
}

func TestValidate_AfterFlagOverride(t *testing.T) {
	cfg := Default()
	cfg.StarMatch.Seconds = 5
	assert.NoError(t, cfg.Validate())

	cfg.StarMatch.Seconds = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Default()
	cfg.StarMatch.Tick = "-1s"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Log{Level: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Log{Level: "info"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Log{Level: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelError, Log{Level: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Log{}.SlogLevel())
}
