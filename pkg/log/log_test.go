package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		levelStr string
		want     Level
		wantErr  bool
	}{
		{name: "debug", levelStr: "DEBUG", want: LevelDebug, wantErr: false},
		{name: "lowercase debug", levelStr: "debug", want: LevelDebug, wantErr: false},
		{name: "mixed case debug", levelStr: "Debug", want: LevelDebug, wantErr: false},
		{name: "info", levelStr: "INFO", want: LevelInfo, wantErr: false},
		{name: "warn", levelStr: "WARN", want: LevelWarn, wantErr: false},
		{name: "warning", levelStr: "WARNING", want: LevelWarn, wantErr: false},
		{name: "error", levelStr: "ERROR", want: LevelError, wantErr: false},
		{name: "invalid", levelStr: "INVALID", want: LevelInfo, wantErr: true},
		{name: "empty", levelStr: "", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.levelStr)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidLogLevel))
				assert.Contains(t, err.Error(), tt.levelStr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelStringRepresentation(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{level: LevelDebug, want: "DEBUG"},
		{level: LevelInfo, want: "INFO"},
		{level: LevelWarn, want: "WARN"},
		{level: LevelError, want: "ERROR"},
		{level: Level(99), want: "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestNew_JSONDropsTime(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: LevelDebug, Format: FormatJSON})

	logger.Debug("pulling image", "image", "nginx:1.25")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "pulling image", record["msg"])
	assert.Equal(t, "nginx:1.25", record["image"])
	assert.Equal(t, "DEBUG", record["level"])
	_, hasTime := record["time"]
	assert.False(t, hasTime, "time attribute should be dropped from JSON output")
}

func TestNew_JSONIncludeTime(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: LevelInfo, Format: FormatJSON, IncludeTime: true})

	logger.Info("done")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Contains(t, record, "time")
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: LevelInfo, Format: FormatText})

	logger.Info("rendered chart", "chart", "demo@0.1.0")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="rendered chart"`)
	assert.Contains(t, out, "chart=demo@0.1.0")
}

func TestNew_FormatFromEnvironment(t *testing.T) {
	t.Setenv(FormatEnvVar, "text")

	var buf bytes.Buffer
	New(&buf, Options{Level: LevelInfo}).Info("hello")

	assert.True(t, strings.HasPrefix(buf.String(), "time="), "expected text handler output, got %q", buf.String())
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: LevelWarn, Format: FormatJSON})

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestForRun(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		levelStr string
		want     Level
		wantErr  bool
	}{
		{name: "debug overrides level", debug: true, levelStr: "error", want: LevelDebug},
		{name: "default is warn", want: LevelWarn},
		{name: "explicit info", levelStr: "info", want: LevelInfo},
		{name: "invalid falls back to warn", levelStr: "chatty", want: LevelWarn, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ForRun(tt.debug, tt.levelStr)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), LevelError.Slog()))
}
