package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lgr := FromZap(zap.New(core))

	lgr.Info("order_placed", "Order placed", "req-1", map[string]interface{}{"order_id": "ORD-1"})
	lgr.Error("archive_save_failed", "Save failed", "", nil, errors.New("disk full"))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "Order placed", entries[0].Message)
	assert.Equal(t, "order_placed", first["action"])
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, map[string]interface{}{"order_id": "ORD-1"}, first["details"])

	second := entries[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "disk full", second["error"])
	assert.NotContains(t, second, "details")
}

func TestLogger_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	lgr := FromZap(zap.New(core))

	lgr.Debug("poll", "Polling", "", nil)
	lgr.Warn("slow", "Slow response", "", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "service.log")

	lgr, err := New("kitchen-service", cfg)
	require.NoError(t, err)
	lgr.Info("startup", "started", "", nil)
	assert.NoError(t, lgr.Sync())
	assert.FileExists(t, cfg.Output)
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Error("x", "y", "", nil, errors.New("z"))
	})
}
