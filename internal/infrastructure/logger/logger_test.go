package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		cfg    *Config
		expect zapcore.Level
	}{
		{"debug console", &Config{Level: "debug", Format: "console", Output: "stdout"}, zapcore.DebugLevel},
		{"info json", &Config{Level: "info", Format: "json", Output: "stdout"}, zapcore.InfoLevel},
		{"unknown level falls back to info", &Config{Level: "verbose", Format: "json", Output: "stdout"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.expect))
			if tt.expect != zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	t.Run("FromContext returns nop when unset", func(t *testing.T) {
		log := FromContext(context.Background())
		require.NotNil(t, log)
	})

	t.Run("round-trips logger through context", func(t *testing.T) {
		base := zap.NewNop()
		ctx := WithContext(context.Background(), base)
		assert.Same(t, base, FromContext(ctx))
	})

	t.Run("request ID travels with the context", func(t *testing.T) {
		ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-123")
		assert.Equal(t, "req-123", GetRequestID(ctx))
	})

	t.Run("owner ID travels with the context", func(t *testing.T) {
		ctx, _ := WithOwnerID(context.Background(), zap.NewNop(), "owner-42")
		assert.Equal(t, "owner-42", GetOwnerID(ctx))
	})

	t.Run("L never panics on an empty context", func(t *testing.T) {
		assert.NotPanics(t, func() {
			L(context.Background()).Info("hello")
		})
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}
