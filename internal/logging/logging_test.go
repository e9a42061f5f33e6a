package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env   string
		level string
		want  zapcore.Level
	}{
		{"production", "warn", zapcore.WarnLevel},
		{"development", "debug", zapcore.DebugLevel},
		{"development", "bogus", zapcore.InfoLevel},
		{"", "", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		logger, err := New(tt.env, tt.level)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tt.want), "env=%q level=%q", tt.env, tt.level)
		assert.False(t, logger.Core().Enabled(tt.want-1), "env=%q level=%q", tt.env, tt.level)
	}
}
