package observ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("builds for both environments", func(t *testing.T) {
		for _, env := range []string{"production", "development"} {
			logger, err := NewLogger(env, "debug")
			require.NoError(t, err, env)
			assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
		}
	})

	t.Run("unparseable level falls back to info", func(t *testing.T) {
		logger, err := NewLogger("development", "loud")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})
}
