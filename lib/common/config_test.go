package common

import (
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverConfig(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		cfg := DefaultDriverConfig()
		assert.NoError(t, cfg.Validate())
		assert.Contains(t, cfg.String(), "unlimited")
	})
	t.Run("negative handle limit", func(t *testing.T) {
		cfg := DefaultDriverConfig()
		cfg.MaxHandles = -1
		assert.Error(t, cfg.Validate())
	})
	t.Run("unknown snapshot format", func(t *testing.T) {
		cfg := DefaultDriverConfig()
		cfg.SnapshotFormat = "xml"
		assert.Error(t, cfg.Validate())
	})
	t.Run("unknown log level", func(t *testing.T) {
		cfg := DefaultDriverConfig()
		cfg.LogLevel = "verbose"
		assert.Error(t, cfg.Validate())
	})
	t.Run("string lists the limit", func(t *testing.T) {
		cfg := DefaultDriverConfig()
		cfg.MaxHandles = 64
		assert.Contains(t, cfg.String(), "64")
		assert.Contains(t, cfg.String(), "SNAPSHOTS")
	})
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	l := CreateLogger("test")
	l.SetLevel(logger.DEBUG)
	l.Debugf("debug %s", "logger")
	l.Infof("info logger")
	l.Warningf("warn logger")
	l.Errorf("error logger: %v", "this is an error")

	l.SetLevel(logger.ERROR)
	assert.False(t, l.(*dODBCLogger).enabled(logger.INFO))
	assert.True(t, l.(*dODBCLogger).enabled(logger.ERROR))

	assert.NoError(t, InitLoggers(DefaultDriverConfig()))
	assert.Error(t, InitLoggers(DriverConfig{LogLevel: "nope"}))
}
