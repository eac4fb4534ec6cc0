package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(DefaultPort), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 2, cfg.Global.ShutdownTimeoutInSeconds)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Database.LogLevel)

	assert.Equal(t, 5, cfg.Library.MaxBooks)
	assert.Equal(t, 3, cfg.Library.CacheSize)
	assert.Equal(t, 30*time.Minute, cfg.Library.CacheIdle)

	assert.Equal(t, 300, cfg.Segmenter.MinTitleGap)
	assert.Equal(t, 40, cfg.Segmenter.MaxTitleLen)
	assert.Equal(t, 12000, cfg.Segmenter.ChunkSize)

	assert.Equal(t, "paged", cfg.Reader.DefaultMode)
	assert.Equal(t, 16, cfg.Reader.DefaultFontSize)
	assert.Equal(t, 150*time.Millisecond, cfg.Reader.SaveDelay)
	assert.Equal(t, 600*time.Millisecond, cfg.Reader.ScrollSaveDelay)
	assert.Equal(t, 3, cfg.Reader.WindowSize)
	assert.Equal(t, 240.0, cfg.Reader.PrefetchThreshold)
	assert.Equal(t, int64(32<<20), cfg.Reader.MaxImportBytes)

	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 1, cfg.Tasks.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.Tasks.CleanupInterval)

	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.CacheEvictionSchedule)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.False(t, cfg.Session.SecureCookies)
	assert.Empty(t, cfg.CSRF.Secret)
}

func TestNewConfig_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", "/data/reader.db")
	t.Setenv("LIBRARY_MAX_BOOKS", "12")
	t.Setenv("READER_DEFAULT_MODE", "scroll")
	t.Setenv("READER_SAVE_DELAY", "1s")
	t.Setenv("TASKS_ENABLED", "false")
	t.Setenv("CSRF_SECRET", "0123456789abcdef0123456789abcdef")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "/data/reader.db", cfg.Database.Path)
	assert.Equal(t, 12, cfg.Library.MaxBooks)
	assert.Equal(t, "scroll", cfg.Reader.DefaultMode)
	assert.Equal(t, time.Second, cfg.Reader.SaveDelay)
	assert.False(t, cfg.Tasks.Enabled)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.CSRF.Secret)
}
