package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Segmenter
		Reader
		Tasks
		Scheduler
		Session
		CSRF
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path     string
		LogLevel string // silent, error, warn or info
	}
	Library struct {
		MaxBooks  int
		CacheSize int           // books whose chapter index stays in memory
		CacheIdle time.Duration // idle entries older than this are evicted
	}
	Segmenter struct {
		MinTitleGap int
		MaxTitleLen int
		ChunkSize   int
	}
	Reader struct {
		DefaultMode       string
		DefaultFontSize   int
		SaveDelay         time.Duration
		ScrollSaveDelay   time.Duration
		WindowSize        int
		PrefetchThreshold float64
		MaxImportBytes    int64
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Scheduler struct {
		CacheEvictionSchedule string // Cron format: "*/5 * * * *" = every 5 minutes
	}
	Session struct {
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
	}
	CSRF struct {
		Secret string // CSRF protection is off when empty
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", DefaultPort)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("library_max_books", 5)
	v.SetDefault("library_cache_size", 3)
	v.SetDefault("library_cache_idle", "30m")

	v.SetDefault("segmenter_min_title_gap", 300)
	v.SetDefault("segmenter_max_title_len", 40)
	v.SetDefault("segmenter_chunk_size", 12000)

	v.SetDefault("reader_default_mode", "paged")
	v.SetDefault("reader_default_font_size", 16)
	v.SetDefault("reader_save_delay", "150ms")
	v.SetDefault("reader_scroll_save_delay", "600ms")
	v.SetDefault("reader_window_size", 3)
	v.SetDefault("reader_prefetch_threshold", 240)
	v.SetDefault("reader_max_import_bytes", 32<<20)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("cache_eviction_schedule", "*/5 * * * *")

	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("session_secure_cookies", false)
	v.SetDefault("csrf_secret", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Library: Library{
			MaxBooks:  v.GetInt("LIBRARY_MAX_BOOKS"),
			CacheSize: v.GetInt("LIBRARY_CACHE_SIZE"),
			CacheIdle: v.GetDuration("LIBRARY_CACHE_IDLE"),
		},
		Segmenter: Segmenter{
			MinTitleGap: v.GetInt("SEGMENTER_MIN_TITLE_GAP"),
			MaxTitleLen: v.GetInt("SEGMENTER_MAX_TITLE_LEN"),
			ChunkSize:   v.GetInt("SEGMENTER_CHUNK_SIZE"),
		},
		Reader: Reader{
			DefaultMode:       v.GetString("READER_DEFAULT_MODE"),
			DefaultFontSize:   v.GetInt("READER_DEFAULT_FONT_SIZE"),
			SaveDelay:         v.GetDuration("READER_SAVE_DELAY"),
			ScrollSaveDelay:   v.GetDuration("READER_SCROLL_SAVE_DELAY"),
			WindowSize:        v.GetInt("READER_WINDOW_SIZE"),
			PrefetchThreshold: v.GetFloat64("READER_PREFETCH_THRESHOLD"),
			MaxImportBytes:    v.GetInt64("READER_MAX_IMPORT_BYTES"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			CacheEvictionSchedule: v.GetString("CACHE_EVICTION_SCHEDULE"),
		},
		Session: Session{
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SESSION_SECURE_COOKIES"),
		},
		CSRF: CSRF{
			Secret: v.GetString("CSRF_SECRET"),
		},
	}
}
