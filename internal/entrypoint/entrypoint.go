package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/bookmarks"
	"github.com/mrlokans/zenreader/internal/config"
	"github.com/mrlokans/zenreader/internal/database"
	dbbookmarks "github.com/mrlokans/zenreader/internal/database/bookmarks"
	"github.com/mrlokans/zenreader/internal/database/books"
	"github.com/mrlokans/zenreader/internal/database/progress"
	"github.com/mrlokans/zenreader/internal/database/settings"
	"github.com/mrlokans/zenreader/internal/entities"
	http_controllers "github.com/mrlokans/zenreader/internal/http"
	"github.com/mrlokans/zenreader/internal/library"
	"github.com/mrlokans/zenreader/internal/reader"
	"github.com/mrlokans/zenreader/internal/scheduler"
	"github.com/mrlokans/zenreader/internal/segmenter"
	"github.com/mrlokans/zenreader/internal/session"
	"github.com/mrlokans/zenreader/internal/tasks"
	"github.com/mrlokans/zenreader/internal/tracker"
	"github.com/mrlokans/zenreader/internal/websession"
	"github.com/mrlokans/zenreader/internal/window"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is the wired reader: storage, the reader service, the view registry
// and the optional background workers.
type App struct {
	DB        *database.Database
	Books     *books.Repository
	Library   *library.Library
	Service   *reader.Service
	Views     *session.Registry
	Sessions  *websession.Manager
	Tasks     *tasks.Client
	Scheduler *scheduler.CacheEvictionScheduler

	cfg        *config.Config
	taskCancel context.CancelFunc
}

// NewReaderService builds the library, bookmarks and reader service on db.
func NewReaderService(db *database.Database, cfg *config.Config) (*reader.Service, *books.Repository) {
	booksRepo := books.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)

	seg := segmenter.New(segmenter.Options{
		MinTitleGap: cfg.Segmenter.MinTitleGap,
		MaxTitleLen: cfg.Segmenter.MaxTitleLen,
		ChunkSize:   cfg.Segmenter.ChunkSize,
	})
	lib := library.New(booksRepo, progress.NewRepository(db.DB), settingsRepo, seg, library.Config{
		MaxBooks:  cfg.Library.MaxBooks,
		CacheSize: cfg.Library.CacheSize,
	})
	marks := bookmarks.NewManager(dbbookmarks.NewRepository(db.DB), lib.Chapters())

	mode, err := entities.ParseReaderMode(cfg.Reader.DefaultMode)
	if err != nil {
		log.Printf("WARNING: READER_DEFAULT_MODE %q is not a reader mode, using %s", cfg.Reader.DefaultMode, entities.ModePaged)
		mode = entities.ModePaged
	}
	defaults := entities.ReaderSettings{Mode: mode, FontSize: cfg.Reader.DefaultFontSize}

	return reader.NewService(lib, marks, settingsRepo, defaults), booksRepo
}

// Build opens the database and wires every component. Nothing runs in the
// background until Start.
func Build(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabaseWithLogLevel(cfg.Database.Path, cfg.Database.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{DB: db, cfg: cfg}
	app.Service, app.Books = NewReaderService(db, cfg)
	app.Library = app.Service.Library()

	app.Views = session.NewRegistry(app.Service, session.Config{
		Tracker: tracker.Config{
			SaveDelay:       cfg.Reader.SaveDelay,
			ScrollSaveDelay: cfg.Reader.ScrollSaveDelay,
		},
		Window: window.Config{
			MaxChapters:       cfg.Reader.WindowSize,
			PrefetchThreshold: cfg.Reader.PrefetchThreshold,
		},
	})

	sqlDB, err := db.DB.DB()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	app.Sessions, err = websession.NewManager(sqlDB, websession.Config{
		Lifetime:      cfg.Session.Lifetime,
		SecureCookies: cfg.Session.SecureCookies,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	// Views go first so their pending saves land before books unload.
	idle := tasks.IdleEvicters{app.Views, app.Library.Chapters()}

	if cfg.Tasks.Enabled {
		app.Tasks, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.Tasks.Register(
			tasks.NewPurgeBookQueue(app.Books),
			tasks.NewEvictIdleBooksQueue(idle),
		)
		app.Library.SetPurger(tasks.NewQueuePurger(app.Tasks))
	}

	if cfg.Scheduler.CacheEvictionSchedule != "" {
		if err := scheduler.ValidateSchedule(cfg.Scheduler.CacheEvictionSchedule); err != nil {
			app.Close()
			return nil, err
		}
	}
	// A nil *tasks.Client must not reach the scheduler as a non-nil Enqueuer.
	var queue scheduler.Enqueuer
	if app.Tasks != nil {
		queue = app.Tasks
	}
	app.Scheduler = scheduler.NewCacheEvictionScheduler(
		cfg.Scheduler.CacheEvictionSchedule,
		cfg.Library.CacheIdle,
		idle,
		queue,
	)

	return app, nil
}

// Router builds the HTTP API for the app.
func (a *App) Router(version string) *gin.Engine {
	checks := map[string]http_controllers.HealthCheck{"database": a.DB.Ping}
	if a.Tasks != nil {
		checks["tasks"] = a.Tasks.Ping
	}

	return http_controllers.NewRouter(http_controllers.RouterConfig{
		Service:        a.Service,
		Views:          a.Views,
		Sessions:       a.Sessions,
		CSRFSecret:     csrfSecret(a.cfg.CSRF.Secret),
		SecureCookies:  a.cfg.Session.SecureCookies,
		MaxImportBytes: a.cfg.Reader.MaxImportBytes,
		HealthChecks:   checks,
		Version:        version,
	})
}

// csrfSecret accepts a hex-encoded key, falling back to the raw bytes.
func csrfSecret(secret string) []byte {
	if secret == "" {
		return nil
	}
	if key, err := hex.DecodeString(secret); err == nil {
		return key
	}
	return []byte(secret)
}

// Start runs the task workers and the cache eviction schedule.
func (a *App) Start() error {
	if a.Tasks != nil {
		var ctx context.Context
		ctx, a.taskCancel = context.WithCancel(context.Background())
		go a.Tasks.Start(ctx)
	}
	return a.Scheduler.Start(context.Background())
}

// Shutdown flushes every open view's pending position and stops the
// background workers.
func (a *App) Shutdown(ctx context.Context) {
	a.Scheduler.Stop()
	if err := a.Views.CloseAll(); err != nil {
		log.Printf("Error flushing reading positions: %v", err)
	}
	if a.Tasks != nil && a.taskCancel != nil {
		a.Tasks.Stop(ctx)
		a.taskCancel()
	}
}

// Close releases the databases.
func (a *App) Close() error {
	var errs []error
	if a.Tasks != nil {
		errs = append(errs, a.Tasks.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Views are flushed after the server stops taking requests.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting ZenReader v%s", version)

	app, err := Build(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing databases: %v", err)
		}
	}()

	if cfg.CSRF.Secret == "" {
		log.Printf("CSRF protection disabled. Set 'CSRF_SECRET' to enable it.")
	}
	if !cfg.Tasks.Enabled {
		log.Printf("Task queue disabled, removed books are purged inline")
	}

	if err := app.Start(); err != nil {
		log.Printf("WARNING: cache eviction schedule not started: %v", err)
	}

	Serve(app.Router(version), cfg, app.Shutdown)
}
