package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/websession"
)

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(websession.SecurityHeadersMiddleware())

	// CSRF runs before the session so the session context is layered on
	// top of the request CSRF replaces.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(websession.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.LoadSave())
	}

	health := NewHealthController(cfg.Version, cfg.HealthChecks)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	libraryController := NewLibraryController(cfg.Service, cfg.MaxImportBytes)
	api.GET("/library", libraryController.GetLibrary)
	api.POST("/books", libraryController.ImportBook)
	api.DELETE("/books/:id", libraryController.DeleteBook)
	api.GET("/books/:id/open", libraryController.OpenBook)
	api.GET("/books/:id/chapters/:chapterId", libraryController.GetChapter)
	api.PUT("/books/:id/progress", libraryController.UpdateProgress)

	bookmarksController := NewBookmarksController(cfg.Service)
	api.GET("/books/:id/bookmarks", bookmarksController.ListBookmarks)
	api.POST("/books/:id/bookmarks", bookmarksController.AddBookmark)
	api.DELETE("/books/:id/bookmarks/:bookmarkId", bookmarksController.RemoveBookmark)

	settingsController := NewSettingsController(cfg.Service)
	api.GET("/settings", settingsController.GetSettings)
	api.PUT("/settings", settingsController.UpdateSettings)

	messagesController := NewMessagesController(cfg.Service, cfg.MaxImportBytes)
	api.POST("/messages", messagesController.Post)

	if cfg.Views != nil && cfg.Sessions != nil {
		viewController := NewViewController(cfg.Views, cfg.Sessions, cfg.Service)
		view := api.Group("/view")
		view.POST("/open", viewController.Open)
		view.POST("/navigate", viewController.Navigate)
		view.POST("/next", viewController.Next)
		view.POST("/prev", viewController.Prev)
		view.POST("/observe", viewController.Observe)
		view.POST("/scroll", viewController.Scroll)
		view.POST("/measure", viewController.Measure)
		view.POST("/mode", viewController.SwitchMode)
		view.POST("/bookmark", viewController.AddBookmark)
		view.POST("/bookmarks/:id/open", viewController.OpenBookmark)
		view.GET("/events", viewController.Events)
		view.POST("/close", viewController.Close)
	}

	return router
}
