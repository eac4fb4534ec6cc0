package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/zenreader/internal/bookmarks"
	dbbookmarks "github.com/mrlokans/zenreader/internal/database/bookmarks"
	"github.com/mrlokans/zenreader/internal/database/books"
	"github.com/mrlokans/zenreader/internal/database/progress"
	"github.com/mrlokans/zenreader/internal/database/settings"
	"github.com/mrlokans/zenreader/internal/http"
	"github.com/mrlokans/zenreader/internal/library"
	"github.com/mrlokans/zenreader/internal/reader"
	"github.com/mrlokans/zenreader/internal/scheduler"
	"github.com/mrlokans/zenreader/internal/session"
	"github.com/mrlokans/zenreader/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ library.BookStore = (*books.Repository)(nil)
var _ library.ProgressStore = (*progress.Repository)(nil)
var _ library.SessionStore = (*settings.Repository)(nil)
var _ reader.SettingsStore = (*settings.Repository)(nil)
var _ bookmarks.Store = (*dbbookmarks.Repository)(nil)

// =============================================================================
// Reading Core
// =============================================================================

var _ bookmarks.ChapterSource = (*library.Repository)(nil)
var _ http.ReaderService = (*reader.Service)(nil)
var _ session.Host = (*reader.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ library.Purger = (*tasks.QueuePurger)(nil)
var _ tasks.BookDataPurger = (*books.Repository)(nil)
var _ tasks.IdleEvicter = (*library.Repository)(nil)
var _ tasks.IdleEvicter = (*session.Registry)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
