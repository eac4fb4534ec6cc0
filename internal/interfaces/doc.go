// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore, ProgressStore, SessionStore: library persistence (internal/library/library.go)
//   - ContentStore: book text and chapter index (internal/library/repository.go)
//   - Store: bookmark sets (internal/bookmarks/manager.go)
//   - SettingsStore: reader settings (internal/reader/service.go)
//
// ## Reading Core Interfaces
//
//   - ChapterSource: chapter lists for bookmark validation (internal/bookmarks/manager.go)
//   - Host: what a view session needs from the reader (internal/session/view.go)
//   - ReaderService: what the HTTP layer needs from the reader (internal/http/stores.go)
//
// ## Background Work Interfaces
//
//   - Purger: out-of-band deletion of a removed book's data (internal/library/library.go)
//   - BookDataPurger, IdleEvicter: task processors' dependencies (internal/tasks)
//   - Enqueuer: task submission for scheduled jobs (internal/scheduler)
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., reading statistics):
//
//  1. Create sub-package: internal/database/stats/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check:
//
//     var _ StatsStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
