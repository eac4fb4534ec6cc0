// Package database provides the data access layer for the reader.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Books, raw text and chapter indexes
//	├── bookmarks/       # Per-book bookmark sets
//	├── progress/        # Per-book reading progress
//	└── settings/        # Reader settings and session records
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./zenreader.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	progressRepo := progress.NewRepository(db.DB)
//
//	book, err := booksRepo.GetBook(id)
//	p, err := progressRepo.GetProgress(id)
//
// Repositories return gorm errors unchanged; callers translate
// gorm.ErrRecordNotFound into the domain's not-found errors.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the entity to the AutoMigrate list in database.go
//  5. Add compile-time interface checks in internal/interfaces/checks.go
package database
