// Package bookmarks provides database operations for per-book bookmark sets.
//
// A book's bookmarks are read and written as a whole set.
package bookmarks

import (
	"gorm.io/gorm"

	"github.com/mrlokans/zenreader/internal/entities"
)

// Repository handles bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookmarks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookmarks returns a book's bookmarks, oldest first.
func (r *Repository) GetBookmarks(bookID string) ([]entities.Bookmark, error) {
	var bookmarks []entities.Bookmark
	err := r.db.Where("book_id = ?", bookID).Order("created_at ASC, id ASC").Find(&bookmarks).Error
	return bookmarks, err
}

// ReplaceBookmarks overwrites a book's bookmark set.
func (r *Repository) ReplaceBookmarks(bookID string, bookmarks []entities.Bookmark) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", bookID).Delete(&entities.Bookmark{}).Error; err != nil {
			return err
		}
		if len(bookmarks) == 0 {
			return nil
		}
		for i := range bookmarks {
			bookmarks[i].BookID = bookID
		}
		return tx.Create(&bookmarks).Error
	})
}
