// Package books provides database operations for imported books, their raw
// text and their chapter indexes.
//
// A book row, its content and its chapter index are created together in one
// transaction. Deletion is split: DeleteBook removes the book row so it
// disappears from the library immediately, and PurgeBookData removes the
// heavy content afterwards.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBook(id)
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/zenreader/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountBooks returns the number of books in the library.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// ListBooks returns all books, oldest first.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("created_at ASC, id ASC").Find(&books).Error
	return books, err
}

// GetBook retrieves a book by its ID.
func (r *Repository) GetBook(id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindBookByHash retrieves a book by the fingerprint of its text.
func (r *Repository) FindBookByHash(hash string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("content_hash = ?", hash).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook stores a book with its text and chapter index atomically.
func (r *Repository) CreateBook(book *entities.Book, text string, chapters []entities.Chapter) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}
		if err := tx.Create(&entities.BookContent{BookID: book.ID, Text: text}).Error; err != nil {
			return fmt.Errorf("failed to store book content: %w", err)
		}
		index := &entities.ChapterIndex{BookID: book.ID, Version: 1, Chapters: chapters}
		if err := tx.Create(index).Error; err != nil {
			return fmt.Errorf("failed to store chapter index: %w", err)
		}
		return nil
	})
}

// DeleteBook removes the book row. It reports whether a row was deleted.
func (r *Repository) DeleteBook(id string) (bool, error) {
	result := r.db.Where("id = ?", id).Delete(&entities.Book{})
	return result.RowsAffected > 0, result.Error
}

// PurgeBookData removes a book's content, chapter index and bookmarks.
// Safe to call repeatedly.
func (r *Repository) PurgeBookData(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.BookContent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.ChapterIndex{}).Error; err != nil {
			return err
		}
		return tx.Where("book_id = ?", id).Delete(&entities.Bookmark{}).Error
	})
}

// GetContent returns a book's normalised text.
func (r *Repository) GetContent(id string) (string, error) {
	var content entities.BookContent
	err := r.db.Where("book_id = ?", id).First(&content).Error
	if err != nil {
		return "", err
	}
	return content.Text, nil
}

// GetChapterIndex returns a book's chapters ordered by Order.
func (r *Repository) GetChapterIndex(id string) ([]entities.Chapter, error) {
	var index entities.ChapterIndex
	err := r.db.Where("book_id = ?", id).First(&index).Error
	if err != nil {
		return nil, err
	}
	return index.Chapters, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
