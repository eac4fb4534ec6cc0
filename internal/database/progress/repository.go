// Package progress provides database operations for reading progress. Each
// book has at most one progress row which is overwritten in place.
package progress

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/zenreader/internal/entities"
)

// Repository handles reading progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProgress returns the progress recorded for a book.
func (r *Repository) GetProgress(bookID string) (*entities.ReadingProgress, error) {
	var p entities.ReadingProgress
	err := r.db.Where("book_id = ?", bookID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAllProgress returns progress for every book keyed by book ID.
func (r *Repository) GetAllProgress() (map[string]entities.ReadingProgress, error) {
	var rows []entities.ReadingProgress
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]entities.ReadingProgress, len(rows))
	for _, p := range rows {
		out[p.BookID] = p
	}
	return out, nil
}

// SaveProgress creates or overwrites a book's progress.
func (r *Repository) SaveProgress(p *entities.ReadingProgress) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "chapter_id", "anchor", "updated_at"}),
	}).Create(p).Error
}

// DeleteProgress removes a book's progress. Missing rows are not an error.
func (r *Repository) DeleteProgress(bookID string) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.ReadingProgress{}).Error
}
