// Package library owns imported books: import, removal, the per-book chapter
// cache and the session record (last opened book, reading progress).
package library

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/segmenter"
)

const (
	DefaultMaxBooks  = 5
	DefaultCacheSize = 3
	DefaultTitle     = "Untitled"
)

// BookStore persists books together with their content and chapter index.
type BookStore interface {
	ContentStore
	CountBooks() (int64, error)
	ListBooks() ([]entities.Book, error)
	GetBook(id string) (*entities.Book, error)
	FindBookByHash(hash string) (*entities.Book, error)
	CreateBook(book *entities.Book, text string, chapters []entities.Chapter) error
	DeleteBook(id string) (bool, error)
	PurgeBookData(id string) error
}

type ProgressStore interface {
	GetProgress(bookID string) (*entities.ReadingProgress, error)
	GetAllProgress() (map[string]entities.ReadingProgress, error)
	SaveProgress(p *entities.ReadingProgress) error
	DeleteProgress(bookID string) error
}

type SessionStore interface {
	GetLastBookID() (string, error)
	SetLastBookID(bookID string) error
}

// Purger removes a deleted book's heavy data out of band.
type Purger interface {
	PurgeBook(bookID string) error
}

type Config struct {
	MaxBooks  int
	CacheSize int
}

type Library struct {
	books     BookStore
	progress  ProgressStore
	session   SessionStore
	chapters  *Repository
	segmenter *segmenter.Segmenter
	purger    Purger
	maxBooks  int
	now       func() time.Time

	// Serialises imports and removals so the book count check holds.
	mu sync.Mutex
}

func New(books BookStore, progress ProgressStore, session SessionStore, seg *segmenter.Segmenter, cfg Config) *Library {
	if cfg.MaxBooks <= 0 {
		cfg.MaxBooks = DefaultMaxBooks
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if seg == nil {
		seg = segmenter.New(segmenter.DefaultOptions())
	}
	return &Library{
		books:     books,
		progress:  progress,
		session:   session,
		chapters:  NewRepository(books, cfg.CacheSize),
		segmenter: seg,
		maxBooks:  cfg.MaxBooks,
		now:       time.Now,
	}
}

// SetPurger routes content deletion through p instead of deleting inline.
func (l *Library) SetPurger(p Purger) {
	l.purger = p
}

// Chapters exposes the per-book chapter cache.
func (l *Library) Chapters() *Repository {
	return l.chapters
}

// NormalizeText unifies line endings and applies NFC.
func NormalizeText(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}

// ContentHash fingerprints normalised text for duplicate detection.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Import adds a plain-text book. Importing text identical to an existing
// book returns that book and created=false.
func (l *Library) Import(title, raw string) (book *entities.Book, created bool, err error) {
	text := NormalizeText(raw)
	if strings.TrimSpace(text) == "" {
		return nil, false, entities.ErrEmptyText
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	hash := ContentHash(text)
	existing, err := l.books.FindBookByHash(hash)
	if err == nil {
		l.rememberLastBook(existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, entities.StorageError("find book by hash", err)
	}

	count, err := l.books.CountBooks()
	if err != nil {
		return nil, false, entities.StorageError("count books", err)
	}
	if count >= int64(l.maxBooks) {
		return nil, false, fmt.Errorf("%w (max %d books)", entities.ErrLibraryFull, l.maxBooks)
	}

	chapters := l.segmenter.Segment(text)

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	now := l.now()
	book = &entities.Book{
		ID:          uuid.NewString(),
		Title:       title,
		Format:      entities.BookFormatText,
		ContentHash: hash,
		Length:      utf8.RuneCountInString(text),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.books.CreateBook(book, text, chapters); err != nil {
		return nil, false, entities.StorageError("create book", err)
	}
	l.chapters.Put(book.ID, text, chapters)
	l.rememberLastBook(book.ID)

	log.Printf("[library] imported %q as %s (%d chapters, %d chars)", book.Title, book.ID, len(chapters), book.Length)
	return book, true, nil
}

// Books lists the library, oldest first.
func (l *Library) Books() ([]entities.Book, error) {
	books, err := l.books.ListBooks()
	if err != nil {
		return nil, entities.StorageError("list books", err)
	}
	return books, nil
}

func (l *Library) Book(id string) (*entities.Book, error) {
	book, err := l.books.GetBook(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrBookNotFound
	}
	if err != nil {
		return nil, entities.StorageError("get book", err)
	}
	return book, nil
}

// Remove deletes a book and its progress. Unknown ids are a no-op. If the
// removed book was the last opened one, the first remaining book takes its
// place.
func (l *Library) Remove(bookID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	deleted, err := l.books.DeleteBook(bookID)
	if err != nil {
		return entities.StorageError("delete book", err)
	}
	if !deleted {
		return nil
	}

	l.chapters.Evict(bookID)

	if err := l.progress.DeleteProgress(bookID); err != nil {
		log.Printf("[library] failed to delete progress for %s: %v", bookID, err)
	}

	if last, err := l.session.GetLastBookID(); err == nil && last == bookID {
		next := ""
		if remaining, err := l.books.ListBooks(); err == nil && len(remaining) > 0 {
			next = remaining[0].ID
		}
		l.rememberLastBook(next)
	}

	l.purge(bookID)

	log.Printf("[library] removed book %s", bookID)
	return nil
}

func (l *Library) purge(bookID string) {
	if l.purger != nil {
		err := l.purger.PurgeBook(bookID)
		if err == nil {
			return
		}
		log.Printf("[library] failed to queue purge for %s, purging inline: %v", bookID, err)
	}
	if err := l.books.PurgeBookData(bookID); err != nil {
		log.Printf("[library] failed to purge data for %s: %v", bookID, err)
	}
}

// LastBookID returns the last opened book, or "" when unknown or unreadable.
func (l *Library) LastBookID() string {
	id, err := l.session.GetLastBookID()
	if err != nil {
		log.Printf("[library] failed to read last book: %v", err)
		return ""
	}
	return id
}

// SetLastBookID records bookID as the last opened book.
func (l *Library) SetLastBookID(bookID string) error {
	if err := l.session.SetLastBookID(bookID); err != nil {
		return entities.StorageError("set last book", err)
	}
	return nil
}

func (l *Library) rememberLastBook(bookID string) {
	if err := l.session.SetLastBookID(bookID); err != nil {
		log.Printf("[library] failed to record last book: %v", err)
	}
}

// Progress returns the saved progress for a book, or nil when there is none
// or it cannot be read.
func (l *Library) Progress(bookID string) *entities.ReadingProgress {
	p, err := l.progress.GetProgress(bookID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[library] failed to read progress for %s: %v", bookID, err)
		}
		return nil
	}
	return p
}

// AllProgress returns progress keyed by book; read failures yield an empty
// map.
func (l *Library) AllProgress() map[string]entities.ReadingProgress {
	all, err := l.progress.GetAllProgress()
	if err != nil {
		log.Printf("[library] failed to read progress: %v", err)
		return map[string]entities.ReadingProgress{}
	}
	return all
}

// RecordProgress overwrites a book's progress and marks it last opened.
// A zero UpdatedAt is stamped with the current time.
func (l *Library) RecordProgress(p entities.ReadingProgress) (entities.ReadingProgress, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = l.now()
	}
	if err := l.progress.SaveProgress(&p); err != nil {
		return p, entities.StorageError("save progress", err)
	}
	l.rememberLastBook(p.BookID)
	return p, nil
}

// Session returns the session document.
func (l *Library) Session() entities.SessionState {
	return entities.SessionState{
		Version:        1,
		LastBookID:     l.LastBookID(),
		ProgressByBook: l.AllProgress(),
	}
}
