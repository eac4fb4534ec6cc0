// Package bookmarks manages the labelled anchors a reader saves per book.
package bookmarks

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/zenreader/internal/entities"
)

// FallbackTitle labels bookmarks whose chapter is no longer in the index.
const FallbackTitle = "Bookmark"

type Store interface {
	GetBookmarks(bookID string) ([]entities.Bookmark, error)
	ReplaceBookmarks(bookID string, bookmarks []entities.Bookmark) error
}

type ChapterSource interface {
	Chapters(bookID string) ([]entities.Chapter, error)
}

// Manager serialises read-modify-write of each book's bookmark set.
type Manager struct {
	store    Store
	chapters ChapterSource
	newID    func() string
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, chapters ChapterSource) *Manager {
	return &Manager{
		store:    store,
		chapters: chapters,
		newID:    uuid.NewString,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lock(bookID string) func() {
	m.mu.Lock()
	l, ok := m.locks[bookID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[bookID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// List returns a book's bookmarks. A failed read yields an empty set.
func (m *Manager) List(bookID string) []entities.Bookmark {
	bookmarks, err := m.store.GetBookmarks(bookID)
	if err != nil {
		log.Printf("[bookmarks] failed to load bookmarks for %s: %v", bookID, err)
		return []entities.Bookmark{}
	}
	if bookmarks == nil {
		bookmarks = []entities.Bookmark{}
	}
	return bookmarks
}

// Find returns a single bookmark.
func (m *Manager) Find(bookID, bookmarkID string) (entities.Bookmark, error) {
	bookmarks, err := m.store.GetBookmarks(bookID)
	if err != nil {
		return entities.Bookmark{}, entities.StorageError("load bookmarks", err)
	}
	for _, b := range bookmarks {
		if b.ID == bookmarkID {
			return b, nil
		}
	}
	return entities.Bookmark{}, entities.ErrBookmarkNotFound
}

// Add saves a new bookmark at anchor and returns it with the updated set.
// Either anchor variant is accepted.
func (m *Manager) Add(bookID, chapterID string, anchor entities.Anchor) (entities.Bookmark, []entities.Bookmark, error) {
	if anchor.IsZero() {
		return entities.Bookmark{}, nil, entities.ErrInvalidAnchor
	}

	chapters, err := m.chapters.Chapters(bookID)
	if err != nil {
		return entities.Bookmark{}, nil, err
	}
	title := FallbackTitle
	if ch, ok := entities.FindChapter(chapters, chapterID); ok && ch.Title != "" {
		title = ch.Title
	}

	unlock := m.lock(bookID)
	defer unlock()

	current, err := m.store.GetBookmarks(bookID)
	if err != nil {
		return entities.Bookmark{}, nil, entities.StorageError("load bookmarks", err)
	}

	bm := entities.Bookmark{
		ID:        m.newID(),
		BookID:    bookID,
		ChapterID: chapterID,
		Anchor:    anchor,
		Label:     anchor.Label(title),
		CreatedAt: m.now(),
	}
	next := append(current, bm)

	if err := m.store.ReplaceBookmarks(bookID, next); err != nil {
		return entities.Bookmark{}, nil, entities.StorageError("save bookmarks", err)
	}
	return bm, next, nil
}

// Remove deletes a bookmark by id. Unknown ids leave the set unchanged.
func (m *Manager) Remove(bookID, bookmarkID string) ([]entities.Bookmark, error) {
	unlock := m.lock(bookID)
	defer unlock()

	current, err := m.store.GetBookmarks(bookID)
	if err != nil {
		return nil, entities.StorageError("load bookmarks", err)
	}

	next := make([]entities.Bookmark, 0, len(current))
	for _, b := range current {
		if b.ID != bookmarkID {
			next = append(next, b)
		}
	}
	if len(next) == len(current) {
		return next, nil
	}

	if err := m.store.ReplaceBookmarks(bookID, next); err != nil {
		return nil, entities.StorageError("save bookmarks", err)
	}
	return next, nil
}

// Resolve returns where opening bm under mode should navigate. A bookmark
// taken under the other mode opens its chapter at the start.
func Resolve(bm entities.Bookmark, mode entities.ReaderMode) (chapterID string, anchor *entities.Anchor) {
	return bm.ChapterID, entities.AnchorFor(mode, &bm.Anchor)
}
