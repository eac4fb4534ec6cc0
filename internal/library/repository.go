package library

import (
	"container/list"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/zenreader/internal/entities"
)

// ContentStore loads a book's raw text and chapter index.
type ContentStore interface {
	GetContent(bookID string) (string, error)
	GetChapterIndex(bookID string) ([]entities.Chapter, error)
}

// bookEntry text and chapters never change after load, so slice reads need
// no lock. lastUsed is guarded by Repository.mu.
type bookEntry struct {
	bookID   string
	text     []rune
	chapters []entities.Chapter
	lastUsed time.Time
}

// Repository keeps recently opened books' text and chapter index in memory.
// Entries are bounded by an LRU capacity and dropped after sitting idle.
type Repository struct {
	store    ContentStore
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	lru     *list.List // front is most recently used
	entries map[string]*list.Element
}

func NewRepository(store ContentStore, capacity int) *Repository {
	if capacity <= 0 {
		capacity = 1
	}
	return &Repository{
		store:    store,
		capacity: capacity,
		now:      time.Now,
		lru:      list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Chapters returns the book's chapters ordered by Order.
func (r *Repository) Chapters(bookID string) ([]entities.Chapter, error) {
	e, err := r.entry(bookID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Chapter, len(e.chapters))
	copy(out, e.chapters)
	return out, nil
}

// ReadChapter returns a chapter and its slice of the book's text.
func (r *Repository) ReadChapter(bookID, chapterID string) (entities.Chapter, string, error) {
	e, err := r.entry(bookID)
	if err != nil {
		return entities.Chapter{}, "", err
	}
	ch, ok := entities.FindChapter(e.chapters, chapterID)
	if !ok {
		return entities.Chapter{}, "", entities.ErrChapterNotFound
	}
	start := min(max(ch.Start, 0), len(e.text))
	end := min(max(ch.End, start), len(e.text))
	return ch, string(e.text[start:end]), nil
}

// Put seeds the cache with a freshly imported book.
func (r *Repository) Put(bookID, text string, chapters []entities.Chapter) {
	r.insert(&bookEntry{bookID: bookID, text: []rune(text), chapters: chapters})
}

// Evict drops a book from the cache.
func (r *Repository) Evict(bookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.entries[bookID]; ok {
		r.lru.Remove(el)
		delete(r.entries, bookID)
	}
}

// EvictIdle drops entries unused for longer than maxIdle and returns how many
// were removed.
func (r *Repository) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	removed := 0
	for el := r.lru.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*bookEntry)
		if e.lastUsed.Before(cutoff) {
			r.lru.Remove(el)
			delete(r.entries, e.bookID)
			removed++
		}
		el = prev
	}
	return removed
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

func (r *Repository) entry(bookID string) (*bookEntry, error) {
	r.mu.Lock()
	if el, ok := r.entries[bookID]; ok {
		e := el.Value.(*bookEntry)
		e.lastUsed = r.now()
		r.lru.MoveToFront(el)
		r.mu.Unlock()
		return e, nil
	}
	r.mu.Unlock()

	e, err := r.load(bookID)
	if err != nil {
		return nil, err
	}
	return r.insert(e), nil
}

func (r *Repository) load(bookID string) (*bookEntry, error) {
	chapters, err := r.store.GetChapterIndex(bookID)
	if err != nil {
		return nil, translate("load chapter index", err)
	}
	text, err := r.store.GetContent(bookID)
	if err != nil {
		return nil, translate("load book content", err)
	}
	return &bookEntry{bookID: bookID, text: []rune(text), chapters: chapters}, nil
}

// insert adds e unless another loader won the race, and returns the cached
// entry.
func (r *Repository) insert(e *bookEntry) *bookEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.entries[e.bookID]; ok {
		existing := el.Value.(*bookEntry)
		existing.lastUsed = r.now()
		r.lru.MoveToFront(el)
		return existing
	}
	e.lastUsed = r.now()
	r.entries[e.bookID] = r.lru.PushFront(e)

	for r.lru.Len() > r.capacity {
		oldest := r.lru.Back()
		evicted := oldest.Value.(*bookEntry)
		r.lru.Remove(oldest)
		delete(r.entries, evicted.bookID)
		log.Printf("[library] evicted book %s from chapter cache", evicted.bookID)
	}
	return e
}

func translate(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ErrBookNotFound
	}
	return entities.StorageError(op, err)
}
