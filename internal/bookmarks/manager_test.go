package bookmarks

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/zenreader/internal/entities"
)

type memoryStore struct {
	mu      sync.Mutex
	sets    map[string][]entities.Bookmark
	writes  int
	readErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sets: map[string][]entities.Bookmark{}}
}

func (s *memoryStore) GetBookmarks(bookID string) ([]entities.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return append([]entities.Bookmark(nil), s.sets[bookID]...), nil
}

func (s *memoryStore) ReplaceBookmarks(bookID string, bookmarks []entities.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.sets[bookID] = append([]entities.Bookmark(nil), bookmarks...)
	return nil
}

type staticChapters []entities.Chapter

func (c staticChapters) Chapters(bookID string) ([]entities.Chapter, error) {
	if bookID == "missing" {
		return nil, entities.ErrBookNotFound
	}
	return c, nil
}

func newTestManager(store Store) *Manager {
	m := NewManager(store, staticChapters{
		{ID: "c0", Title: "Prologue", Order: 0, Start: 0, End: 10},
		{ID: "c1", Title: "", Order: 1, Start: 10, End: 20},
	})
	n := 0
	m.newID = func() string {
		n++
		return fmt.Sprintf("bm-%d", n)
	}
	m.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	return m
}

func TestManager_AddLabels(t *testing.T) {
	m := newTestManager(newMemoryStore())

	bm, set, err := m.Add("b1", "c0", entities.PagedAnchor(4))
	require.NoError(t, err)
	assert.Equal(t, "bm-1", bm.ID)
	assert.Equal(t, "Prologue · page 5", bm.Label)
	assert.Len(t, set, 1)

	bm, set, err = m.Add("b1", "c0", entities.ScrollAnchor(0.333))
	require.NoError(t, err)
	assert.Equal(t, "Prologue · 33%", bm.Label)
	assert.Len(t, set, 2)

	// Untitled and dangling chapters fall back to a generic title.
	bm, _, err = m.Add("b1", "c1", entities.PagedAnchor(0))
	require.NoError(t, err)
	assert.Equal(t, "Bookmark · page 1", bm.Label)
	bm, _, err = m.Add("b1", "c9", entities.PagedAnchor(0))
	require.NoError(t, err)
	assert.Equal(t, "Bookmark · page 1", bm.Label)
}

func TestManager_AddRejects(t *testing.T) {
	m := newTestManager(newMemoryStore())

	_, _, err := m.Add("b1", "c0", entities.Anchor{})
	assert.ErrorIs(t, err, entities.ErrInvalidAnchor)

	_, _, err = m.Add("missing", "c0", entities.PagedAnchor(0))
	assert.ErrorIs(t, err, entities.ErrBookNotFound)
}

func TestManager_RemoveIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)

	first, _, err := m.Add("b1", "c0", entities.PagedAnchor(1))
	require.NoError(t, err)
	_, _, err = m.Add("b1", "c0", entities.PagedAnchor(2))
	require.NoError(t, err)

	set, err := m.Remove("b1", first.ID)
	require.NoError(t, err)
	require.Len(t, set, 1)
	writes := store.writes

	set, err = m.Remove("b1", first.ID)
	require.NoError(t, err)
	assert.Len(t, set, 1)
	assert.Equal(t, writes, store.writes)

	set, err = m.Remove("b1", "never-existed")
	require.NoError(t, err)
	assert.Len(t, set, 1)
}

func TestManager_ListFallsBackToEmpty(t *testing.T) {
	store := newMemoryStore()
	store.readErr = errors.New("corrupt")
	m := newTestManager(store)

	assert.Empty(t, m.List("b1"))
	assert.NotNil(t, m.List("b1"))

	_, err := m.Remove("b1", "x")
	assert.ErrorIs(t, err, entities.ErrStorageUnavailable)
}

func TestManager_Find(t *testing.T) {
	m := newTestManager(newMemoryStore())
	bm, _, err := m.Add("b1", "c0", entities.PagedAnchor(1))
	require.NoError(t, err)

	got, err := m.Find("b1", bm.ID)
	require.NoError(t, err)
	assert.Equal(t, bm.Label, got.Label)

	_, err = m.Find("b1", "nope")
	assert.ErrorIs(t, err, entities.ErrBookmarkNotFound)
}

func TestManager_ConcurrentAddsAreSerialised(t *testing.T) {
	store := newMemoryStore()
	m := NewManager(store, staticChapters{{ID: "c0", Title: "One", End: 1}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := m.Add("b1", "c0", entities.PagedAnchor(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.List("b1"), 20)
}

func TestResolve_ModeMismatchOpensAtStart(t *testing.T) {
	bm := entities.Bookmark{ChapterID: "c3", Anchor: entities.ScrollAnchor(0.7)}

	chapterID, anchor := Resolve(bm, entities.ModePaged)
	assert.Equal(t, "c3", chapterID)
	assert.Nil(t, anchor)

	chapterID, anchor = Resolve(bm, entities.ModeScroll)
	assert.Equal(t, "c3", chapterID)
	require.NotNil(t, anchor)
	assert.Equal(t, 0.7, anchor.Ratio())
}
