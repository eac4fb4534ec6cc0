package library

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/zenreader/internal/entities"
)

type fakeContentStore struct {
	texts    map[string]string
	chapters map[string][]entities.Chapter
	loads    int
	err      error
}

func (s *fakeContentStore) GetContent(bookID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	text, ok := s.texts[bookID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return text, nil
}

func (s *fakeContentStore) GetChapterIndex(bookID string) ([]entities.Chapter, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.loads++
	chapters, ok := s.chapters[bookID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return chapters, nil
}

func newFakeStore(ids ...string) *fakeContentStore {
	s := &fakeContentStore{texts: map[string]string{}, chapters: map[string][]entities.Chapter{}}
	for _, id := range ids {
		s.texts[id] = "héllo wörld"
		s.chapters[id] = []entities.Chapter{
			{ID: "c0", Title: "One", Order: 0, Start: 0, End: 6},
			{ID: "c1", Title: "Two", Order: 1, Start: 6, End: 11},
		}
	}
	return s
}

func TestRepository_ReadChapter_SlicesByCharacter(t *testing.T) {
	repo := NewRepository(newFakeStore("b1"), 3)

	ch, text, err := repo.ReadChapter("b1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Two", ch.Title)
	assert.Equal(t, "wörld", text)

	_, text, err = repo.ReadChapter("b1", "c0")
	require.NoError(t, err)
	assert.Equal(t, "héllo ", text)
}

func TestRepository_NotFound(t *testing.T) {
	repo := NewRepository(newFakeStore("b1"), 3)

	_, _, err := repo.ReadChapter("b1", "c9")
	assert.ErrorIs(t, err, entities.ErrChapterNotFound)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = repo.Chapters("nope")
	assert.ErrorIs(t, err, entities.ErrBookNotFound)
}

func TestRepository_StorageFailure(t *testing.T) {
	store := newFakeStore("b1")
	store.err = errors.New("disk on fire")
	repo := NewRepository(store, 3)

	_, err := repo.Chapters("b1")
	assert.ErrorIs(t, err, entities.ErrStorageUnavailable)
}

func TestRepository_CachesAndEvictsLeastRecentlyUsed(t *testing.T) {
	store := newFakeStore("a", "b", "c")
	repo := NewRepository(store, 2)

	_, err := repo.Chapters("a")
	require.NoError(t, err)
	_, err = repo.Chapters("b")
	require.NoError(t, err)
	_, err = repo.Chapters("a")
	require.NoError(t, err)
	assert.Equal(t, 2, store.loads)

	// "b" is the least recently used and makes room for "c".
	_, err = repo.Chapters("c")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Len())

	_, err = repo.Chapters("a")
	require.NoError(t, err)
	assert.Equal(t, 3, store.loads)

	_, err = repo.Chapters("b")
	require.NoError(t, err)
	assert.Equal(t, 4, store.loads)
}

func TestRepository_EvictIdle(t *testing.T) {
	repo := NewRepository(newFakeStore("a", "b"), 5)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	_, err := repo.Chapters("a")
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	_, err = repo.Chapters("b")
	require.NoError(t, err)
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, repo.EvictIdle(30*time.Minute))
	assert.Equal(t, 1, repo.Len())

	repo.Evict("b")
	assert.Zero(t, repo.Len())
}

func TestRepository_ChaptersReturnsCopy(t *testing.T) {
	repo := NewRepository(newFakeStore("a"), 1)

	chapters, err := repo.Chapters("a")
	require.NoError(t, err)
	chapters[0].Title = "mutated"

	again, err := repo.Chapters("a")
	require.NoError(t, err)
	assert.Equal(t, "One", again[0].Title)
}
