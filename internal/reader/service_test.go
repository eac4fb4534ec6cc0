package reader

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/zenreader/internal/bookmarks"
	"github.com/mrlokans/zenreader/internal/database"
	dbbookmarks "github.com/mrlokans/zenreader/internal/database/bookmarks"
	"github.com/mrlokans/zenreader/internal/database/books"
	"github.com/mrlokans/zenreader/internal/database/progress"
	"github.com/mrlokans/zenreader/internal/database/settings"
	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/library"
	"github.com/mrlokans/zenreader/internal/protocol"
)

var testDefaults = entities.ReaderSettings{Mode: entities.ModePaged, FontSize: 16}

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "reader.db"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	settingsRepo := settings.NewRepository(db.DB)
	lib := library.New(books.NewRepository(db.DB), progress.NewRepository(db.DB), settingsRepo, nil, library.Config{})
	marks := bookmarks.NewManager(dbbookmarks.NewRepository(db.DB), lib.Chapters())
	return NewService(lib, marks, settingsRepo, testDefaults)
}

func novel() string {
	body := strings.Repeat("Rain fell on the roofs.\n\n", 20)
	return "Chapter 1\n" + body + "Chapter 2\n" + body + "Chapter 3\n" + body
}

func importNovel(t *testing.T, s *Service) *entities.Book {
	t.Helper()
	book, _, err := s.ImportText("Novel", novel())
	require.NoError(t, err)
	return book
}

func TestService_InitOnEmptyLibrary(t *testing.T) {
	s := setupService(t)

	state, err := s.Init()
	require.NoError(t, err)
	assert.Empty(t, state.Library.Books)
	assert.Equal(t, testDefaults, state.Library.Settings)
	assert.Empty(t, state.Session.LastBookID)
	assert.NotNil(t, state.Session.ProgressByBook)
}

func TestService_OpenBookAndRequestChapter(t *testing.T) {
	s := setupService(t)
	book := importNovel(t, s)

	result, err := s.OpenBook(book.ID)
	require.NoError(t, err)
	require.Len(t, result.Chapters, 3)
	assert.Empty(t, result.Bookmarks)
	assert.Nil(t, result.Progress)

	content, err := s.RequestChapter(book.ID, "c1", false)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 2", content.Title)
	assert.True(t, strings.HasPrefix(content.HTML, "<p>Chapter 2<br/>Rain fell on the roofs.</p>"))

	_, err = s.RequestChapter(book.ID, "c9", false)
	assert.ErrorIs(t, err, entities.ErrChapterNotFound)

	_, err = s.OpenBook("missing")
	assert.ErrorIs(t, err, entities.ErrBookNotFound)
}

func TestService_UpdateProgress(t *testing.T) {
	s := setupService(t)
	book := importNovel(t, s)

	_, err := s.UpdateProgress(book.ID, entities.ModePaged, "c1", entities.ScrollAnchor(0.3))
	assert.ErrorIs(t, err, entities.ErrAnchorMode)

	p, err := s.UpdateProgress(book.ID, entities.ModeScroll, "c1", entities.ScrollAnchor(0.3))
	require.NoError(t, err)
	assert.False(t, p.UpdatedAt.IsZero())

	result, err := s.OpenBook(book.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Progress)
	assert.Equal(t, "c1", result.Progress.ChapterID)
	assert.Equal(t, entities.ScrollAnchor(0.3), result.Progress.Anchor)

	_, err = s.UpdateProgress("missing", entities.ModePaged, "c0", entities.PagedAnchor(0))
	assert.ErrorIs(t, err, entities.ErrBookNotFound)
}

func TestService_Bookmarks(t *testing.T) {
	s := setupService(t)
	book := importNovel(t, s)

	changed, err := s.AddBookmark(book.ID, "c2", entities.PagedAnchor(1))
	require.NoError(t, err)
	require.Len(t, changed.Bookmarks, 1)
	assert.Equal(t, "Chapter 3 · page 2", changed.Bookmarks[0].Label)

	changed, err = s.RemoveBookmark(book.ID, changed.Bookmarks[0].ID)
	require.NoError(t, err)
	assert.Empty(t, changed.Bookmarks)
}

func TestService_UpdateSettings(t *testing.T) {
	s := setupService(t)

	_, ok, err := s.UpdateSettings(entities.SettingsPatch{})
	require.NoError(t, err)
	assert.False(t, ok)

	size := 50
	changed, ok, err := s.UpdateSettings(entities.SettingsPatch{FontSize: &size})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entities.ReaderSettings{Mode: entities.ModePaged, FontSize: 28}, changed.Settings)

	mode := entities.ModeScroll
	changed, _, err = s.UpdateSettings(entities.SettingsPatch{Mode: &mode})
	require.NoError(t, err)
	assert.Equal(t, entities.ReaderSettings{Mode: entities.ModeScroll, FontSize: 28}, changed.Settings)
	assert.Equal(t, changed.Settings, s.Settings())
}

type brokenSettings struct{}

func (brokenSettings) GetReaderSettings(entities.ReaderSettings) (entities.ReaderSettings, error) {
	return entities.ReaderSettings{}, errors.New("unreadable")
}

func (brokenSettings) SaveReaderSettings(entities.ReaderSettings) error {
	return errors.New("unwritable")
}

func TestService_SettingsFallBackToDefaults(t *testing.T) {
	s := setupService(t)
	s.settings = brokenSettings{}

	assert.Equal(t, testDefaults, s.Settings())

	size := 20
	_, _, err := s.UpdateSettings(entities.SettingsPatch{FontSize: &size})
	assert.ErrorIs(t, err, entities.ErrStorageUnavailable)
}

func TestService_Handle(t *testing.T) {
	s := setupService(t)

	events, err := s.Handle(protocol.ImportText{Title: "Novel", Text: novel()})
	require.NoError(t, err)
	require.Len(t, events, 1)
	state := events[0].(protocol.InitState)
	require.Len(t, state.Library.Books, 1)
	bookID := state.Library.Books[0].ID
	assert.Equal(t, bookID, state.Session.LastBookID)

	events, err = s.Handle(protocol.RequestChapter{BookID: bookID, ChapterID: "c0"})
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeChapterContent, events[0].Type())

	events, err = s.Handle(protocol.UpdateProgress{
		BookID: bookID, Mode: entities.ModePaged, ChapterID: "c0", Anchor: entities.PagedAnchor(2),
	})
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = s.Handle(protocol.UpdateSettings{})
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = s.Handle(protocol.RemoveBook{BookID: bookID})
	require.NoError(t, err)
	state = events[0].(protocol.InitState)
	assert.Empty(t, state.Library.Books)
	assert.Empty(t, state.Session.ProgressByBook)
	assert.Empty(t, state.Session.LastBookID)
}
