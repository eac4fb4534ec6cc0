// Package reader is the host side of the reading view: it answers protocol
// requests using the library, bookmarks and settings and produces the
// events the view renders.
package reader

import (
	"fmt"
	"log"
	"sync"

	"github.com/mrlokans/zenreader/internal/bookmarks"
	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/library"
	"github.com/mrlokans/zenreader/internal/protocol"
	"github.com/mrlokans/zenreader/internal/render"
)

// SettingsStore persists reader settings.
type SettingsStore interface {
	GetReaderSettings(defaults entities.ReaderSettings) (entities.ReaderSettings, error)
	SaveReaderSettings(s entities.ReaderSettings) error
}

type Service struct {
	library   *library.Library
	bookmarks *bookmarks.Manager
	settings  SettingsStore
	defaults  entities.ReaderSettings

	settingsMu sync.Mutex
}

func NewService(lib *library.Library, marks *bookmarks.Manager, settings SettingsStore, defaults entities.ReaderSettings) *Service {
	if !defaults.Mode.Valid() {
		defaults.Mode = entities.ModePaged
	}
	if defaults.FontSize == 0 {
		defaults.FontSize = entities.DefaultFontSize
	}
	defaults.FontSize = entities.ClampFontSize(defaults.FontSize)
	return &Service{library: lib, bookmarks: marks, settings: settings, defaults: defaults}
}

func (s *Service) Library() *library.Library {
	return s.library
}

func (s *Service) Bookmarks() *bookmarks.Manager {
	return s.bookmarks
}

// Settings returns the stored settings, or the defaults if they cannot be
// read.
func (s *Service) Settings() entities.ReaderSettings {
	settings, err := s.settings.GetReaderSettings(s.defaults)
	if err != nil {
		log.Printf("[reader] failed to read settings, using defaults: %v", err)
		return s.defaults
	}
	return settings
}

// Init returns the library and session documents.
func (s *Service) Init() (protocol.InitState, error) {
	books, err := s.library.Books()
	if err != nil {
		return protocol.InitState{}, err
	}
	return protocol.InitState{
		Library: entities.LibraryState{Version: 1, Settings: s.Settings(), Books: books},
		Session: s.library.Session(),
	}, nil
}

// OpenBook returns everything the view needs to show a book and marks it
// last opened.
func (s *Service) OpenBook(bookID string) (protocol.OpenBookResult, error) {
	if _, err := s.library.Book(bookID); err != nil {
		return protocol.OpenBookResult{}, err
	}
	chapters, err := s.library.Chapters().Chapters(bookID)
	if err != nil {
		return protocol.OpenBookResult{}, err
	}
	if err := s.library.SetLastBookID(bookID); err != nil {
		log.Printf("[reader] %v", err)
	}

	log.Printf("[reader] opened book %s (%d chapters)", bookID, len(chapters))
	return protocol.OpenBookResult{
		BookID:    bookID,
		Chapters:  chapters,
		Bookmarks: s.bookmarks.List(bookID),
		Progress:  s.library.Progress(bookID),
	}, nil
}

// RequestChapter renders a chapter's text.
func (s *Service) RequestChapter(bookID, chapterID string, appendTo bool) (protocol.ChapterContent, error) {
	ch, text, err := s.library.Chapters().ReadChapter(bookID, chapterID)
	if err != nil {
		return protocol.ChapterContent{}, err
	}
	return protocol.ChapterContent{
		BookID:    bookID,
		ChapterID: ch.ID,
		Title:     ch.Title,
		HTML:      render.ChapterHTML(text),
		Append:    appendTo,
	}, nil
}

// UpdateProgress stores the reader's position. The anchor must belong to
// mode.
func (s *Service) UpdateProgress(bookID string, mode entities.ReaderMode, chapterID string, anchor entities.Anchor) (entities.ReadingProgress, error) {
	if !mode.Valid() {
		return entities.ReadingProgress{}, entities.ErrInvalidMode
	}
	if !anchor.Matches(mode) {
		return entities.ReadingProgress{}, fmt.Errorf("%w: got %s, want %s", entities.ErrAnchorMode, anchor.Mode(), mode)
	}
	if _, err := s.library.Book(bookID); err != nil {
		return entities.ReadingProgress{}, err
	}
	return s.library.RecordProgress(entities.ReadingProgress{
		BookID:    bookID,
		Mode:      mode,
		ChapterID: chapterID,
		Anchor:    anchor,
	})
}

// ListBookmarks returns a book's bookmarks in creation order.
func (s *Service) ListBookmarks(bookID string) ([]entities.Bookmark, error) {
	if _, err := s.library.Book(bookID); err != nil {
		return nil, err
	}
	return s.bookmarks.List(bookID), nil
}

func (s *Service) AddBookmark(bookID, chapterID string, anchor entities.Anchor) (protocol.BookmarksChanged, error) {
	_, set, err := s.bookmarks.Add(bookID, chapterID, anchor)
	if err != nil {
		return protocol.BookmarksChanged{}, err
	}
	return protocol.BookmarksChanged{BookID: bookID, Bookmarks: set}, nil
}

func (s *Service) FindBookmark(bookID, bookmarkID string) (entities.Bookmark, error) {
	return s.bookmarks.Find(bookID, bookmarkID)
}

func (s *Service) RemoveBookmark(bookID, bookmarkID string) (protocol.BookmarksChanged, error) {
	set, err := s.bookmarks.Remove(bookID, bookmarkID)
	if err != nil {
		return protocol.BookmarksChanged{}, err
	}
	return protocol.BookmarksChanged{BookID: bookID, Bookmarks: set}, nil
}

// UpdateSettings applies a partial update. An empty patch changes nothing
// and returns changed=false.
func (s *Service) UpdateSettings(patch entities.SettingsPatch) (protocol.SettingsChanged, bool, error) {
	if patch.Empty() {
		return protocol.SettingsChanged{}, false, nil
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	next := s.Settings()
	if patch.Mode != nil {
		if !patch.Mode.Valid() {
			return protocol.SettingsChanged{}, false, entities.ErrInvalidMode
		}
		next.Mode = *patch.Mode
	}
	if patch.FontSize != nil {
		next.FontSize = entities.ClampFontSize(*patch.FontSize)
	}

	if err := s.settings.SaveReaderSettings(next); err != nil {
		return protocol.SettingsChanged{}, false, entities.StorageError("save settings", err)
	}
	return protocol.SettingsChanged{Settings: next}, true, nil
}

// ImportText imports a book and returns the refreshed init state.
func (s *Service) ImportText(title, text string) (*entities.Book, protocol.InitState, error) {
	book, _, err := s.library.Import(title, text)
	if err != nil {
		return nil, protocol.InitState{}, err
	}
	state, err := s.Init()
	return book, state, err
}

// RemoveBook removes a book and returns the refreshed init state.
func (s *Service) RemoveBook(bookID string) (protocol.InitState, error) {
	if err := s.library.Remove(bookID); err != nil {
		return protocol.InitState{}, err
	}
	return s.Init()
}

// Handle dispatches a decoded request and returns the events it produces.
func (s *Service) Handle(req protocol.Request) ([]protocol.Event, error) {
	switch r := req.(type) {
	case protocol.Ready:
		state, err := s.Init()
		if err != nil {
			return nil, err
		}
		return []protocol.Event{state}, nil

	case protocol.OpenBook:
		result, err := s.OpenBook(r.BookID)
		if err != nil {
			return nil, err
		}
		return []protocol.Event{result}, nil

	case protocol.ImportText:
		_, state, err := s.ImportText(r.Title, r.Text)
		if err != nil {
			return nil, err
		}
		return []protocol.Event{state}, nil

	case protocol.RemoveBook:
		state, err := s.RemoveBook(r.BookID)
		if err != nil {
			return nil, err
		}
		return []protocol.Event{state}, nil

	case protocol.RequestChapter:
		content, err := s.RequestChapter(r.BookID, r.ChapterID, r.Append)
		if err != nil {
			return nil, err
		}
		return []protocol.Event{content}, nil

	case protocol.UpdateProgress:
		_, err := s.UpdateProgress(r.BookID, r.Mode, r.ChapterID, r.Anchor)
		return nil, err

	case protocol.AddBookmark:
		changed, err := s.AddBookmark(r.BookID, r.ChapterID, r.Anchor)
		if err != nil {
			return nil, err
		}
		return []protocol.Event{changed}, nil

	case protocol.RemoveBookmark:
		changed, err := s.RemoveBookmark(r.BookID, r.BookmarkID)
		if err != nil {
			return nil, err
		}
		return []protocol.Event{changed}, nil

	case protocol.UpdateSettings:
		changed, ok, err := s.UpdateSettings(r.Patch)
		if err != nil || !ok {
			return nil, err
		}
		return []protocol.Event{changed}, nil
	}

	return nil, fmt.Errorf("%w: unhandled type %q", entities.ErrInvalidMessage, req.Type())
}
