package http

import (
	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/protocol"
)

// ReaderService is the reader host as seen by the controllers.
type ReaderService interface {
	Init() (protocol.InitState, error)
	Settings() entities.ReaderSettings
	OpenBook(bookID string) (protocol.OpenBookResult, error)
	RequestChapter(bookID, chapterID string, appendTo bool) (protocol.ChapterContent, error)
	UpdateProgress(bookID string, mode entities.ReaderMode, chapterID string, anchor entities.Anchor) (entities.ReadingProgress, error)
	ListBookmarks(bookID string) ([]entities.Bookmark, error)
	AddBookmark(bookID, chapterID string, anchor entities.Anchor) (protocol.BookmarksChanged, error)
	RemoveBookmark(bookID, bookmarkID string) (protocol.BookmarksChanged, error)
	UpdateSettings(patch entities.SettingsPatch) (protocol.SettingsChanged, bool, error)
	ImportText(title, text string) (*entities.Book, protocol.InitState, error)
	RemoveBook(bookID string) (protocol.InitState, error)
	Handle(req protocol.Request) ([]protocol.Event, error)
}
