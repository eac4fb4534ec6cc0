package protocol

import (
	"encoding/json"
	"errors"

	"github.com/mrlokans/zenreader/internal/entities"
)

// Event type names.
const (
	TypeInitState        = "init/state"
	TypeOpenBookResult   = "library/openBookResult"
	TypeChapterContent   = "reader/chapterContent"
	TypeSettingsChanged  = "settings/changed"
	TypeBookmarksChanged = "bookmark/changed"
	TypeWindowChanged    = "reader/windowChanged"
	TypeError            = "error"
)

// Event is a message from the host to the view.
type Event interface {
	Type() string
}

type InitState struct {
	Library entities.LibraryState `json:"library"`
	Session entities.SessionState `json:"session"`
}

type OpenBookResult struct {
	BookID    string                    `json:"bookId"`
	Chapters  []entities.Chapter        `json:"chapters"`
	Bookmarks []entities.Bookmark       `json:"bookmarks"`
	Progress  *entities.ReadingProgress `json:"progress,omitempty"`
}

// ChapterContent carries rendered chapter HTML. Token echoes the navigation
// that requested it, zero for requests made outside a view session. Anchor
// is where the view should place the reader; nil means the chapter start.
type ChapterContent struct {
	BookID    string           `json:"bookId"`
	ChapterID string           `json:"chapterId"`
	Title     string           `json:"title"`
	HTML      string           `json:"html"`
	Append    bool             `json:"append,omitempty"`
	Token     uint64           `json:"token,omitempty"`
	Anchor    *entities.Anchor `json:"anchor,omitempty"`
}

// WindowChanged reports the chapters kept rendered in continuous mode after
// an append, and the scroll offset compensated for evicted blocks.
type WindowChanged struct {
	BookID    string   `json:"bookId"`
	Rendered  []string `json:"rendered"`
	Evicted   []string `json:"evicted,omitempty"`
	ScrollTop float64  `json:"scrollTop"`
}

type SettingsChanged struct {
	Settings entities.ReaderSettings `json:"settings"`
}

type BookmarksChanged struct {
	BookID    string              `json:"bookId"`
	Bookmarks []entities.Bookmark `json:"bookmarks"`
}

// Error reports a rejected request. Kind is one of not_found,
// invalid_input, storage_unavailable or internal.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (InitState) Type() string        { return TypeInitState }
func (OpenBookResult) Type() string   { return TypeOpenBookResult }
func (ChapterContent) Type() string   { return TypeChapterContent }
func (SettingsChanged) Type() string  { return TypeSettingsChanged }
func (BookmarksChanged) Type() string { return TypeBookmarksChanged }
func (WindowChanged) Type() string    { return TypeWindowChanged }
func (Error) Type() string            { return TypeError }

const (
	KindNotFound           = "not_found"
	KindInvalidInput       = "invalid_input"
	KindStorageUnavailable = "storage_unavailable"
	KindInternal           = "internal"
)

// ErrorKind classifies err into one of the Error kinds.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return KindNotFound
	case errors.Is(err, entities.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, entities.ErrStorageUnavailable):
		return KindStorageUnavailable
	}
	return KindInternal
}

// NewError builds an Error event. Internal errors hide their message.
func NewError(err error) Error {
	kind := ErrorKind(err)
	msg := err.Error()
	if kind == KindInternal {
		msg = "internal error"
	}
	return Error{Kind: kind, Message: msg}
}

// EncodeEvent wraps an event in its envelope.
func EncodeEvent(ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: ev.Type(), Payload: payload}, nil
}
