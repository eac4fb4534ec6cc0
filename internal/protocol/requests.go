// Package protocol defines the messages exchanged between the reading view
// and the host. Every message is an envelope {"type": ..., "payload": ...};
// each type has exactly one Go payload type, and payloads are validated
// before they reach the reader.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mrlokans/zenreader/internal/entities"
)

// Request type names.
const (
	TypeReady          = "reader/ready"
	TypeOpenBook       = "library/openBook"
	TypeImportText     = "library/importText"
	TypeRemoveBook     = "library/removeBook"
	TypeRequestChapter = "reader/requestChapter"
	TypeUpdateProgress = "reader/updateProgress"
	TypeAddBookmark    = "bookmark/add"
	TypeRemoveBookmark = "bookmark/remove"
	TypeUpdateSettings = "settings/update"
)

// Envelope is the wire form of every message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is implemented only by the payload types in this file.
type Request interface {
	Type() string
	request()
}

type Ready struct{}

type OpenBook struct {
	BookID string
}

type ImportText struct {
	Title string
	Text  string
}

type RemoveBook struct {
	BookID string
}

type RequestChapter struct {
	BookID    string
	ChapterID string
	Append    bool
}

type UpdateProgress struct {
	BookID    string
	Mode      entities.ReaderMode
	ChapterID string
	Anchor    entities.Anchor
}

type AddBookmark struct {
	BookID    string
	ChapterID string
	Anchor    entities.Anchor
}

type RemoveBookmark struct {
	BookID     string
	BookmarkID string
}

type UpdateSettings struct {
	Patch entities.SettingsPatch
}

func (Ready) Type() string          { return TypeReady }
func (OpenBook) Type() string       { return TypeOpenBook }
func (ImportText) Type() string     { return TypeImportText }
func (RemoveBook) Type() string     { return TypeRemoveBook }
func (RequestChapter) Type() string { return TypeRequestChapter }
func (UpdateProgress) Type() string { return TypeUpdateProgress }
func (AddBookmark) Type() string    { return TypeAddBookmark }
func (RemoveBookmark) Type() string { return TypeRemoveBookmark }
func (UpdateSettings) Type() string { return TypeUpdateSettings }

func (Ready) request()          {}
func (OpenBook) request()       {}
func (ImportText) request()     {}
func (RemoveBook) request()     {}
func (RequestChapter) request() {}
func (UpdateProgress) request() {}
func (AddBookmark) request()    {}
func (RemoveBookmark) request() {}
func (UpdateSettings) request() {}

// DecodeRequest parses and validates an envelope. Unknown types, missing
// fields and mismatched anchors are rejected with an ErrInvalidInput kind.
func DecodeRequest(data []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidMessage, err)
	}
	return env.Decode()
}

// Decode validates the envelope's payload against its type.
func (env Envelope) Decode() (Request, error) {
	switch env.Type {
	case TypeReady:
		return Ready{}, nil

	case TypeOpenBook:
		var p struct {
			BookID string `json:"bookId"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if err := requireFields(env.Type, "bookId", p.BookID); err != nil {
			return nil, err
		}
		return OpenBook{BookID: p.BookID}, nil

	case TypeImportText:
		var p struct {
			Title string `json:"title"`
			Text  string `json:"text"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		return ImportText{Title: p.Title, Text: p.Text}, nil

	case TypeRemoveBook:
		var p struct {
			BookID string `json:"bookId"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if err := requireFields(env.Type, "bookId", p.BookID); err != nil {
			return nil, err
		}
		return RemoveBook{BookID: p.BookID}, nil

	case TypeRequestChapter:
		var p struct {
			BookID    string `json:"bookId"`
			ChapterID string `json:"chapterId"`
			Append    bool   `json:"append"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if err := requireFields(env.Type, "bookId", p.BookID, "chapterId", p.ChapterID); err != nil {
			return nil, err
		}
		return RequestChapter{BookID: p.BookID, ChapterID: p.ChapterID, Append: p.Append}, nil

	case TypeUpdateProgress:
		var p struct {
			BookID    string          `json:"bookId"`
			Mode      string          `json:"mode"`
			ChapterID string          `json:"chapterId"`
			Anchor    json.RawMessage `json:"anchor"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if err := requireFields(env.Type, "bookId", p.BookID, "chapterId", p.ChapterID); err != nil {
			return nil, err
		}
		mode, err := entities.ParseReaderMode(p.Mode)
		if err != nil {
			return nil, err
		}
		anchor, err := entities.ParseAnchorForMode(mode, p.Anchor)
		if err != nil {
			return nil, err
		}
		return UpdateProgress{BookID: p.BookID, Mode: mode, ChapterID: p.ChapterID, Anchor: anchor}, nil

	case TypeAddBookmark:
		var p struct {
			BookID    string          `json:"bookId"`
			ChapterID string          `json:"chapterId"`
			Anchor    json.RawMessage `json:"anchor"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if err := requireFields(env.Type, "bookId", p.BookID, "chapterId", p.ChapterID); err != nil {
			return nil, err
		}
		anchor, err := entities.ParseAnchor(p.Anchor)
		if err != nil {
			return nil, err
		}
		return AddBookmark{BookID: p.BookID, ChapterID: p.ChapterID, Anchor: anchor}, nil

	case TypeRemoveBookmark:
		var p struct {
			BookID     string `json:"bookId"`
			BookmarkID string `json:"bookmarkId"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if err := requireFields(env.Type, "bookId", p.BookID, "bookmarkId", p.BookmarkID); err != nil {
			return nil, err
		}
		return RemoveBookmark{BookID: p.BookID, BookmarkID: p.BookmarkID}, nil

	case TypeUpdateSettings:
		var p struct {
			Mode     *string  `json:"mode"`
			FontSize *float64 `json:"fontSize"`
		}
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		patch, err := settingsPatch(p.Mode, p.FontSize)
		if err != nil {
			return nil, err
		}
		return UpdateSettings{Patch: patch}, nil
	}

	return nil, fmt.Errorf("%w: unknown type %q", entities.ErrInvalidMessage, env.Type)
}

func settingsPatch(mode *string, fontSize *float64) (entities.SettingsPatch, error) {
	var patch entities.SettingsPatch
	if mode != nil {
		m, err := entities.ParseReaderMode(*mode)
		if err != nil {
			return patch, err
		}
		patch.Mode = &m
	}
	if fontSize != nil {
		if math.IsNaN(*fontSize) || math.IsInf(*fontSize, 0) {
			return patch, fmt.Errorf("%w: fontSize must be a number", entities.ErrInvalidMessage)
		}
		clamped := math.Min(math.Max(*fontSize, entities.MinFontSize), entities.MaxFontSize)
		size := entities.ClampFontSize(int(math.Round(clamped)))
		patch.FontSize = &size
	}
	return patch, nil
}

func decodePayload(env Envelope, v any) error {
	payload := bytes.TrimSpace(env.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return fmt.Errorf("%w: %s requires a payload", entities.ErrInvalidMessage, env.Type)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", entities.ErrInvalidMessage, env.Type, err)
	}
	return nil
}

// requireFields checks name/value pairs for empty values.
func requireFields(msgType string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s requires %s", entities.ErrInvalidMessage, msgType, pairs[i])
		}
	}
	return nil
}
