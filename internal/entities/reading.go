package entities

import "time"

// ReadingProgress is the single resume point kept per book. It is
// overwritten in place on every committed anchor change.
type ReadingProgress struct {
	BookID    string     `gorm:"primaryKey;size:36" json:"bookId"`
	Mode      ReaderMode `gorm:"size:16" json:"mode"`
	ChapterID string     `gorm:"size:32" json:"chapterId"`
	Anchor    Anchor     `gorm:"serializer:json;type:text" json:"anchor"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}

// Key is the composite identity used to skip redundant writes.
func (p ReadingProgress) Key() string {
	return p.BookID + "|" + string(p.Mode) + "|" + p.ChapterID + "|" + p.Anchor.Key()
}

// Bookmark is a user-created, labelled anchor. Bookmarks are never edited,
// only added and removed.
type Bookmark struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BookID    string    `gorm:"index;size:36" json:"bookId"`
	ChapterID string    `gorm:"size:32" json:"chapterId"`
	Anchor    Anchor    `gorm:"serializer:json;type:text" json:"anchor"`
	Label     string    `gorm:"size:512" json:"label,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

const (
	MinFontSize     = 12
	MaxFontSize     = 28
	DefaultFontSize = 16
)

// ReaderSettings are process-wide defaults for new reading sessions.
type ReaderSettings struct {
	Mode     ReaderMode `json:"mode"`
	FontSize int        `json:"fontSize"`
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	Mode     *ReaderMode `json:"mode,omitempty"`
	FontSize *int        `json:"fontSize,omitempty"`
}

func (p SettingsPatch) Empty() bool {
	return p.Mode == nil && p.FontSize == nil
}

// ClampFontSize bounds a font size to the supported range.
func ClampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// LibraryState is the library document: settings and imported books.
type LibraryState struct {
	Version  int            `json:"version"`
	Settings ReaderSettings `json:"settings"`
	Books    []Book         `json:"books"`
}

// SessionState is the session document: the last opened book and the
// resume point for every book.
type SessionState struct {
	Version        int                        `json:"version"`
	LastBookID     string                     `json:"lastBookId,omitempty"`
	ProgressByBook map[string]ReadingProgress `json:"progressByBook"`
}
