package entities

import (
	"strconv"
	"time"
)

// BookFormatText is the only source format the library imports.
const BookFormatText = "txt"

type Book struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:512" json:"title"`
	Format      string    `gorm:"size:16;default:'txt'" json:"format"`
	ContentHash string    `gorm:"index;size:64" json:"-"`
	Length      int       `json:"length"` // characters in the normalised text
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BookContent holds a book's normalised raw text. Created and destroyed
// together with the book's ChapterIndex.
type BookContent struct {
	BookID string `gorm:"primaryKey;size:36"`
	Text   string `gorm:"type:text"`
}

// ChapterIndex is the persisted, ordered chapter list derived at import.
type ChapterIndex struct {
	BookID   string    `gorm:"primaryKey;size:36"`
	Version  int       `gorm:"default:1"`
	Chapters []Chapter `gorm:"serializer:json;type:text"`
}

// Chapter is a half-open character range [Start, End) of a book's text.
// Offsets count runes, not bytes.
type Chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ChapterID derives the stable chapter identifier from its order.
func ChapterID(order int) string {
	return "c" + strconv.Itoa(order)
}

func (c Chapter) Len() int {
	return c.End - c.Start
}

func (Book) TableName() string {
	return "books"
}

func (BookContent) TableName() string {
	return "book_contents"
}

func (ChapterIndex) TableName() string {
	return "chapter_indexes"
}

// FindChapter returns the chapter with id, or false.
func FindChapter(chapters []Chapter, id string) (Chapter, bool) {
	for _, c := range chapters {
		if c.ID == id {
			return c, true
		}
	}
	return Chapter{}, false
}

// NextChapter returns the chapter following id by order.
func NextChapter(chapters []Chapter, id string) (Chapter, bool) {
	return adjacentChapter(chapters, id, 1)
}

// PrevChapter returns the chapter preceding id by order.
func PrevChapter(chapters []Chapter, id string) (Chapter, bool) {
	return adjacentChapter(chapters, id, -1)
}

func adjacentChapter(chapters []Chapter, id string, delta int) (Chapter, bool) {
	current, ok := FindChapter(chapters, id)
	if !ok {
		return Chapter{}, false
	}
	want := current.Order + delta
	for _, c := range chapters {
		if c.Order == want {
			return c, true
		}
	}
	return Chapter{}, false
}
