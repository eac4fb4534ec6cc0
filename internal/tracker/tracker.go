// Package tracker holds the reader's current position in an open book and
// persists it through a debounced, deduplicated save.
package tracker

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/zenreader/internal/entities"
)

const (
	DefaultSaveDelay       = 150 * time.Millisecond
	DefaultScrollSaveDelay = 600 * time.Millisecond
)

var ErrNoBookOpen = fmt.Errorf("%w: no book open", entities.ErrInvalidInput)

// Status is the tracker's state machine position.
type Status int

const (
	StatusIdle Status = iota
	StatusOpen
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusPending:
		return "pending"
	}
	return "idle"
}

// Timer is the subset of *time.Timer the tracker needs.
type Timer interface {
	Stop() bool
}

// SaveFunc writes a book's progress. It is called with the tracker's lock
// held and must not call back into the tracker.
type SaveFunc func(p entities.ReadingProgress) error

type Config struct {
	SaveDelay       time.Duration
	ScrollSaveDelay time.Duration
}

// Navigation is a chapter request awaiting content. Token correlates the
// request with the content that eventually arrives.
type Navigation struct {
	Token     uint64
	BookID    string
	ChapterID string
	Anchor    *entities.Anchor
}

// Snapshot is a copy of the tracker state.
type Snapshot struct {
	Status    Status
	BookID    string
	Mode      entities.ReaderMode
	ChapterID string
	Anchor    *entities.Anchor
	Pending   *Navigation
}

type Tracker struct {
	save  SaveFunc
	cfg   Config
	after func(d time.Duration, f func()) Timer
	now   func() time.Time

	mu        sync.Mutex
	open      bool
	bookID    string
	mode      entities.ReaderMode
	chapters  []entities.Chapter
	chapterID string
	anchor    *entities.Anchor // nil means the chapter start
	pending   *Navigation
	token     uint64
	timer     Timer
	lastKey   string
}

func New(save SaveFunc, cfg Config) *Tracker {
	if cfg.SaveDelay <= 0 {
		cfg.SaveDelay = DefaultSaveDelay
	}
	if cfg.ScrollSaveDelay <= 0 {
		cfg.ScrollSaveDelay = DefaultScrollSaveDelay
	}
	return &Tracker{
		save: save,
		cfg:  cfg,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
}

// Open seeds the tracker for a book and returns the navigation to the resume
// point. A recorded chapter missing from chapters resumes at the first
// chapter; an anchor captured under the other mode is dropped.
func (t *Tracker) Open(bookID string, mode entities.ReaderMode, chapters []entities.Chapter, saved *entities.ReadingProgress) Navigation {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimerLocked()
	t.open = true
	t.bookID = bookID
	t.mode = mode
	t.chapters = chapters
	t.chapterID = ""
	t.anchor = nil
	t.lastKey = ""

	chapterID := ""
	if len(chapters) > 0 {
		chapterID = chapters[0].ID
	}
	var anchor *entities.Anchor
	if saved != nil {
		t.lastKey = saved.Key()
		if _, ok := entities.FindChapter(chapters, saved.ChapterID); ok {
			chapterID = saved.ChapterID
			anchor = entities.AnchorFor(mode, &saved.Anchor)
		} else {
			log.Printf("[tracker] book %s: saved chapter %s no longer exists, starting at %s", bookID, saved.ChapterID, chapterID)
		}
	}
	t.chapterID = chapterID
	return t.beginLocked(chapterID, anchor)
}

// Navigate replaces any pending navigation with a request for chapterID.
// An anchor of the wrong variant for the active mode is dropped.
func (t *Tracker) Navigate(chapterID string, anchor *entities.Anchor) (Navigation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return Navigation{}, ErrNoBookOpen
	}
	if _, ok := entities.FindChapter(t.chapters, chapterID); !ok {
		return Navigation{}, entities.ErrChapterNotFound
	}
	return t.beginLocked(chapterID, entities.AnchorFor(t.mode, anchor)), nil
}

func (t *Tracker) beginLocked(chapterID string, anchor *entities.Anchor) Navigation {
	t.token++
	nav := Navigation{Token: t.token, BookID: t.bookID, ChapterID: chapterID, Anchor: anchor}
	t.pending = &nav
	return nav
}

// Arrive reports content for chapterID fetched under token. It resolves the
// pending navigation only when both match; anything else is stale and
// returns false.
func (t *Tracker) Arrive(token uint64, chapterID string) (Navigation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil || t.pending.Token != token || t.pending.ChapterID != chapterID {
		return Navigation{}, false
	}
	nav := *t.pending
	t.pending = nil
	t.chapterID = nav.ChapterID
	t.anchor = nav.Anchor
	return nav, true
}

// Observe records the position the reader is looking at. It only updates
// memory; CommitSave persists it. chapterID may name another chapter in
// continuous mode, where several chapters are visible.
func (t *Tracker) Observe(chapterID string, anchor entities.Anchor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return ErrNoBookOpen
	}
	if !anchor.Matches(t.mode) {
		return entities.ErrAnchorMode
	}
	if chapterID == "" {
		chapterID = t.chapterID
	}
	if _, ok := entities.FindChapter(t.chapters, chapterID); !ok {
		return entities.ErrChapterNotFound
	}
	t.chapterID = chapterID
	t.anchor = &anchor
	return nil
}

// CommitSave schedules a save of the current position. Explicit navigation
// uses the short delay, continuous scrolling the long one. A new call
// replaces the pending timer.
func (t *Tracker) CommitSave(immediate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return
	}
	delay := t.cfg.ScrollSaveDelay
	if immediate {
		delay = t.cfg.SaveDelay
	}
	t.stopTimerLocked()

	var timer Timer
	timer = t.after(delay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.timer != timer {
			return
		}
		t.timer = nil
		t.persistLocked()
	})
	t.timer = timer
}

// Flush persists the current position now, cancelling any pending timer.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimerLocked()
	return t.persistLocked()
}

// SwitchMode changes the active mode and returns a navigation re-requesting
// the current chapter. Positions never convert between modes, so the chapter
// reopens at its start until the reader's new position is observed.
func (t *Tracker) SwitchMode(mode entities.ReaderMode) (Navigation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return Navigation{}, ErrNoBookOpen
	}
	if !mode.Valid() {
		return Navigation{}, entities.ErrInvalidMode
	}
	t.stopTimerLocked()
	t.mode = mode
	t.anchor = nil
	chapterID := t.chapterID
	if t.pending != nil {
		chapterID = t.pending.ChapterID
	}
	return t.beginLocked(chapterID, nil), nil
}

// Close flushes the pending save and returns the tracker to idle.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimerLocked()
	err := t.persistLocked()
	t.open = false
	t.pending = nil
	t.chapters = nil
	return err
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Status:    StatusIdle,
		BookID:    t.bookID,
		Mode:      t.mode,
		ChapterID: t.chapterID,
	}
	if !t.open {
		return s
	}
	s.Status = StatusOpen
	if t.anchor != nil {
		a := *t.anchor
		s.Anchor = &a
	}
	if t.pending != nil {
		nav := *t.pending
		s.Pending = &nav
		s.Status = StatusPending
	}
	return s
}

func (t *Tracker) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Tracker) progressLocked() entities.ReadingProgress {
	anchor := startOf(t.mode)
	if t.anchor != nil {
		anchor = *t.anchor
	}
	return entities.ReadingProgress{
		BookID:    t.bookID,
		Mode:      t.mode,
		ChapterID: t.chapterID,
		Anchor:    anchor,
	}
}

// persistLocked writes the current position unless it equals the last
// successful write. A failed write leaves lastKey alone so the next commit
// retries.
func (t *Tracker) persistLocked() error {
	if !t.open || t.chapterID == "" {
		return nil
	}
	p := t.progressLocked()
	key := p.Key()
	if key == t.lastKey {
		return nil
	}
	p.UpdatedAt = t.now()
	if err := t.save(p); err != nil {
		log.Printf("[tracker] failed to save progress for %s: %v", t.bookID, err)
		return err
	}
	t.lastKey = key
	return nil
}

func startOf(mode entities.ReaderMode) entities.Anchor {
	if mode == entities.ModeScroll {
		return entities.ScrollAnchor(0)
	}
	return entities.PagedAnchor(0)
}
