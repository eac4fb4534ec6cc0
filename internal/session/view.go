// Package session runs one reading view per open book. Each view is an
// actor: a goroutine draining a FIFO inbox, so tracker and window state are
// only ever mutated from one place. Chapter fetches run off the actor and
// post their results back, tagged with the navigation token that asked.
package session

import (
	"fmt"
	"log"
	"sync"

	"github.com/mrlokans/zenreader/internal/bookmarks"
	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/protocol"
	"github.com/mrlokans/zenreader/internal/tracker"
	"github.com/mrlokans/zenreader/internal/window"
)

var ErrClosed = fmt.Errorf("view closed: %w", entities.ErrNotFound)

const inboxSize = 64

// Host is the slice of the reader service a view needs.
type Host interface {
	OpenBook(bookID string) (protocol.OpenBookResult, error)
	RequestChapter(bookID, chapterID string, appendTo bool) (protocol.ChapterContent, error)
	UpdateProgress(bookID string, mode entities.ReaderMode, chapterID string, anchor entities.Anchor) (entities.ReadingProgress, error)
	AddBookmark(bookID, chapterID string, anchor entities.Anchor) (protocol.BookmarksChanged, error)
	FindBookmark(bookID, bookmarkID string) (entities.Bookmark, error)
}

type Config struct {
	Tracker tracker.Config
	Window  window.Config
}

// State is a copy of a view's position and layout.
type State struct {
	ID        string              `json:"id"`
	BookID    string              `json:"bookId"`
	Mode      entities.ReaderMode `json:"mode"`
	Status    string              `json:"status"`
	ChapterID string              `json:"chapterId"`
	Anchor    *entities.Anchor    `json:"anchor,omitempty"`
	Rendered  []string            `json:"rendered,omitempty"`
	Viewport  window.Viewport     `json:"viewport"`
}

type View struct {
	id   string
	host Host

	// Owned by the actor goroutine.
	bookID   string
	mode     entities.ReaderMode
	chapters []entities.Chapter
	tracker  *tracker.Tracker
	window   *window.Manager
	gen      uint64 // bumped whenever the window is reset

	inbox   chan func()
	done    chan struct{}
	closing sync.Once
	fetches sync.WaitGroup

	outMu  sync.Mutex
	outbox []protocol.Event
}

// newView starts the actor. The tracker saves through host.
func newView(id string, host Host, cfg Config) *View {
	v := &View{
		id:     id,
		host:   host,
		window: window.New(cfg.Window),
		inbox:  make(chan func(), inboxSize),
		done:   make(chan struct{}),
	}
	v.tracker = tracker.New(func(p entities.ReadingProgress) error {
		_, err := host.UpdateProgress(p.BookID, p.Mode, p.ChapterID, p.Anchor)
		return err
	}, cfg.Tracker)
	go v.run()
	return v
}

func (v *View) ID() string {
	return v.id
}

func (v *View) run() {
	for {
		select {
		case fn := <-v.inbox:
			fn()
		case <-v.done:
			return
		}
	}
}

func (v *View) post(fn func()) bool {
	select {
	case <-v.done:
		return false
	default:
	}
	select {
	case v.inbox <- fn:
		return true
	case <-v.done:
		return false
	}
}

// call runs fn on the actor and waits for it.
func (v *View) call(fn func()) error {
	finished := make(chan struct{})
	if !v.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-v.done:
		return ErrClosed
	}
}

func (v *View) emit(ev protocol.Event) {
	v.outMu.Lock()
	v.outbox = append(v.outbox, ev)
	v.outMu.Unlock()
}

// Events drains the events produced since the last call.
func (v *View) Events() []protocol.Event {
	v.outMu.Lock()
	defer v.outMu.Unlock()
	out := v.outbox
	v.outbox = nil
	return out
}

// Sync waits until every in-flight chapter fetch has been applied.
func (v *View) Sync() error {
	v.fetches.Wait()
	return v.call(func() {})
}

// Open loads a book and navigates to its resume point.
func (v *View) Open(bookID string, mode entities.ReaderMode) (protocol.OpenBookResult, error) {
	if !mode.Valid() {
		return protocol.OpenBookResult{}, entities.ErrInvalidMode
	}
	var (
		result protocol.OpenBookResult
		err    error
	)
	callErr := v.call(func() {
		result, err = v.host.OpenBook(bookID)
		if err != nil {
			return
		}
		if v.bookID != "" {
			if flushErr := v.tracker.Flush(); flushErr != nil {
				log.Printf("[session] view %s: %v", v.id, flushErr)
			}
		}
		v.bookID = bookID
		v.mode = mode
		v.chapters = result.Chapters
		v.resetWindow()
		v.emit(result)
		nav := v.tracker.Open(bookID, mode, result.Chapters, result.Progress)
		if nav.ChapterID != "" {
			v.fetch(nav)
		}
	})
	if callErr != nil {
		return result, callErr
	}
	return result, err
}

// Navigate jumps to a chapter. An anchor for the other mode is ignored.
func (v *View) Navigate(chapterID string, anchor *entities.Anchor) (tracker.Navigation, error) {
	var (
		nav tracker.Navigation
		err error
	)
	callErr := v.call(func() {
		nav, err = v.tracker.Navigate(chapterID, anchor)
		if err == nil {
			v.fetch(nav)
		}
	})
	if callErr != nil {
		return nav, callErr
	}
	return nav, err
}

// NextChapter and PrevChapter step through the book by chapter order.
func (v *View) NextChapter() (tracker.Navigation, error) {
	return v.step(entities.NextChapter)
}

func (v *View) PrevChapter() (tracker.Navigation, error) {
	return v.step(entities.PrevChapter)
}

func (v *View) step(pick func([]entities.Chapter, string) (entities.Chapter, bool)) (tracker.Navigation, error) {
	var (
		nav tracker.Navigation
		err error
	)
	callErr := v.call(func() {
		current := v.tracker.Snapshot()
		if current.Pending != nil {
			current.ChapterID = current.Pending.ChapterID
		}
		target, ok := pick(v.chapters, current.ChapterID)
		if !ok {
			err = entities.ErrChapterNotFound
			return
		}
		nav, err = v.tracker.Navigate(target.ID, nil)
		if err == nil {
			v.fetch(nav)
		}
	})
	if callErr != nil {
		return nav, callErr
	}
	return nav, err
}

// OpenBookmark navigates to a bookmark. A bookmark saved under the other
// mode opens its chapter at the start.
func (v *View) OpenBookmark(bookmarkID string) (tracker.Navigation, error) {
	var (
		nav tracker.Navigation
		err error
	)
	callErr := v.call(func() {
		if v.bookID == "" {
			err = tracker.ErrNoBookOpen
			return
		}
		var bm entities.Bookmark
		bm, err = v.host.FindBookmark(v.bookID, bookmarkID)
		if err != nil {
			return
		}
		chapterID, anchor := bookmarks.Resolve(bm, v.mode)
		if _, ok := entities.FindChapter(v.chapters, chapterID); !ok && len(v.chapters) > 0 {
			chapterID, anchor = v.chapters[0].ID, nil
		}
		nav, err = v.tracker.Navigate(chapterID, anchor)
		if err == nil {
			v.fetch(nav)
		}
	})
	if callErr != nil {
		return nav, callErr
	}
	return nav, err
}

// Observe records the page the reader turned to in paged mode.
func (v *View) Observe(anchor entities.Anchor) error {
	var err error
	callErr := v.call(func() {
		err = v.tracker.Observe("", anchor)
		if err == nil {
			v.tracker.CommitSave(true)
		}
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Scroll records the viewport in continuous mode, derives the reader's
// position from the rendered blocks and prefetches the next chapter when
// the bottom is near.
func (v *View) Scroll(vp window.Viewport) error {
	var err error
	callErr := v.call(func() {
		if v.mode != entities.ModeScroll {
			err = entities.ErrAnchorMode
			return
		}
		v.window.Scroll(vp)
		if chapterID, anchor, ok := v.window.Anchor(); ok {
			if obsErr := v.tracker.Observe(chapterID, anchor); obsErr == nil {
				v.tracker.CommitSave(false)
			}
		}
		v.maybePrefetch()
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Measure records a rendered block's height.
func (v *View) Measure(chapterID string, height float64) error {
	var err error
	callErr := v.call(func() {
		if !v.window.Measure(chapterID, height) {
			err = entities.ErrChapterNotFound
			return
		}
		v.maybePrefetch()
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// SwitchMode changes the view's mode and re-requests the current chapter.
func (v *View) SwitchMode(mode entities.ReaderMode) (tracker.Navigation, error) {
	var (
		nav tracker.Navigation
		err error
	)
	callErr := v.call(func() {
		nav, err = v.tracker.SwitchMode(mode)
		if err != nil {
			return
		}
		v.mode = mode
		v.resetWindow()
		v.fetch(nav)
	})
	if callErr != nil {
		return nav, callErr
	}
	return nav, err
}

// AddBookmark bookmarks the reader's current position.
func (v *View) AddBookmark() (protocol.BookmarksChanged, error) {
	var (
		changed protocol.BookmarksChanged
		err     error
	)
	callErr := v.call(func() {
		snap := v.tracker.Snapshot()
		if snap.Status == tracker.StatusIdle || snap.ChapterID == "" {
			err = tracker.ErrNoBookOpen
			return
		}
		anchor := entities.PagedAnchor(0)
		if v.mode == entities.ModeScroll {
			anchor = entities.ScrollAnchor(0)
		}
		if snap.Anchor != nil {
			anchor = *snap.Anchor
		}
		changed, err = v.host.AddBookmark(v.bookID, snap.ChapterID, anchor)
		if err == nil {
			v.emit(changed)
		}
	})
	if callErr != nil {
		return changed, callErr
	}
	return changed, err
}

// State returns a snapshot of the view.
func (v *View) State() (State, error) {
	var st State
	err := v.call(func() {
		snap := v.tracker.Snapshot()
		st = State{
			ID:        v.id,
			BookID:    v.bookID,
			Mode:      v.mode,
			Status:    snap.Status.String(),
			ChapterID: snap.ChapterID,
			Anchor:    snap.Anchor,
			Rendered:  v.window.Rendered(),
			Viewport:  v.window.Viewport(),
		}
	})
	return st, err
}

// Close flushes the pending save and stops the actor.
func (v *View) Close() error {
	var err error
	callErr := v.call(func() {
		err = v.tracker.Close()
	})
	v.closing.Do(func() { close(v.done) })
	if callErr != nil {
		return nil
	}
	return err
}

func (v *View) resetWindow() {
	v.window.Reset()
	v.gen++
}

// fetch loads a navigation's chapter off the actor.
func (v *View) fetch(nav tracker.Navigation) {
	bookID := v.bookID
	v.fetches.Add(1)
	go func() {
		defer v.fetches.Done()
		content, err := v.host.RequestChapter(bookID, nav.ChapterID, false)
		v.post(func() { v.arrive(nav, content, err) })
	}()
}

func (v *View) arrive(nav tracker.Navigation, content protocol.ChapterContent, err error) {
	if err != nil {
		snap := v.tracker.Snapshot()
		if snap.Pending != nil && snap.Pending.Token == nav.Token {
			log.Printf("[session] view %s: failed to load %s: %v", v.id, nav.ChapterID, err)
			v.emit(protocol.NewError(err))
		}
		return
	}
	resolved, ok := v.tracker.Arrive(nav.Token, content.ChapterID)
	if !ok {
		// Superseded by a newer navigation.
		return
	}

	if v.mode == entities.ModeScroll {
		v.resetWindow()
		order := 0
		if ch, found := entities.FindChapter(v.chapters, content.ChapterID); found {
			order = ch.Order
		}
		v.window.Append(window.Block{ChapterID: content.ChapterID, Order: order})
	}

	content.Token = resolved.Token
	content.Anchor = resolved.Anchor
	v.emit(content)
	v.tracker.CommitSave(true)
}

func (v *View) maybePrefetch() {
	next, ok := v.window.BeginPrefetch(v.chapters)
	if !ok {
		return
	}
	bookID, gen := v.bookID, v.gen
	v.fetches.Add(1)
	go func() {
		defer v.fetches.Done()
		content, err := v.host.RequestChapter(bookID, next.ID, true)
		v.post(func() { v.appendArrived(gen, next, content, err) })
	}()
}

func (v *View) appendArrived(gen uint64, ch entities.Chapter, content protocol.ChapterContent, err error) {
	if gen != v.gen || v.mode != entities.ModeScroll {
		return
	}
	if err != nil {
		v.window.EndPrefetch()
		log.Printf("[session] view %s: failed to prefetch %s: %v", v.id, ch.ID, err)
		v.emit(protocol.NewError(err))
		return
	}

	evicted := v.window.Append(window.Block{ChapterID: ch.ID, Order: ch.Order})
	content.Append = true
	v.emit(content)

	changed := protocol.WindowChanged{
		BookID:    v.bookID,
		Rendered:  v.window.Rendered(),
		ScrollTop: v.window.Viewport().ScrollTop,
	}
	for _, b := range evicted {
		changed.Evicted = append(changed.Evicted, b.ChapterID)
	}
	v.emit(changed)
}
