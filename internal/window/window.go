// Package window bounds the chapters rendered at once in continuous reading
// and decides when the next chapter should be fetched.
//
// The manager models layout as a vertical stack of chapter blocks with
// heights reported by the view. It never measures anything itself.
package window

import (
	"github.com/mrlokans/zenreader/internal/entities"
)

const (
	DefaultMaxChapters       = 3
	DefaultPrefetchThreshold = 240
	// DefaultAnchorSlack nudges the probe below the top edge so a block
	// scrolled flush with the viewport counts as visible.
	DefaultAnchorSlack = 8
)

type Config struct {
	MaxChapters       int
	PrefetchThreshold float64
	AnchorSlack       float64
}

// Block is one rendered chapter.
type Block struct {
	ChapterID string  `json:"chapterId"`
	Order     int     `json:"order"`
	Height    float64 `json:"height"`
}

// Viewport is the visible region of the scroll container.
type Viewport struct {
	ScrollTop    float64 `json:"scrollTop"`
	ClientHeight float64 `json:"clientHeight"`
}

// Manager is not safe for concurrent use; callers serialise access.
type Manager struct {
	cfg      Config
	blocks   []Block
	viewport Viewport
	loading  string // chapter being prefetched, "" when idle
}

func New(cfg Config) *Manager {
	if cfg.MaxChapters <= 0 {
		cfg.MaxChapters = DefaultMaxChapters
	}
	if cfg.PrefetchThreshold <= 0 {
		cfg.PrefetchThreshold = DefaultPrefetchThreshold
	}
	if cfg.AnchorSlack <= 0 {
		cfg.AnchorSlack = DefaultAnchorSlack
	}
	return &Manager{cfg: cfg}
}

// Reset clears the window, as when the reader jumps to a chapter rather
// than scrolling into it.
func (m *Manager) Reset() {
	m.blocks = nil
	m.viewport = Viewport{}
	m.loading = ""
}

// Append adds a chapter at the tail. While the window is over capacity the
// head block is evicted and the scroll offset moves up by its height so the
// visible content stays put. Returns the evicted blocks.
func (m *Manager) Append(b Block) []Block {
	if m.loading == b.ChapterID {
		m.loading = ""
	}
	for _, existing := range m.blocks {
		if existing.ChapterID == b.ChapterID {
			return nil
		}
	}
	m.blocks = append(m.blocks, b)

	var evicted []Block
	for len(m.blocks) > m.cfg.MaxChapters {
		head := m.blocks[0]
		m.blocks = m.blocks[1:]
		m.viewport.ScrollTop = max(0, m.viewport.ScrollTop-head.Height)
		evicted = append(evicted, head)
	}
	return evicted
}

// Measure records a block's rendered height. Unknown chapters are ignored.
func (m *Manager) Measure(chapterID string, height float64) bool {
	for i := range m.blocks {
		if m.blocks[i].ChapterID == chapterID {
			m.blocks[i].Height = max(0, height)
			return true
		}
	}
	return false
}

// Scroll records the current viewport.
func (m *Manager) Scroll(v Viewport) {
	v.ScrollTop = max(0, v.ScrollTop)
	v.ClientHeight = max(0, v.ClientHeight)
	m.viewport = v
}

func (m *Manager) Viewport() Viewport {
	return m.viewport
}

// ScrollHeight is the total height of rendered content.
func (m *Manager) ScrollHeight() float64 {
	var h float64
	for _, b := range m.blocks {
		h += b.Height
	}
	return h
}

// Loading reports the chapter currently being prefetched, if any.
func (m *Manager) Loading() (string, bool) {
	return m.loading, m.loading != ""
}

// ShouldPrefetch reports whether the unscrolled distance to the bottom of
// rendered content is within the threshold and no prefetch is in flight.
func (m *Manager) ShouldPrefetch() bool {
	if m.loading != "" || len(m.blocks) == 0 {
		return false
	}
	bottom := m.viewport.ScrollTop + m.viewport.ClientHeight
	return bottom >= m.ScrollHeight()-m.cfg.PrefetchThreshold
}

// BeginPrefetch picks the chapter after the last rendered one, by order, and
// marks it loading. It returns false when no fetch should start.
func (m *Manager) BeginPrefetch(chapters []entities.Chapter) (entities.Chapter, bool) {
	if !m.ShouldPrefetch() {
		return entities.Chapter{}, false
	}
	last := m.blocks[len(m.blocks)-1]
	next, ok := entities.NextChapter(chapters, last.ChapterID)
	if !ok {
		return entities.Chapter{}, false
	}
	m.loading = next.ID
	return next, true
}

// EndPrefetch clears the loading flag, for a fetch that failed or was
// superseded.
func (m *Manager) EndPrefetch() {
	m.loading = ""
}

// Rendered returns the chapter ids in the window, head first.
func (m *Manager) Rendered() []string {
	ids := make([]string, len(m.blocks))
	for i, b := range m.blocks {
		ids[i] = b.ChapterID
	}
	return ids
}

func (m *Manager) Len() int {
	return len(m.blocks)
}

// AnchorAt finds the block at the top of the viewport and the position
// within it as a ratio of its height.
func (m *Manager) AnchorAt(scrollTop float64) (string, entities.Anchor, bool) {
	if len(m.blocks) == 0 {
		return "", entities.Anchor{}, false
	}
	probe := scrollTop + m.cfg.AnchorSlack

	active, activeTop := m.blocks[0], 0.0
	top := 0.0
	for _, b := range m.blocks {
		if top > probe {
			break
		}
		active, activeTop = b, top
		top += b.Height
	}

	ratio := 0.0
	if active.Height > 0 {
		ratio = (probe - activeTop) / active.Height
	}
	return active.ChapterID, entities.ScrollAnchor(ratio), true
}

// Anchor is AnchorAt for the current viewport.
func (m *Manager) Anchor() (string, entities.Anchor, bool) {
	return m.AnchorAt(m.viewport.ScrollTop)
}

// ScrollTopFor returns the scroll offset that shows chapterID at anchor.
func (m *Manager) ScrollTopFor(chapterID string, anchor entities.Anchor) (float64, bool) {
	top := 0.0
	for _, b := range m.blocks {
		if b.ChapterID == chapterID {
			h := b.Height
			if h <= 0 {
				h = 1
			}
			return top + anchor.Ratio()*h, true
		}
		top += b.Height
	}
	return 0, false
}
