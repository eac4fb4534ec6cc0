package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ReaderMode is the presentation a chapter is rendered under.
type ReaderMode string

const (
	ModePaged  ReaderMode = "paged"
	ModeScroll ReaderMode = "scroll"
)

// ParseReaderMode accepts only the known modes.
func ParseReaderMode(s string) (ReaderMode, error) {
	switch ReaderMode(s) {
	case ModePaged, ModeScroll:
		return ReaderMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m ReaderMode) Valid() bool {
	return m == ModePaged || m == ModeScroll
}

// Anchor is a position inside a chapter, tagged with the mode it was captured
// under. Paged anchors carry a page index, scroll anchors a ratio of the
// chapter's rendered height. Values are immutable and always clamped.
// The two variants never convert into each other.
type Anchor struct {
	mode      ReaderMode
	pageIndex int
	ratio     float64
}

// PagedAnchor returns a paged anchor; negative indexes clamp to 0.
func PagedAnchor(pageIndex int) Anchor {
	if pageIndex < 0 {
		pageIndex = 0
	}
	return Anchor{mode: ModePaged, pageIndex: pageIndex}
}

// ScrollAnchor returns a scroll anchor with ratio clamped to [0, 1].
// NaN is treated as the chapter start.
func ScrollAnchor(ratio float64) Anchor {
	return Anchor{mode: ModeScroll, ratio: clampRatio(ratio)}
}

func clampRatio(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func (a Anchor) Mode() ReaderMode { return a.mode }
func (a Anchor) PageIndex() int   { return a.pageIndex }
func (a Anchor) Ratio() float64   { return a.ratio }
func (a Anchor) IsZero() bool     { return a.mode == "" }

// Matches reports whether the anchor was captured under mode.
func (a Anchor) Matches(mode ReaderMode) bool {
	return !a.IsZero() && a.mode == mode
}

// AnchorFor returns a only when it belongs to mode. A mismatched anchor is
// treated as absent: callers open the chapter at its start.
func AnchorFor(mode ReaderMode, a *Anchor) *Anchor {
	if a == nil || !a.Matches(mode) {
		return nil
	}
	out := *a
	return &out
}

// Key is a stable serialisation used for persistence dedup.
func (a Anchor) Key() string {
	switch a.mode {
	case ModePaged:
		return "paged:" + strconv.Itoa(a.pageIndex)
	case ModeScroll:
		return "scroll:" + strconv.FormatFloat(a.ratio, 'g', -1, 64)
	}
	return ""
}

// Label describes the anchor for a bookmark list.
func (a Anchor) Label(chapterTitle string) string {
	if a.mode == ModePaged {
		return fmt.Sprintf("%s · page %d", chapterTitle, a.pageIndex+1)
	}
	return fmt.Sprintf("%s · %d%%", chapterTitle, int(math.Round(a.ratio*100)))
}

func (a Anchor) String() string {
	if a.IsZero() {
		return "<none>"
	}
	return a.Key()
}

type anchorWire struct {
	Type      string   `json:"type"`
	PageIndex *float64 `json:"pageIndex,omitempty"`
	Ratio     *float64 `json:"ratio,omitempty"`
}

func (a Anchor) MarshalJSON() ([]byte, error) {
	switch a.mode {
	case ModePaged:
		idx := float64(a.pageIndex)
		return json.Marshal(anchorWire{Type: string(ModePaged), PageIndex: &idx})
	case ModeScroll:
		r := a.ratio
		return json.Marshal(anchorWire{Type: string(ModeScroll), Ratio: &r})
	}
	return []byte("null"), nil
}

func (a *Anchor) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Anchor{}
		return nil
	}
	parsed, err := ParseAnchor(data)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAnchor decodes either variant. Fractional page indexes truncate and
// out-of-range values clamp; non-finite numbers are rejected.
func ParseAnchor(data []byte) (Anchor, error) {
	var w anchorWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Anchor{}, fmt.Errorf("%w: %v", ErrInvalidAnchor, err)
	}

	switch ReaderMode(w.Type) {
	case ModePaged:
		if w.PageIndex == nil || !isFinite(*w.PageIndex) {
			return Anchor{}, fmt.Errorf("%w: pageIndex is required", ErrInvalidAnchor)
		}
		return PagedAnchor(pageIndexOf(*w.PageIndex)), nil
	case ModeScroll:
		if w.Ratio == nil || !isFinite(*w.Ratio) {
			return Anchor{}, fmt.Errorf("%w: ratio is required", ErrInvalidAnchor)
		}
		return ScrollAnchor(*w.Ratio), nil
	}
	return Anchor{}, fmt.Errorf("%w: unknown type %q", ErrInvalidAnchor, w.Type)
}

// ParseAnchorForMode decodes an anchor that must belong to mode.
func ParseAnchorForMode(mode ReaderMode, data []byte) (Anchor, error) {
	a, err := ParseAnchor(data)
	if err != nil {
		return Anchor{}, err
	}
	if !a.Matches(mode) {
		return Anchor{}, fmt.Errorf("%w: got %s, want %s", ErrAnchorMode, a.mode, mode)
	}
	return a, nil
}

// MaxPageIndex caps decoded page indexes so huge numbers cannot overflow int.
const MaxPageIndex = math.MaxInt32

// pageIndexOf clamps before converting to int.
func pageIndexOf(f float64) int {
	f = math.Trunc(f)
	if f < 0 {
		return 0
	}
	if f > MaxPageIndex {
		return MaxPageIndex
	}
	return int(f)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
