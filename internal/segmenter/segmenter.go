package segmenter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/zenreader/internal/entities"
)

const (
	DefaultMinTitleGap = 300
	DefaultMaxTitleLen = 40
	DefaultChunkSize   = 12000
	DefaultMinTitles   = 3

	DefaultClosingPunct = "。！？!?"
	DefaultPreludeTitle = "Start"
)

// Heading shapes recognised as chapter boundaries. Separators accept any
// Unicode space, including the ideographic space U+3000.
var DefaultPatterns = []*regexp.Regexp{
	// "第十二章 ...", "第 3 回", "第两百卷"
	regexp.MustCompile(`^第[\s\p{Zs}]*[0-9０-９零一二三四五六七八九十百千万两]+?[\s\p{Zs}]*[章回节卷部篇][\s\p{Zs}]*.*$`),
	// Structural labels
	regexp.MustCompile(`^(序章|楔子|引子|前言|后记|番外|尾声|终章)[\s\p{Zs}]*.*$`),
	// "卷三 ..."
	regexp.MustCompile(`^卷[\s\p{Zs}]*[0-9０-９零一二三四五六七八九十百千万两]+[\s\p{Zs}]*.*$`),
	// "Chapter 12", "PART IV: The Return", "Book One"
	regexp.MustCompile(`(?i)^(chapter|volume|part|book|section)[\s\p{Zs}]+([0-9]+|[ivxlcdm]+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b.*$`),
	regexp.MustCompile(`(?i)^(prologue|epilogue|interlude|preface|foreword|afterword|introduction)\b.*$`),
}

// Options tunes title detection and the chunk fallback. Zero values fall
// back to the defaults.
type Options struct {
	MinTitleGap  int
	MaxTitleLen  int
	ChunkSize    int
	MinTitles    int
	Patterns     []*regexp.Regexp
	ClosingPunct string
	PreludeTitle string
}

func DefaultOptions() Options {
	return Options{
		MinTitleGap:  DefaultMinTitleGap,
		MaxTitleLen:  DefaultMaxTitleLen,
		ChunkSize:    DefaultChunkSize,
		MinTitles:    DefaultMinTitles,
		Patterns:     DefaultPatterns,
		ClosingPunct: DefaultClosingPunct,
		PreludeTitle: DefaultPreludeTitle,
	}
}

// Segmenter splits raw text into contiguous chapter ranges. It holds no
// mutable state and is safe for concurrent use.
type Segmenter struct {
	opts Options
}

func New(opts Options) *Segmenter {
	def := DefaultOptions()
	if opts.MinTitleGap <= 0 {
		opts.MinTitleGap = def.MinTitleGap
	}
	if opts.MaxTitleLen <= 0 {
		opts.MaxTitleLen = def.MaxTitleLen
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.MinTitles <= 0 {
		opts.MinTitles = def.MinTitles
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = def.Patterns
	}
	if opts.ClosingPunct == "" {
		opts.ClosingPunct = def.ClosingPunct
	}
	if opts.PreludeTitle == "" {
		opts.PreludeTitle = def.PreludeTitle
	}
	return &Segmenter{opts: opts}
}

var defaultSegmenter = New(DefaultOptions())

// Segment splits text with the default options.
func Segment(text string) []entities.Chapter {
	return defaultSegmenter.Segment(text)
}

type title struct {
	text  string
	start int
}

// Segment returns the chapters of text ordered by Order. Offsets are rune
// offsets. Empty text yields no chapters.
func (s *Segmenter) Segment(text string) []entities.Chapter {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return nil
	}

	titles := s.detectTitles(text)
	if len(titles) < s.opts.MinTitles {
		return s.chunk(total)
	}

	chapters := make([]entities.Chapter, 0, len(titles)+1)
	if titles[0].start > 0 {
		chapters = append(chapters, entities.Chapter{
			ID:    entities.ChapterID(0),
			Title: s.opts.PreludeTitle,
			Order: 0,
			Start: 0,
			End:   titles[0].start,
		})
	}

	for i, t := range titles {
		end := total
		if i+1 < len(titles) {
			end = titles[i+1].start
		}
		order := len(chapters)
		chapters = append(chapters, entities.Chapter{
			ID:    entities.ChapterID(order),
			Title: t.text,
			Order: order,
			Start: t.start,
			End:   end,
		})
	}

	return chapters
}

func (s *Segmenter) detectTitles(text string) []title {
	var titles []title
	offset := 0

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if s.IsTitleCandidate(trimmed) {
			if len(titles) == 0 || offset-titles[len(titles)-1].start >= s.opts.MinTitleGap {
				titles = append(titles, title{text: trimmed, start: offset})
			}
		}
		offset += utf8.RuneCountInString(line) + 1
	}

	return titles
}

// IsTitleCandidate reports whether a trimmed line looks like a heading.
func (s *Segmenter) IsTitleCandidate(line string) bool {
	if line == "" {
		return false
	}
	if utf8.RuneCountInString(line) > s.opts.MaxTitleLen {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(line)
	if strings.ContainsRune(s.opts.ClosingPunct, last) {
		return false
	}
	for _, re := range s.opts.Patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func (s *Segmenter) chunk(total int) []entities.Chapter {
	var chapters []entities.Chapter
	for start, order := 0, 0; start < total; order++ {
		end := min(total, start+s.opts.ChunkSize)
		chapters = append(chapters, entities.Chapter{
			ID:    entities.ChapterID(order),
			Title: fmt.Sprintf("Section %d", order+1),
			Order: order,
			Start: start,
			End:   end,
		})
		start = end
	}
	return chapters
}
