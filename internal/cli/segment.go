package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/library"
	"github.com/mrlokans/zenreader/internal/segmenter"
)

// SegmentCommand prints the chapters a text would be split into without
// touching the library.
type SegmentCommand struct {
	FilePath    string
	MinTitleGap int
	MaxTitleLen int
	ChunkSize   int
	JSON        bool

	Out io.Writer
}

func NewSegmentCommand() *SegmentCommand {
	return &SegmentCommand{Out: os.Stdout}
}

func (cmd *SegmentCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("segment", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a UTF-8 text file (required)")
	fs.IntVar(&cmd.MinTitleGap, "min-gap", segmenter.DefaultMinTitleGap, "Minimum characters between two chapter titles")
	fs.IntVar(&cmd.MaxTitleLen, "max-title", segmenter.DefaultMaxTitleLen, "Maximum length of a title line")
	fs.IntVar(&cmd.ChunkSize, "chunk", segmenter.DefaultChunkSize, "Chunk size when no titles are found")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the chapter index as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s segment -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show the chapters detected in a text file. Offsets are in characters\n")
		fmt.Fprintf(os.Stderr, "of the normalised text.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *SegmentCommand) Run() error {
	raw, err := readText(cmd.FilePath)
	if err != nil {
		return err
	}

	seg := segmenter.New(segmenter.Options{
		MinTitleGap: cmd.MinTitleGap,
		MaxTitleLen: cmd.MaxTitleLen,
		ChunkSize:   cmd.ChunkSize,
	})
	chapters := seg.Segment(library.NormalizeText(raw))

	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(chapters)
	}

	fmt.Fprintf(cmd.Out, "Chapters: %d\n", len(chapters))
	printChapters(cmd.Out, chapters)
	return nil
}

func printChapters(out io.Writer, chapters []entities.Chapter) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTART\tEND\tLENGTH")
	for _, ch := range chapters {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", ch.ID, ch.Title, ch.Start, ch.End, ch.End-ch.Start)
	}
	w.Flush()
}
