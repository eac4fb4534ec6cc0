package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/zenreader/internal/config"
	"github.com/mrlokans/zenreader/internal/database"
	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/entrypoint"
)

// ImportCommand imports a plain-text book into the library database.
type ImportCommand struct {
	FilePath     string
	Title        string
	DatabasePath string
	Verbose      bool

	Out io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{Out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a UTF-8 text file (required)")
	fs.StringVar(&cmd.Title, "title", "", "Book title (defaults to the file name)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print the detected chapters")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a plain-text book into the library. Importing the same text twice\n")
		fmt.Fprintf(os.Stderr, "returns the existing book.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file walden.txt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file book.txt -title \"Walden\" -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	text, err := readText(cmd.FilePath)
	if err != nil {
		return err
	}

	title := cmd.Title
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(cmd.FilePath), filepath.Ext(cmd.FilePath))
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	fmt.Fprintf(cmd.Out, "Saving to database: %s\n", absDBPath)

	db, err := database.NewDatabaseWithLogLevel(absDBPath, "silent")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service, _ := entrypoint.NewReaderService(db, cfg)

	book, _, err := service.ImportText(title, text)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", cmd.FilePath, err)
	}

	fmt.Fprintf(cmd.Out, "Imported \"%s\" (%s)\n", book.Title, book.ID)

	opened, err := service.OpenBook(book.ID)
	if err != nil {
		return fmt.Errorf("failed to read chapters: %w", err)
	}
	fmt.Fprintf(cmd.Out, "Chapters: %d\n", len(opened.Chapters))
	if cmd.Verbose {
		printChapters(cmd.Out, opened.Chapters)
	}
	return nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, entities.ErrNotText)
	}
	return string(data), nil
}
