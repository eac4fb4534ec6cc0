package http

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/protocol"
)

// DefaultMaxImportBytes caps an imported text file.
const DefaultMaxImportBytes = 32 << 20

type LibraryController struct {
	service        ReaderService
	maxImportBytes int64
}

func NewLibraryController(service ReaderService, maxImportBytes int64) *LibraryController {
	if maxImportBytes <= 0 {
		maxImportBytes = DefaultMaxImportBytes
	}
	return &LibraryController{service: service, maxImportBytes: maxImportBytes}
}

// GetLibrary returns the library and session documents.
// GET /api/library
func (lc *LibraryController) GetLibrary(c *gin.Context) {
	state, err := lc.service.Init()
	if err != nil {
		respondDomainError(c, err, "init state")
		return
	}
	c.JSON(http.StatusOK, state)
}

// ImportBook accepts either a JSON {title, text} body or a multipart form
// with a "file" part and an optional "title" field.
// POST /api/books
func (lc *LibraryController) ImportBook(c *gin.Context) {
	var title, text string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, lc.maxImportBytes+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			respondBadRequest(c, "file is required")
			return
		}
		if fh.Size > lc.maxImportBytes {
			respondDomainError(c, entities.ErrBodyTooLarge, "import")
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondInternalError(c, err, "open upload")
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			respondInternalError(c, err, "read upload")
			return
		}
		if !utf8.Valid(data) {
			respondDomainError(c, entities.ErrNotText, "import")
			return
		}
		text = string(data)
		title = c.PostForm("title")
		if strings.TrimSpace(title) == "" {
			title = strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
		}
	} else {
		req, ok := decodeRoute(c, protocol.TypeImportText, lc.maxImportBytes, nil)
		if !ok {
			return
		}
		imp := req.(protocol.ImportText)
		title, text = imp.Title, imp.Text
	}

	book, state, err := lc.service.ImportText(title, text)
	if err != nil {
		respondDomainError(c, err, "import")
		return
	}
	respondCreated(c, gin.H{"book": book, "state": state})
}

// DeleteBook removes a book. Unknown ids succeed.
// DELETE /api/books/:id
func (lc *LibraryController) DeleteBook(c *gin.Context) {
	state, err := lc.service.RemoveBook(c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, state)
}

// OpenBook returns a book's chapters, bookmarks and saved progress.
// GET /api/books/:id/open
func (lc *LibraryController) OpenBook(c *gin.Context) {
	result, err := lc.service.OpenBook(c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "open book")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetChapter returns a chapter's rendered HTML.
// GET /api/books/:id/chapters/:chapterId
func (lc *LibraryController) GetChapter(c *gin.Context) {
	content, err := lc.service.RequestChapter(c.Param("id"), c.Param("chapterId"), c.Query("append") == "true")
	if err != nil {
		respondDomainError(c, err, "request chapter")
		return
	}
	c.JSON(http.StatusOK, content)
}

// UpdateProgress stores a reading position.
// PUT /api/books/:id/progress
func (lc *LibraryController) UpdateProgress(c *gin.Context) {
	req, ok := decodeRoute(c, protocol.TypeUpdateProgress, lc.maxImportBytes, map[string]string{"bookId": c.Param("id")})
	if !ok {
		return
	}
	up := req.(protocol.UpdateProgress)

	progress, err := lc.service.UpdateProgress(up.BookID, up.Mode, up.ChapterID, up.Anchor)
	if err != nil {
		respondDomainError(c, err, "update progress")
		return
	}
	c.JSON(http.StatusOK, progress)
}
