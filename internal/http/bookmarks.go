package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/protocol"
)

const maxSmallBody = 64 << 10

type BookmarksController struct {
	service ReaderService
}

func NewBookmarksController(service ReaderService) *BookmarksController {
	return &BookmarksController{service: service}
}

// ListBookmarks GET /api/books/:id/bookmarks
func (bc *BookmarksController) ListBookmarks(c *gin.Context) {
	bookID := c.Param("id")
	bookmarks, err := bc.service.ListBookmarks(bookID)
	if err != nil {
		respondDomainError(c, err, "list bookmarks")
		return
	}
	c.JSON(http.StatusOK, protocol.BookmarksChanged{BookID: bookID, Bookmarks: bookmarks})
}

// AddBookmark POST /api/books/:id/bookmarks
func (bc *BookmarksController) AddBookmark(c *gin.Context) {
	req, ok := decodeRoute(c, protocol.TypeAddBookmark, maxSmallBody, map[string]string{"bookId": c.Param("id")})
	if !ok {
		return
	}
	add := req.(protocol.AddBookmark)

	changed, err := bc.service.AddBookmark(add.BookID, add.ChapterID, add.Anchor)
	if err != nil {
		respondDomainError(c, err, "add bookmark")
		return
	}
	respondCreated(c, changed)
}

// RemoveBookmark DELETE /api/books/:id/bookmarks/:bookmarkId
func (bc *BookmarksController) RemoveBookmark(c *gin.Context) {
	changed, err := bc.service.RemoveBookmark(c.Param("id"), c.Param("bookmarkId"))
	if err != nil {
		respondDomainError(c, err, "remove bookmark")
		return
	}
	c.JSON(http.StatusOK, changed)
}
