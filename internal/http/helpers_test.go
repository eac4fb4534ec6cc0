package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/protocol"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"not found", entities.ErrBookNotFound, http.StatusNotFound, "book not found"},
		{"invalid input", entities.ErrEmptyText, http.StatusBadRequest, "text is empty"},
		{"storage", entities.StorageError("save", errors.New("disk")), http.StatusServiceUnavailable, "storage unavailable"},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondDomainError(c, tt.err, "test")

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRespondDomainError_HidesStorageCause(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondDomainError(c, entities.StorageError("save", errors.New("/secret/path")), "test")
	assert.NotContains(t, w.Body.String(), "/secret/path")
}

func TestRespondBadRequestAndNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondBadRequest(c, "nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"nope","kind":"invalid_input"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondNotFound(c, "view")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"view not found","kind":"not_found"}`, w.Body.String())
}

func TestRespondEvents(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondEvents(c, http.StatusOK, []protocol.Event{protocol.SettingsChanged{
		Settings: entities.ReaderSettings{Mode: entities.ModeScroll, FontSize: 18},
	}})

	assert.JSONEq(t,
		`{"events":[{"type":"settings/changed","payload":{"settings":{"mode":"scroll","fontSize":18}}}]}`,
		w.Body.String())
}

func TestReadBody(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("  "))

	data, err := readBody(c, 10)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 11)))
	_, err = readBody(c, 10)
	assert.ErrorIs(t, err, entities.ErrBodyTooLarge)
}

func TestDecodeRoute(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"bookId":"spoofed","chapterId":"c1","anchor":{"type":"paged","pageIndex":2}}`))

	req, ok := decodeRoute(c, protocol.TypeAddBookmark, 1024, map[string]string{"bookId": "b1"})
	require.True(t, ok)
	assert.Equal(t, protocol.AddBookmark{BookID: "b1", ChapterID: "c1", Anchor: entities.PagedAnchor(2)}, req)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
	_, ok = decodeRoute(c, protocol.TypeAddBookmark, 1024, nil)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
