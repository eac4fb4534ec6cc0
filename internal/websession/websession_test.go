package websession

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/zenreader/internal/database"
	"github.com/mrlokans/zenreader/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupManager(t *testing.T) *Manager {
	t.Helper()
	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "sessions.db"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	sm, err := NewManager(sqlDB, Config{Lifetime: time.Hour})
	require.NoError(t, err)
	return sm
}

func sessionRouter(sm *Manager) *gin.Engine {
	router := gin.New()
	router.Use(sm.LoadSave())
	router.POST("/view/:id", func(c *gin.Context) {
		sm.SetViewID(c.Request, c.Param("id"))
		sm.SetMode(c.Request, entities.ModeScroll)
		c.Status(http.StatusNoContent)
	})
	router.GET("/view", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"view": sm.ViewID(c.Request),
			"mode": sm.Mode(c.Request, entities.ModePaged),
		})
	})
	router.DELETE("/view", func(c *gin.Context) {
		if err := sm.Reset(c.Request); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestNewManager(t *testing.T) {
	sm := setupManager(t)

	assert.Equal(t, "zenreader_session", sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, time.Hour, sm.Lifetime)
	assert.Equal(t, 30*time.Minute, sm.IdleTimeout)
}

func TestManager_RoundTripsViewAndMode(t *testing.T) {
	sm := setupManager(t)
	router := sessionRouter(sm)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/view/v-123", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.JSONEq(t, `{"view":"v-123","mode":"scroll"}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodDelete, "/view", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	expired := rr.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Equal(t, "zenreader_session", expired[0].Name)
	assert.Empty(t, expired[0].Value)
	assert.Negative(t, expired[0].MaxAge)

	req = httptest.NewRequest(http.MethodGet, "/view", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.JSONEq(t, `{"view":"","mode":"paged"}`, rr.Body.String())
}

func TestManager_FreshSessionUsesDefaults(t *testing.T) {
	sm := setupManager(t)

	rr := httptest.NewRecorder()
	sessionRouter(sm).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/view", nil))
	assert.JSONEq(t, `{"view":"","mode":"paged"}`, rr.Body.String())
	assert.Empty(t, rr.Result().Cookies())
}

func TestLoadSave_CommitsBeforeBodyIsWritten(t *testing.T) {
	sm := setupManager(t)
	router := gin.New()
	router.Use(sm.LoadSave())
	router.GET("/open", func(c *gin.Context) {
		sm.SetViewID(c.Request, "v-9")
		c.String(http.StatusOK, "opened")
		sm.SetMode(c.Request, entities.ModeScroll)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, "opened", rr.Body.String())
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	ctx, err := sm.Load(context.Background(), cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "v-9", sm.GetString(ctx, SessionKeyViewID))
	assert.Empty(t, sm.GetString(ctx, SessionKeyMode))
}

func csrfRouter() *gin.Engine {
	router := gin.New()
	router.Use(CSRFMiddleware([]byte("test-secret-key-32-bytes-long!!!"), false))
	handler := func(c *gin.Context) {
		c.String(http.StatusOK, CSRFToken(c))
	}
	router.GET("/token", handler)
	router.POST("/submit", handler)
	return router
}

func TestCSRFMiddleware_AllowsGET(t *testing.T) {
	rr := httptest.NewRecorder()
	csrfRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/token", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for GET request, got %d", rr.Code)
	}
	if rr.Body.String() == "" {
		t.Error("Expected token in context")
	}
	if rr.Header().Get(CSRFTokenHeader) != rr.Body.String() {
		t.Error("Expected token in response header")
	}
}

func TestCSRFMiddleware_BlocksPOSTWithoutToken(t *testing.T) {
	rr := httptest.NewRecorder()
	csrfRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/submit", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "CSRF token invalid")
}

func TestCSRFMiddleware_AcceptsHeaderToken(t *testing.T) {
	router := csrfRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/token", nil))
	token := rr.Header().Get(CSRFTokenHeader)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(CSRFTokenHeader, token)
	for _, cookie := range rr.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "script-src 'self'")
}
