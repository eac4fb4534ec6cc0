package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/zenreader/internal/database"
)

func getHealth(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "health.db"), "silent")
		require.NoError(t, err)
		defer db.Close()

		code, response := getHealth(t, NewHealthController("1.0.0", map[string]HealthCheck{"database": db.Ping}))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "health.db"), "silent")
		require.NoError(t, err)
		db.Close()

		code, response := getHealth(t, NewHealthController("1.0.0", map[string]HealthCheck{"database": db.Ping}))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("reports unconfigured and failing checks separately", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController("", map[string]HealthCheck{
			"tasks": nil,
			"cache": func() error { return errors.New("gone") },
		}))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not configured", response.Checks["tasks"])
		assert.Equal(t, "error: gone", response.Checks["cache"])
		assert.Empty(t, response.Version)
	})

	t.Run("healthy with no checks", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController("1.0.0", nil))
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, response.Checks)
	})
}
