// Package websession ties a browser session to its reading view. The
// session cookie is backed by scs with the sessions table in the library
// database; it stores the open view id and the session's active reader
// mode.
package websession

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/entities"
)

const (
	SessionKeyViewID = "view_id"
	SessionKeyMode   = "reader_mode"
)

const DefaultLifetime = 24 * time.Hour

type Config struct {
	Lifetime      time.Duration
	SecureCookies bool
}

// Manager wraps scs.SessionManager with reader-specific accessors.
type Manager struct {
	*scs.SessionManager
}

// NewManager creates the sessions table if needed and configures the
// cookie. sqlDB is the library database's *sql.DB.
func NewManager(sqlDB *sql.DB, cfg Config) (*Manager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = "zenreader_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm}, nil
}

// ViewID returns the session's view, or "".
func (m *Manager) ViewID(r *http.Request) string {
	return m.GetString(r.Context(), SessionKeyViewID)
}

func (m *Manager) SetViewID(r *http.Request, viewID string) {
	if viewID == "" {
		m.Remove(r.Context(), SessionKeyViewID)
		return
	}
	m.Put(r.Context(), SessionKeyViewID, viewID)
}

// Mode returns the mode this session last read in, falling back to def.
func (m *Manager) Mode(r *http.Request, def entities.ReaderMode) entities.ReaderMode {
	mode := entities.ReaderMode(m.GetString(r.Context(), SessionKeyMode))
	if !mode.Valid() {
		return def
	}
	return mode
}

func (m *Manager) SetMode(r *http.Request, mode entities.ReaderMode) {
	if !mode.Valid() {
		return
	}
	m.Put(r.Context(), SessionKeyMode, string(mode))
}

// Reset drops the session's view and mode.
func (m *Manager) Reset(r *http.Request) error {
	return m.Destroy(r.Context())
}

// LoadSave is gin middleware that loads the session before the handlers run
// and saves it once the handler is done. It must run before anything reads
// or changes the session's view or mode.
func (m *Manager) LoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(m.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := m.Load(c.Request.Context(), token)
		if err != nil {
			log.Printf("[session] failed to load session: %v", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		w := &committingWriter{ResponseWriter: c.Writer, m: m, r: c.Request}
		c.Writer = w
		c.Next()
		w.commit()
	}
}

// committingWriter saves the session and sets its cookie before the first
// byte of the response, since headers cannot change after that.
type committingWriter struct {
	gin.ResponseWriter
	m    *Manager
	r    *http.Request
	done bool
}

func (w *committingWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *committingWriter) WriteHeaderNow() {
	w.commit()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *committingWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) WriteString(s string) (int, error) {
	w.commit()
	return w.ResponseWriter.WriteString(s)
}

func (w *committingWriter) commit() {
	if w.done {
		return
	}
	w.done = true

	ctx := w.r.Context()
	switch w.m.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.m.Commit(ctx)
		if err != nil {
			// The view keeps running; the browser just will not find it again.
			log.Printf("[session] failed to save session: %v", err)
			return
		}
		w.m.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.m.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}
