package http

import (
	"github.com/mrlokans/zenreader/internal/session"
	"github.com/mrlokans/zenreader/internal/websession"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	Service ReaderService

	// Views and Sessions enable the /api/view routes. Both are required
	// for them.
	Views    *session.Registry
	Sessions *websession.Manager

	// CSRFSecret turns on CSRF protection when set.
	CSRFSecret    []byte
	SecureCookies bool

	// MaxImportBytes caps uploaded and posted book text.
	MaxImportBytes int64

	HealthChecks map[string]HealthCheck
	Version      string
}
