package websession

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader carries the token on API calls.
const CSRFTokenHeader = "X-CSRF-Token"

const csrfContextKey = "csrf_token"

// CSRFMiddleware protects unsafe methods with gorilla/csrf. Safe methods
// pass through and receive a token in the CSRFTokenHeader response header.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		passed := false
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := csrf.Token(r)
			c.Set(csrfContextKey, token)
			c.Header(CSRFTokenHeader, token)
			c.Request = r
			c.Next()
		}))
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}
		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

// CSRFToken returns the request's token, or "" when protection is off.
func CSRFToken(c *gin.Context) string {
	if token, ok := c.Get(csrfContextKey); ok {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
