package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthCheck reports a dependency's state; nil means ok.
type HealthCheck func() error

type HealthController struct {
	checks  map[string]HealthCheck
	version string
}

func NewHealthController(version string, checks map[string]HealthCheck) *HealthController {
	return &HealthController{checks: checks, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	results := make(map[string]string, len(names))
	for _, name := range names {
		check := h.checks[name]
		if check == nil {
			results[name] = "not configured"
			continue
		}
		if err := check(); err != nil {
			results[name] = "error: " + err.Error()
			status = "unhealthy"
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  results,
	})
}
