package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/protocol"
)

type SettingsController struct {
	service ReaderService
}

func NewSettingsController(service ReaderService) *SettingsController {
	return &SettingsController{service: service}
}

// GetSettings GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, protocol.SettingsChanged{Settings: sc.service.Settings()})
}

// UpdateSettings applies a partial {mode?, fontSize?} update and returns
// the resulting settings.
// PUT /api/settings
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	req, ok := decodeRoute(c, protocol.TypeUpdateSettings, maxSmallBody, nil)
	if !ok {
		return
	}

	changed, updated, err := sc.service.UpdateSettings(req.(protocol.UpdateSettings).Patch)
	if err != nil {
		respondDomainError(c, err, "update settings")
		return
	}
	if !updated {
		changed.Settings = sc.service.Settings()
	}
	c.JSON(http.StatusOK, changed)
}
