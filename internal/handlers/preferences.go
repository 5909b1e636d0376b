package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PreferencesHandler struct {
	preferences PreferencesService
}

func NewPreferencesHandler(preferences PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferences: preferences}
}

func (h *PreferencesHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.preferences.Get())
}

// Update changes only the fields present in the body.
func (h *PreferencesHandler) Update(c *gin.Context) {
	var req struct {
		Lang     *string `json:"lang"`
		DarkMode *bool   `json:"dark_mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.Lang != nil {
		if err := h.preferences.SetLanguage(ctx, *req.Lang); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.DarkMode != nil {
		if err := h.preferences.SetDarkMode(ctx, *req.DarkMode); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, h.preferences.Get())
}
