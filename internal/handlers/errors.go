package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"kit-messenger/internal/middleware"
	"kit-messenger/internal/models"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{models.ErrDuplicateName, http.StatusConflict},
	{models.ErrUserNotFound, http.StatusNotFound},
	{models.ErrWrongPassword, http.StatusUnauthorized},
	{models.ErrForbidden, http.StatusForbidden},
	{models.ErrInvalidTarget, http.StatusUnprocessableEntity},
	{models.ErrInvalidInput, http.StatusBadRequest},
	{models.ErrNotAuthenticated, http.StatusUnauthorized},
	{models.ErrGroupNotFound, http.StatusNotFound},
	{models.ErrMessageNotFound, http.StatusNotFound},
	{models.ErrSessionNotFound, http.StatusNotFound},
}

// respondError writes the status for a domain failure, or 500 for anything else.
func respondError(c *gin.Context, err error) {
	var locked *models.AccountLockedError
	if errors.As(err, &locked) {
		c.JSON(http.StatusLocked, gin.H{"error": err.Error(), "minutes": locked.Minutes})
		return
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error()})
			return
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
