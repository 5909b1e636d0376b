package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kit-messenger/internal/models"
)

// CurrentUserProvider exposes the signed-in user of this process.
type CurrentUserProvider interface {
	CurrentUser() (models.User, bool)
}

// RequireSession rejects requests while nobody is signed in and stores the
// current user id under "userID".
func RequireSession(provider CurrentUserProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := provider.CurrentUser()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": models.ErrNotAuthenticated.Error()})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
