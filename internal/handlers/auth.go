package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kit-messenger/internal/models"
)

// AuthHandler serves account and session endpoints.
type AuthHandler struct {
	identity IdentityService
}

func NewAuthHandler(identity IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type userResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

type sessionResponse struct {
	ID          string    `json:"id"`
	DeviceLabel string    `json:"device_label"`
	CreatedAt   time.Time `json:"created_at"`
	LastActive  time.Time `json:"last_active"`
	Current     bool      `json:"current"`
}

type credentials struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		credentials
		Avatar *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.Register(c.Request.Context(), req.Name, req.Password, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.identity.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "user_id": session.UserID})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.identity.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.identity.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the signed-in user and session.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.identity.CurrentUser()
	if !ok {
		respondError(c, models.ErrNotAuthenticated)
		return
	}
	session, _ := h.identity.CurrentSession()

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user), "session_id": session.ID})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.UpdateProfile(c.Request.Context(), req.Name, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h *AuthHandler) ListSessions(c *gin.Context) {
	current, _ := h.identity.CurrentSession()
	sessions := h.identity.ListSessions(c.GetString("userID"))

	responses := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, sessionResponse{
			ID:          s.ID,
			DeviceLabel: s.DeviceLabel,
			CreatedAt:   s.CreatedAt,
			LastActive:  s.LastActive,
			Current:     s.ID == current.ID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": responses})
}

func (h *AuthHandler) RevokeSession(c *gin.Context) {
	if err := h.identity.RevokeSession(c.Request.Context(), c.Param("session_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
