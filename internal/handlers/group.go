package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kit-messenger/internal/models"
)

// GroupHandler manages group endpoints.
type GroupHandler struct {
	conversations ConversationService
}

func NewGroupHandler(conversations ConversationService) *GroupHandler {
	return &GroupHandler{conversations: conversations}
}

type groupResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Avatar      *string    `json:"avatar,omitempty"`
	CreatorID   string     `json:"creator_id"`
	AdminIDs    []string   `json:"admin_ids"`
	MemberIDs   []string   `json:"member_ids"`
	LastMessage *string    `json:"last_message,omitempty"`
	LastTime    *time.Time `json:"last_time,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toGroupResponse(g models.GroupChat) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Avatar:      g.Avatar,
		CreatorID:   g.CreatorID,
		AdminIDs:    g.AdminIDs,
		MemberIDs:   g.MemberIDs,
		LastMessage: g.LastMessage,
		LastTime:    g.LastTime,
		CreatedAt:   g.CreatedAt,
	}
}

// CreateGroup creates a group with the caller as creator.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name      string   `json:"name" binding:"required"`
		Avatar    *string  `json:"avatar"`
		MemberIDs []string `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.conversations.CreateGroup(c.Request.Context(), c.GetString("userID"), req.Name, req.Avatar, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": toGroupResponse(group)})
}

// ListGroups returns the groups the user belongs to.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups := h.conversations.ListGroups(c.GetString("userID"))

	responses := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		responses = append(responses, toGroupResponse(g))
	}
	c.JSON(http.StatusOK, gin.H{"groups": responses})
}

func (h *GroupHandler) AddMembers(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.conversations.AddMembers(c.Request.Context(), c.GetString("userID"), c.Param("group_id"), req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	err := h.conversations.RemoveMember(c.Request.Context(), c.GetString("userID"), c.Param("group_id"), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetAdmin grants or revokes admin rights for a member.
func (h *GroupHandler) SetAdmin(c *gin.Context) {
	var req struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.conversations.SetAdmin(c.Request.Context(), c.GetString("userID"), c.Param("group_id"), c.Param("user_id"), *req.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
