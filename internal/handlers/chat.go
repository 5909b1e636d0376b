package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kit-messenger/internal/models"
)

// ChatHandler manages direct chat endpoints and user search.
type ChatHandler struct {
	conversations ConversationService
}

func NewChatHandler(conversations ConversationService) *ChatHandler {
	return &ChatHandler{conversations: conversations}
}

type chatResponse struct {
	PeerID      string     `json:"peer_id"`
	PeerName    string     `json:"peer_name"`
	PeerAvatar  *string    `json:"peer_avatar,omitempty"`
	LastMessage *string    `json:"last_message,omitempty"`
	LastTime    *time.Time `json:"last_time,omitempty"`
}

func toChatResponse(chat models.DirectChat) chatResponse {
	return chatResponse{
		PeerID:      chat.PeerUserID,
		PeerName:    chat.PeerName,
		PeerAvatar:  chat.PeerAvatar,
		LastMessage: chat.LastMessage,
		LastTime:    chat.LastTime,
	}
}

// ListChats returns the direct chats of the signed-in user.
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats := h.conversations.ListDirectChats(c.GetString("userID"))

	responses := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		responses = append(responses, toChatResponse(chat))
	}
	c.JSON(http.StatusOK, gin.H{"chats": responses})
}

// StartChat creates or returns the chat with a peer.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		PeerID string `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.conversations.FindOrCreateDirectChat(c.Request.Context(), c.GetString("userID"), req.PeerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": toChatResponse(chat)})
}

// SearchUsers looks a user up by exact name.
func (h *ChatHandler) SearchUsers(c *gin.Context) {
	user, ok := h.conversations.FindUserByExactName(c.Query("name"), c.GetString("userID"))
	if !ok {
		respondError(c, models.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
