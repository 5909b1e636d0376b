package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kit-messenger/internal/models"
)

// MessageHandler serves sending, history and the simulated actions.
type MessageHandler struct {
	messages  MessagingService
	simulator ActionSimulator
}

func NewMessageHandler(messages MessagingService, simulator ActionSimulator) *MessageHandler {
	return &MessageHandler{messages: messages, simulator: simulator}
}

type targetRequest struct {
	TargetKind string `json:"target_kind" form:"target_kind"`
	TargetID   string `json:"target_id" form:"target_id"`
}

func parseTarget(kind, id string) (models.Target, bool) {
	return models.NewTarget(models.TargetKind(kind), id)
}

// PostMessage sends a message. Blank text is accepted and ignored.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		targetRequest
		Text string `json:"text"`
		Kind string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var target models.Target
	if req.TargetID != "" {
		t, ok := parseTarget(req.TargetKind, req.TargetID)
		if !ok {
			respondError(c, models.ErrInvalidTarget)
			return
		}
		target = t
	}

	msg, err := h.messages.Send(c.Request.Context(), c.GetString("userID"), target, req.Text, models.MessageKind(req.Kind))
	if err != nil {
		respondError(c, err)
		return
	}
	if msg == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// GetMessages returns the history with a direct peer or a group.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, ok := parseTarget(req.TargetKind, req.TargetID)
	if !ok {
		respondError(c, models.ErrInvalidTarget)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.messages.History(c.GetString("userID"), target)})
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.messages.DeleteMessage(c.Request.Context(), c.GetString("userID"), c.Param("message_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetFocus records the conversation the UI has open. An empty target id
// clears it.
func (h *MessageHandler) SetFocus(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.TargetID == "" {
		h.simulator.SetFocus(nil)
		c.Status(http.StatusNoContent)
		return
	}
	target, ok := parseTarget(req.TargetKind, req.TargetID)
	if !ok {
		respondError(c, models.ErrInvalidTarget)
		return
	}
	h.simulator.SetFocus(target)
	c.Status(http.StatusNoContent)
}

// RecordVoice starts a simulated recording for the focused conversation.
func (h *MessageHandler) RecordVoice(c *gin.Context) {
	if _, err := h.simulator.RecordVoice(c.GetString("userID")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "recording"})
}

// StartCall starts a simulated call with the focused conversation.
func (h *MessageHandler) StartCall(c *gin.Context) {
	if _, err := h.simulator.StartCall(h.simulator.Focus()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "calling"})
}
