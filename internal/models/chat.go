package models

import "time"

// DirectChat is the owner's view of a one-to-one conversation.
type DirectChat struct {
	OwnerID     string     `json:"ownerId"`
	PeerUserID  string     `json:"peerUserId"`
	PeerName    string     `json:"peerName"`
	PeerAvatar  *string    `json:"peerAvatar"`
	LastMessage *string    `json:"lastMessage,omitempty"`
	LastTime    *time.Time `json:"lastTime,omitempty"`
}

// Target resolves the chat to its peer.
func (c DirectChat) Target() Target {
	return DirectTarget{UserID: c.PeerUserID}
}

// Summarize records the latest message preview.
func (c *DirectChat) Summarize(text string, at time.Time) {
	summarize(&c.LastMessage, &c.LastTime, text, at)
}

// Conversation is either a DirectChat or a GroupChat.
type Conversation interface {
	Target() Target
}

func summarize(lastMessage **string, lastTime **time.Time, text string, at time.Time) {
	*lastMessage = &text
	*lastTime = &at
}
