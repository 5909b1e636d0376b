package models

import (
	"slices"
	"time"
)

// GroupChat is a multi-member conversation.
// CreatorID is always a member and always privileged.
type GroupChat struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Avatar      *string    `json:"avatar"`
	CreatorID   string     `json:"creatorId"`
	AdminIDs    []string   `json:"adminIds"`
	MemberIDs   []string   `json:"memberIds"`
	LastMessage *string    `json:"lastMessage,omitempty"`
	LastTime    *time.Time `json:"lastTime,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Target resolves the group to its id.
func (g GroupChat) Target() Target {
	return GroupTarget{GroupID: g.ID}
}

// HasMember reports membership.
func (g GroupChat) HasMember(userID string) bool {
	return slices.Contains(g.MemberIDs, userID)
}

// IsAdmin reports explicit admin membership only.
func (g GroupChat) IsAdmin(userID string) bool {
	return slices.Contains(g.AdminIDs, userID)
}

// IsPrivileged reports whether userID may manage the group.
func (g GroupChat) IsPrivileged(userID string) bool {
	return userID != "" && (userID == g.CreatorID || g.IsAdmin(userID))
}

// Summarize records the latest message preview.
func (g *GroupChat) Summarize(text string, at time.Time) {
	summarize(&g.LastMessage, &g.LastTime, text, at)
}
