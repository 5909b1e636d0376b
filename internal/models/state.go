package models

import (
	"slices"
	"time"
)

// DefaultLang is used when nothing else is configured.
const DefaultLang = "ru"

// AppState is the whole persisted application state.
type AppState struct {
	CurrentUserID    *string                  `json:"currentUserId"`
	CurrentSessionID *string                  `json:"currentSessionId"`
	Users            []User                   `json:"users"`
	Chats            []DirectChat             `json:"chats"`
	GroupChats       []GroupChat              `json:"groupChats"`
	Messages         []Message                `json:"messages"`
	Sessions         []Session                `json:"sessions"`
	LoginAttempts    map[string]LoginAttempts `json:"loginAttempts"`
	Lang             string                   `json:"lang"`
	DarkMode         bool                     `json:"darkMode"`
}

// DefaultState returns the empty state.
func DefaultState(lang string) AppState {
	if lang == "" {
		lang = DefaultLang
	}
	return AppState{
		Users:         []User{},
		Chats:         []DirectChat{},
		GroupChats:    []GroupChat{},
		Messages:      []Message{},
		Sessions:      []Session{},
		LoginAttempts: map[string]LoginAttempts{},
		Lang:          lang,
	}
}

// Clone returns a deep copy that shares no mutable memory with s.
func (s AppState) Clone() AppState {
	out := s
	out.CurrentUserID = cloneString(s.CurrentUserID)
	out.CurrentSessionID = cloneString(s.CurrentSessionID)

	out.Users = make([]User, len(s.Users))
	for i, u := range s.Users {
		u.Avatar = cloneString(u.Avatar)
		out.Users[i] = u
	}
	out.Chats = make([]DirectChat, len(s.Chats))
	for i, c := range s.Chats {
		c.PeerAvatar = cloneString(c.PeerAvatar)
		c.LastMessage = cloneString(c.LastMessage)
		c.LastTime = cloneTime(c.LastTime)
		out.Chats[i] = c
	}
	out.GroupChats = make([]GroupChat, len(s.GroupChats))
	for i, g := range s.GroupChats {
		g.Avatar = cloneString(g.Avatar)
		g.AdminIDs = slices.Clone(g.AdminIDs)
		g.MemberIDs = slices.Clone(g.MemberIDs)
		g.LastMessage = cloneString(g.LastMessage)
		g.LastTime = cloneTime(g.LastTime)
		out.GroupChats[i] = g
	}
	out.Messages = slices.Clone(s.Messages)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	out.Sessions = slices.Clone(s.Sessions)
	if out.Sessions == nil {
		out.Sessions = []Session{}
	}
	out.LoginAttempts = make(map[string]LoginAttempts, len(s.LoginAttempts))
	for k, v := range s.LoginAttempts {
		v.LockedUntil = cloneTime(v.LockedUntil)
		out.LoginAttempts[k] = v
	}
	return out
}

// UserByID returns a pointer into s.Users, or nil.
func (s *AppState) UserByID(id string) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// GroupByID returns a pointer into s.GroupChats, or nil.
func (s *AppState) GroupByID(id string) *GroupChat {
	for i := range s.GroupChats {
		if s.GroupChats[i].ID == id {
			return &s.GroupChats[i]
		}
	}
	return nil
}

// DirectChat returns the owner's chat with peer, or nil.
func (s *AppState) DirectChat(ownerID, peerID string) *DirectChat {
	for i := range s.Chats {
		if s.Chats[i].OwnerID == ownerID && s.Chats[i].PeerUserID == peerID {
			return &s.Chats[i]
		}
	}
	return nil
}

// SessionByID returns a pointer into s.Sessions, or nil.
func (s *AppState) SessionByID(id string) *Session {
	for i := range s.Sessions {
		if s.Sessions[i].ID == id {
			return &s.Sessions[i]
		}
	}
	return nil
}

// RemoveSession drops the session with id and reports whether it existed.
func (s *AppState) RemoveSession(id string) bool {
	n := len(s.Sessions)
	s.Sessions = slices.DeleteFunc(s.Sessions, func(sess Session) bool { return sess.ID == id })
	return len(s.Sessions) != n
}

// ClearCurrent forgets the local user and session pointers.
func (s *AppState) ClearCurrent() {
	s.CurrentUserID = nil
	s.CurrentSessionID = nil
}

// SetCurrent records the local user and session pointers.
func (s *AppState) SetCurrent(userID, sessionID string) {
	s.CurrentUserID = &userID
	s.CurrentSessionID = &sessionID
}

// Current returns the local pointers; ok is false unless both are set.
func (s *AppState) Current() (userID, sessionID string, ok bool) {
	if s.CurrentUserID == nil || s.CurrentSessionID == nil {
		return "", "", false
	}
	return *s.CurrentUserID, *s.CurrentSessionID, true
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
