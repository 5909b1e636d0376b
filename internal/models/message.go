package models

import "time"

// MessageKind is the payload type of a message.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindVoice MessageKind = "voice"
	KindEmoji MessageKind = "emoji"
)

// Valid reports whether k is a known kind.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindVoice, KindEmoji:
		return true
	}
	return false
}

// TargetKind tags the addressing scheme stored with a message.
type TargetKind string

const (
	TargetDirect TargetKind = "direct"
	TargetGroup  TargetKind = "group"
)

// Message is immutable once stored; it can only be deleted.
type Message struct {
	ID         string      `json:"id"`
	FromUserID string      `json:"from"`
	ToTarget   string      `json:"to"`
	TargetKind TargetKind  `json:"targetKind,omitempty"`
	Text       string      `json:"text"`
	Kind       MessageKind `json:"type"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Target rebuilds the typed recipient.
func (m Message) Target() Target {
	if m.TargetKind == TargetGroup {
		return GroupTarget{GroupID: m.ToTarget}
	}
	return DirectTarget{UserID: m.ToTarget}
}

// Target is the resolved recipient of a message: DirectTarget or GroupTarget.
type Target interface {
	ID() string
	Kind() TargetKind
	isTarget()
}

// DirectTarget addresses a single user.
type DirectTarget struct {
	UserID string
}

func (t DirectTarget) ID() string       { return t.UserID }
func (t DirectTarget) Kind() TargetKind { return TargetDirect }
func (DirectTarget) isTarget()          {}

// GroupTarget addresses every member of a group.
type GroupTarget struct {
	GroupID string
}

func (t GroupTarget) ID() string       { return t.GroupID }
func (t GroupTarget) Kind() TargetKind { return TargetGroup }
func (GroupTarget) isTarget()          {}

// NewTarget builds a target from its wire form.
func NewTarget(kind TargetKind, id string) (Target, bool) {
	if id == "" {
		return nil, false
	}
	switch kind {
	case TargetDirect:
		return DirectTarget{UserID: id}, true
	case TargetGroup:
		return GroupTarget{GroupID: id}, true
	}
	return nil, false
}
