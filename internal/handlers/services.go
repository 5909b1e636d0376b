package handlers

import (
	"context"

	"kit-messenger/internal/models"
	"kit-messenger/internal/preferences"
)

// IdentityService is the account and session surface used by AuthHandler.
type IdentityService interface {
	Register(ctx context.Context, name, password string, avatar *string) (models.User, error)
	Login(ctx context.Context, name, password string) (models.Session, error)
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	ListSessions(userID string) []models.Session
	RevokeSession(ctx context.Context, sessionID string) error
	CurrentUser() (models.User, bool)
	CurrentSession() (models.Session, bool)
	UpdateProfile(ctx context.Context, name, avatar *string) (models.User, error)
}

// ConversationService covers direct chats, groups and user search.
type ConversationService interface {
	FindOrCreateDirectChat(ctx context.Context, selfID, peerID string) (models.DirectChat, error)
	CreateGroup(ctx context.Context, creatorID, name string, avatar *string, memberIDs []string) (models.GroupChat, error)
	SetAdmin(ctx context.Context, actorID, groupID, targetID string, isAdmin bool) error
	RemoveMember(ctx context.Context, actorID, groupID, targetID string) error
	AddMembers(ctx context.Context, actorID, groupID string, userIDs []string) error
	FindUserByExactName(query, excludingUserID string) (models.User, bool)
	ListDirectChats(ownerID string) []models.DirectChat
	ListGroups(userID string) []models.GroupChat
}

// MessagingService sends, lists and deletes messages.
type MessagingService interface {
	Send(ctx context.Context, senderID string, target models.Target, text string, kind models.MessageKind) (*models.Message, error)
	History(selfID string, target models.Target) []models.Message
	DeleteMessage(ctx context.Context, actorID, messageID string) error
}

// ActionSimulator runs the timed voice and call actions.
type ActionSimulator interface {
	SetFocus(target models.Target)
	Focus() models.Target
	RecordVoice(senderID string) (func(), error)
	StartCall(target models.Target) (func(), error)
}

// PreferencesService reads and writes UI preferences.
type PreferencesService interface {
	Get() preferences.Preferences
	SetLanguage(ctx context.Context, lang string) error
	SetDarkMode(ctx context.Context, enabled bool) error
}
