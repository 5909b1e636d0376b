package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kit-messenger/internal/models"
	"kit-messenger/internal/preferences"
)

type IdentityServiceMock struct {
	mock.Mock
}

func (m *IdentityServiceMock) Register(ctx context.Context, name, password string, avatar *string) (models.User, error) {
	args := m.Called(ctx, name, password, avatar)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *IdentityServiceMock) Login(ctx context.Context, name, password string) (models.Session, error) {
	args := m.Called(ctx, name, password)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

func (m *IdentityServiceMock) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *IdentityServiceMock) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	args := m.Called(ctx, oldPassword, newPassword)
	return args.Error(0)
}

func (m *IdentityServiceMock) ListSessions(userID string) []models.Session {
	args := m.Called(userID)
	var list []models.Session
	if val := args.Get(0); val != nil {
		list = val.([]models.Session)
	}
	return list
}

func (m *IdentityServiceMock) RevokeSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *IdentityServiceMock) CurrentUser() (models.User, bool) {
	args := m.Called()
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Bool(1)
}

func (m *IdentityServiceMock) CurrentSession() (models.Session, bool) {
	args := m.Called()
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Bool(1)
}

func (m *IdentityServiceMock) UpdateProfile(ctx context.Context, name, avatar *string) (models.User, error) {
	args := m.Called(ctx, name, avatar)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type ConversationServiceMock struct {
	mock.Mock
}

func (m *ConversationServiceMock) FindOrCreateDirectChat(ctx context.Context, selfID, peerID string) (models.DirectChat, error) {
	args := m.Called(ctx, selfID, peerID)
	var chat models.DirectChat
	if val := args.Get(0); val != nil {
		chat = val.(models.DirectChat)
	}
	return chat, args.Error(1)
}

func (m *ConversationServiceMock) CreateGroup(ctx context.Context, creatorID, name string, avatar *string, memberIDs []string) (models.GroupChat, error) {
	args := m.Called(ctx, creatorID, name, avatar, memberIDs)
	var group models.GroupChat
	if val := args.Get(0); val != nil {
		group = val.(models.GroupChat)
	}
	return group, args.Error(1)
}

func (m *ConversationServiceMock) SetAdmin(ctx context.Context, actorID, groupID, targetID string, isAdmin bool) error {
	args := m.Called(ctx, actorID, groupID, targetID, isAdmin)
	return args.Error(0)
}

func (m *ConversationServiceMock) RemoveMember(ctx context.Context, actorID, groupID, targetID string) error {
	args := m.Called(ctx, actorID, groupID, targetID)
	return args.Error(0)
}

func (m *ConversationServiceMock) AddMembers(ctx context.Context, actorID, groupID string, userIDs []string) error {
	args := m.Called(ctx, actorID, groupID, userIDs)
	return args.Error(0)
}

func (m *ConversationServiceMock) FindUserByExactName(query, excludingUserID string) (models.User, bool) {
	args := m.Called(query, excludingUserID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Bool(1)
}

func (m *ConversationServiceMock) ListDirectChats(ownerID string) []models.DirectChat {
	args := m.Called(ownerID)
	var list []models.DirectChat
	if val := args.Get(0); val != nil {
		list = val.([]models.DirectChat)
	}
	return list
}

func (m *ConversationServiceMock) ListGroups(userID string) []models.GroupChat {
	args := m.Called(userID)
	var list []models.GroupChat
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupChat)
	}
	return list
}

type MessagingServiceMock struct {
	mock.Mock
}

func (m *MessagingServiceMock) Send(ctx context.Context, senderID string, target models.Target, text string, kind models.MessageKind) (*models.Message, error) {
	args := m.Called(ctx, senderID, target, text, kind)
	var msg *models.Message
	if val := args.Get(0); val != nil {
		msg = val.(*models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessagingServiceMock) History(selfID string, target models.Target) []models.Message {
	args := m.Called(selfID, target)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list
}

func (m *MessagingServiceMock) DeleteMessage(ctx context.Context, actorID, messageID string) error {
	args := m.Called(ctx, actorID, messageID)
	return args.Error(0)
}

type SimulatorMock struct {
	mock.Mock
}

func (m *SimulatorMock) SetFocus(target models.Target) {
	m.Called(target)
}

func (m *SimulatorMock) Focus() models.Target {
	args := m.Called()
	if val := args.Get(0); val != nil {
		return val.(models.Target)
	}
	return nil
}

func (m *SimulatorMock) RecordVoice(senderID string) (func(), error) {
	args := m.Called(senderID)
	return func() {}, args.Error(0)
}

func (m *SimulatorMock) StartCall(target models.Target) (func(), error) {
	args := m.Called(target)
	return func() {}, args.Error(0)
}

type PreferencesServiceMock struct {
	mock.Mock
}

func (m *PreferencesServiceMock) Get() preferences.Preferences {
	args := m.Called()
	return args.Get(0).(preferences.Preferences)
}

func (m *PreferencesServiceMock) SetLanguage(ctx context.Context, lang string) error {
	args := m.Called(ctx, lang)
	return args.Error(0)
}

func (m *PreferencesServiceMock) SetDarkMode(ctx context.Context, enabled bool) error {
	args := m.Called(ctx, enabled)
	return args.Error(0)
}
