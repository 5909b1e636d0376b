package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kit-messenger/internal/mocks"
	"kit-messenger/internal/models"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u-1")
		c.Next()
	})
	r.GET("/chats", handler.ListChats)
	r.POST("/chats/start", handler.StartChat)
	r.GET("/users/search", handler.SearchUsers)
	return r
}

func TestListChatsSuccess(t *testing.T) {
	conversations := new(mocks.ConversationServiceMock)
	router := setupChatRouter(NewChatHandler(conversations))

	last := "hi"
	conversations.On("ListDirectChats", "u-1").Return([]models.DirectChat{
		{OwnerID: "u-1", PeerUserID: "u-2", PeerName: "bob", LastMessage: &last},
	}).Once()

	rec := doJSON(router, http.MethodGet, "/chats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Chats []chatResponse `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, "bob", resp.Chats[0].PeerName)
	assert.Equal(t, "hi", *resp.Chats[0].LastMessage)
	conversations.AssertExpectations(t)
}

func TestStartChatSuccess(t *testing.T) {
	conversations := new(mocks.ConversationServiceMock)
	router := setupChatRouter(NewChatHandler(conversations))
	conversations.On("FindOrCreateDirectChat", mock.Anything, "u-1", "u-2").
		Return(models.DirectChat{OwnerID: "u-1", PeerUserID: "u-2", PeerName: "bob"}, nil).Once()

	rec := doJSON(router, http.MethodPost, "/chats/start", `{"peer_id":"u-2"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	conversations.AssertExpectations(t)
}

func TestStartChatInvalidPeer(t *testing.T) {
	conversations := new(mocks.ConversationServiceMock)
	router := setupChatRouter(NewChatHandler(conversations))
	conversations.On("FindOrCreateDirectChat", mock.Anything, "u-1", "u-1").Return(nil, models.ErrInvalidTarget).Once()

	rec := doJSON(router, http.MethodPost, "/chats/start", `{"peer_id":"u-1"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	conversations.AssertExpectations(t)
}

func TestSearchUsers(t *testing.T) {
	conversations := new(mocks.ConversationServiceMock)
	router := setupChatRouter(NewChatHandler(conversations))
	conversations.On("FindUserByExactName", "bob", "u-1").Return(models.User{ID: "u-2", Name: "bob", Password: "secret"}, true).Once()
	conversations.On("FindUserByExactName", "nobody", "u-1").Return(nil, false).Once()

	rec := doJSON(router, http.MethodGet, "/users/search?name=bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = doJSON(router, http.MethodGet, "/users/search?name=nobody", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	conversations.AssertExpectations(t)
}
