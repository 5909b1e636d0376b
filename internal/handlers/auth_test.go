package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kit-messenger/internal/mocks"
	"kit-messenger/internal/models"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/logout", handler.Logout)
	r.GET("/auth/me", handler.Me)

	authed := r.Group("/", func(c *gin.Context) {
		c.Set("userID", "u-1")
		c.Next()
	})
	authed.POST("/auth/password", handler.ChangePassword)
	authed.PATCH("/auth/profile", handler.UpdateProfile)
	authed.GET("/sessions", handler.ListSessions)
	authed.DELETE("/sessions/:session_id", handler.RevokeSession)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterSuccessHidesPassword(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))

	identity.On("Register", mock.Anything, "alice", "p1", (*string)(nil)).
		Return(models.User{ID: "u-1", Name: "alice", Password: "p1"}, nil).Once()

	rec := doJSON(router, http.MethodPost, "/auth/register", `{"name":"alice","password":"p1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "p1")
	var resp struct {
		User userResponse `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "u-1", resp.User.ID)
	identity.AssertExpectations(t)
}

func TestRegisterErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
	}{
		{name: "duplicate", err: models.ErrDuplicateName, status: http.StatusConflict},
		{name: "blank", err: models.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "storage", err: assert.AnError, status: http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			identity := new(mocks.IdentityServiceMock)
			router := setupAuthRouter(NewAuthHandler(identity))
			identity.On("Register", mock.Anything, "alice", "p1", (*string)(nil)).Return(nil, tc.err).Once()

			rec := doJSON(router, http.MethodPost, "/auth/register", `{"name":"alice","password":"p1"}`)

			require.Equal(t, tc.status, rec.Code)
			identity.AssertExpectations(t)
		})
	}
}

func TestRegisterBadBody(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))

	rec := doJSON(router, http.MethodPost, "/auth/register", `{"name":"alice"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	identity.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginLockedReportsMinutes(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))

	identity.On("Login", mock.Anything, "alice", "bad").Return(nil, &models.AccountLockedError{Minutes: 4}).Once()

	rec := doJSON(router, http.MethodPost, "/auth/login", `{"name":"alice","password":"bad"}`)

	require.Equal(t, http.StatusLocked, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 4, resp["minutes"])
	identity.AssertExpectations(t)
}

func TestLoginErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
	}{
		{name: "unknown user", err: models.ErrUserNotFound, status: http.StatusNotFound},
		{name: "wrong password", err: models.ErrWrongPassword, status: http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			identity := new(mocks.IdentityServiceMock)
			router := setupAuthRouter(NewAuthHandler(identity))
			identity.On("Login", mock.Anything, "alice", "bad").Return(nil, tc.err).Once()

			rec := doJSON(router, http.MethodPost, "/auth/login", `{"name":"alice","password":"bad"}`)

			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))
	identity.On("Login", mock.Anything, "alice", "p1").Return(models.Session{ID: "s-1", UserID: "u-1"}, nil).Once()

	rec := doJSON(router, http.MethodPost, "/auth/login", `{"name":"alice","password":"p1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"s-1","user_id":"u-1"}`, rec.Body.String())
}

func TestMeWhenSignedOut(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))
	identity.On("CurrentUser").Return(nil, false).Once()

	rec := doJSON(router, http.MethodGet, "/auth/me", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	identity.AssertExpectations(t)
}

func TestChangePasswordLocked(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))
	identity.On("ChangePassword", mock.Anything, "old", "new").Return(&models.AccountLockedError{Minutes: 5}).Once()

	rec := doJSON(router, http.MethodPost, "/auth/password", `{"old_password":"old","new_password":"new"}`)

	require.Equal(t, http.StatusLocked, rec.Code)
	identity.AssertExpectations(t)
}

func TestUpdateProfilePassesOnlyGivenFields(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))
	identity.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(name *string) bool {
		return name != nil && *name == "Alicia"
	}), (*string)(nil)).Return(models.User{ID: "u-1", Name: "Alicia"}, nil).Once()

	rec := doJSON(router, http.MethodPatch, "/auth/profile", `{"name":"Alicia"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	identity.AssertExpectations(t)
}

func TestListSessionsMarksCurrent(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	identity.On("CurrentSession").Return(models.Session{ID: "s-2"}, true).Once()
	identity.On("ListSessions", "u-1").Return([]models.Session{
		{ID: "s-1", UserID: "u-1", DeviceLabel: "laptop", CreatedAt: created},
		{ID: "s-2", UserID: "u-1", DeviceLabel: "phone", CreatedAt: created.Add(time.Hour)},
	}).Once()

	rec := doJSON(router, http.MethodGet, "/sessions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Sessions []sessionResponse `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Sessions, 2)
	assert.False(t, resp.Sessions[0].Current)
	assert.True(t, resp.Sessions[1].Current)
	identity.AssertExpectations(t)
}

func TestRevokeSessionErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
	}{
		{name: "ok", status: http.StatusNoContent},
		{name: "missing", err: models.ErrSessionNotFound, status: http.StatusNotFound},
		{name: "foreign", err: models.ErrForbidden, status: http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			identity := new(mocks.IdentityServiceMock)
			router := setupAuthRouter(NewAuthHandler(identity))
			identity.On("RevokeSession", mock.Anything, "s-9").Return(tc.err).Once()

			rec := doJSON(router, http.MethodDelete, "/sessions/s-9", "")

			require.Equal(t, tc.status, rec.Code)
			identity.AssertExpectations(t)
		})
	}
}

func TestLogout(t *testing.T) {
	identity := new(mocks.IdentityServiceMock)
	router := setupAuthRouter(NewAuthHandler(identity))
	identity.On("Logout", mock.Anything).Return(nil).Once()

	rec := doJSON(router, http.MethodPost, "/auth/logout", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	identity.AssertExpectations(t)
}
