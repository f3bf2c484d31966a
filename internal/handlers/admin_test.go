package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marketplace-chat/internal/mocks"
	"marketplace-chat/internal/models"
	"marketplace-chat/internal/repositories"
	"marketplace-chat/internal/telemetry"
	"marketplace-chat/internal/ws"
)

func setupAdminRouter(handler *AdminHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "admin1")
		c.Set("userRole", "admin")
		c.Next()
	})
	r.POST("/admin/users/:id/ban", handler.BanUser)
	r.POST("/admin/users/:id/unban", handler.UnbanUser)
	r.POST("/admin/users/:id/chat-mute", handler.MuteUser)
	r.POST("/admin/users/:id/chat-unmute", handler.UnmuteUser)
	r.POST("/admin/chat/:id/delete", handler.DeleteMessage)
	return r
}

func newAdminHandler(users *mocks.UserRepositoryMock, messages *mocks.MessageRepositoryMock, audit *telemetry.AuditEmitter) *AdminHandler {
	return NewAdminHandler(users, messages, ws.NewHub(), audit)
}

func TestBanUserSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := newAdminHandler(users, new(mocks.MessageRepositoryMock), nil)
	router := setupAdminRouter(handler)

	users.On("SetBanned", mock.Anything, "u2", true).Return(models.User{ID: "u2", IsBanned: true}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/users/u2/ban", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestBanUserNotFound(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := newAdminHandler(users, new(mocks.MessageRepositoryMock), nil)
	router := setupAdminRouter(handler)

	users.On("SetBanned", mock.Anything, "ghost", true).Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/users/ghost/ban", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	users.AssertExpectations(t)
}

func TestMuteUserDefaultsToSixtyMinutes(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := newAdminHandler(users, new(mocks.MessageRepositoryMock), nil)
	router := setupAdminRouter(handler)

	users.On("SetChatMutedUntil", mock.Anything, "u2", mock.MatchedBy(func(until *time.Time) bool {
		if until == nil {
			return false
		}
		remaining := time.Until(*until)
		return remaining > 59*time.Minute && remaining <= 60*time.Minute
	})).Return(models.User{ID: "u2"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/users/u2/chat-mute", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestMuteUserCustomDuration(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := newAdminHandler(users, new(mocks.MessageRepositoryMock), nil)
	router := setupAdminRouter(handler)

	users.On("SetChatMutedUntil", mock.Anything, "u2", mock.MatchedBy(func(until *time.Time) bool {
		if until == nil {
			return false
		}
		remaining := time.Until(*until)
		return remaining > 9*time.Minute && remaining <= 10*time.Minute
	})).Return(models.User{ID: "u2"}, nil).Once()

	body := bytes.NewBufferString(`{"minutes":10,"reason":"spam"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/users/u2/chat-mute", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestUnmuteUserClearsMute(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := newAdminHandler(users, new(mocks.MessageRepositoryMock), nil)
	router := setupAdminRouter(handler)

	users.On("SetChatMutedUntil", mock.Anything, "u2", (*time.Time)(nil)).Return(models.User{ID: "u2"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/users/u2/chat-unmute", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := newAdminHandler(new(mocks.UserRepositoryMock), messages, nil)
	router := setupAdminRouter(handler)

	deleted := models.ChatMessage{ID: 7, Room: "global", IsDeleted: true}
	messages.On("SoftDelete", mock.Anything, 7).Return(deleted, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/chat/7/delete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messages.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := newAdminHandler(new(mocks.UserRepositoryMock), messages, nil)
	router := setupAdminRouter(handler)

	messages.On("SoftDelete", mock.Anything, 99).Return(models.ChatMessage{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/chat/99/delete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messages.AssertExpectations(t)
}

func TestDeleteMessageInvalidID(t *testing.T) {
	handler := newAdminHandler(new(mocks.UserRepositoryMock), new(mocks.MessageRepositoryMock), nil)
	router := setupAdminRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/admin/chat/abc/delete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMuteEmitsAuditEvent(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	publisher := new(mocks.PublisherMock)
	audit := telemetry.NewAuditEmitter(publisher, "audit.moderation", "marketplace-chat", "test")
	handler := newAdminHandler(users, new(mocks.MessageRepositoryMock), audit)
	router := setupAdminRouter(handler)

	users.On("SetChatMutedUntil", mock.Anything, "u2", mock.Anything).Return(models.User{ID: "u2"}, nil).Once()
	publisher.On("PublishJSON", mock.Anything, "audit.moderation", mock.MatchedBy(func(event interface{}) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok && envelope.ActorID == "admin1" && envelope.Payload.Action == "chat_mute"
	}), mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/users/u2/chat-mute", bytes.NewBufferString(`{"minutes":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
