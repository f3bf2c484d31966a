package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-chat/internal/repositories"
	"marketplace-chat/internal/telemetry"
	"marketplace-chat/internal/ws"
)

// AdminHandler exposes the moderation surface consumed by marketplace
// administrators: bans, timed chat mutes and message redaction.
type AdminHandler struct {
	users    repositories.UserRepository
	messages repositories.MessageRepository
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(users repositories.UserRepository, messages repositories.MessageRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *AdminHandler {
	return &AdminHandler{users: users, messages: messages, hub: hub, audit: audit}
}

// BanUser sets the global ban flag. Live connections are caught by the
// per-send moderation re-check and cannot reconnect afterwards.
func (h *AdminHandler) BanUser(c *gin.Context) {
	h.setBanned(c, true, "user_ban")
}

// UnbanUser clears the global ban flag.
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	h.setBanned(c, false, "user_unban")
}

func (h *AdminHandler) setBanned(c *gin.Context, banned bool, action string) {
	userID := c.Param("id")
	user, err := h.users.SetBanned(c.Request.Context(), userID, banned)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update user"})
		return
	}

	h.audit.Emit(c.Request.Context(), c.GetString("userID"), telemetry.AuditPayload{
		Action:       action,
		TargetUserID: userID,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// MuteUser applies a timed chat mute, defaulting to 60 minutes.
func (h *AdminHandler) MuteUser(c *gin.Context) {
	var req struct {
		Minutes int    `json:"minutes"`
		Reason  string `json:"reason"`
	}
	// Body is optional; missing or malformed input falls back to defaults.
	_ = c.ShouldBindJSON(&req)
	if req.Minutes <= 0 {
		req.Minutes = 60
	}

	userID := c.Param("id")
	until := time.Now().Add(time.Duration(req.Minutes) * time.Minute)
	user, err := h.users.SetChatMutedUntil(c.Request.Context(), userID, &until)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not mute user"})
		return
	}

	h.audit.Emit(c.Request.Context(), c.GetString("userID"), telemetry.AuditPayload{
		Action:       "chat_mute",
		TargetUserID: userID,
		Reason:       req.Reason,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// UnmuteUser clears a chat mute.
func (h *AdminHandler) UnmuteUser(c *gin.Context) {
	userID := c.Param("id")
	user, err := h.users.SetChatMutedUntil(c.Request.Context(), userID, nil)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not unmute user"})
		return
	}

	h.audit.Emit(c.Request.Context(), c.GetString("userID"), telemetry.AuditPayload{
		Action:       "chat_unmute",
		TargetUserID: userID,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// DeleteMessage soft-deletes a message and tells the room to redact it.
func (h *AdminHandler) DeleteMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.messages.SoftDelete(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}

	h.hub.Broadcast(msg.Room, ws.EventChatDeleted, ws.DeletedPayload{MessageID: msg.ID})
	h.audit.Emit(c.Request.Context(), c.GetString("userID"), telemetry.AuditPayload{
		Action:    "message_delete",
		MessageID: msg.ID,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": msg})
}
