package ws

import (
	"encoding/json"

	"marketplace-chat/internal/models"
)

// Client -> server events.
const (
	EventGetUserInfo = "getUserInfo"
	EventChatSend    = "chat:send"
	EventChatTyping  = "chat:typing"
	EventDMSend      = "dm:send"
	EventDMHistory   = "dm:history"
)

// Server -> client events.
const (
	EventAuthError   = "auth:error"
	EventUserInfo    = "userInfo"
	EventHistory     = "history"
	EventChatMessage = "chat:message"
	EventChatDenied  = "chat:denied"
	EventChatDeleted = "chat:deleted"
	EventDMMessage   = "dm:message"
	EventDMHistoryRe = "dm:history"
)

// Handshake auth failure reasons, distinguishable so clients can tell an
// expired credential (silent re-login) from a bad one (hard logout).
const (
	AuthReasonMissing = "missing"
	AuthReasonExpired = "expired"
	AuthReasonInvalid = "invalid"
)

// Envelope is the wire format in both directions: an event name plus a
// payload decoded lazily into the event's concrete struct.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is an outbound frame before marshalling.
type ServerEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// ChatSendPayload carries a global chat message from the client.
type ChatSendPayload struct {
	Text string `json:"text"`
}

// DMSendPayload carries a direct message from the client.
type DMSendPayload struct {
	ToUserID string `json:"toUserId"`
	Text     string `json:"text"`
}

// DMHistoryPayload requests DM history with another user.
type DMHistoryPayload struct {
	WithUserID string `json:"withUserId"`
}

// UserInfoPayload answers getUserInfo.
type UserInfoPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// DeniedPayload tells the sender a message was dropped by moderation. The
// reason never includes the mute expiry.
type DeniedPayload struct {
	Reason string `json:"reason"`
}

// DeletedPayload tells room members to redact a message.
type DeletedPayload struct {
	MessageID int `json:"messageId"`
}

// AuthErrorPayload reports a handshake failure before the connection closes.
type AuthErrorPayload struct {
	Reason string `json:"reason"`
}

// DMHistoryResult answers dm:history, messages oldest first.
type DMHistoryResult struct {
	WithUserID string               `json:"withUserId"`
	Messages   []models.ChatMessage `json:"messages"`
}

// TypingPayload relays who is typing in the global room.
type TypingPayload struct {
	Username string `json:"username"`
}
