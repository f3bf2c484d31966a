package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"marketplace-chat/internal/auth"
	"marketplace-chat/internal/models"
	"marketplace-chat/internal/moderation"
	"marketplace-chat/internal/observability"
	"marketplace-chat/internal/repositories"
)

// HistoryLimit caps how many messages a history push or query returns.
const HistoryLimit = 50

// ChatWebSocketHandler authenticates websocket connections and runs the
// per-connection command loop.
type ChatWebSocketHandler struct {
	hub      *Hub
	users    repositories.UserRepository
	messages repositories.MessageRepository
	verifier *auth.Verifier
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, users repositories.UserRepository, messages repositories.MessageRepository, verifier *auth.Verifier) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, users: users, messages: messages, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, verifies the handshake credential and
// hands the session to the read loop. The credential rides the handshake
// request (Authorization header or token query param), never a first message.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("marketplace-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	token := bearerToken(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		// Distinguishable reason first, then close: expired must be
		// tellable apart from invalid so clients can re-login silently.
		reason := authFailureReason(err)
		payload, _ := json.Marshal(ServerEvent{Event: EventAuthError, Data: AuthErrorPayload{Reason: reason}})
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, payload)
		_ = conn.Close()
		observability.IncWSEvent("ws_auth_" + reason)
		return
	}

	user, err := h.users.GetUser(ctx, identity.ID)
	if err != nil || user.IsBanned {
		// Silent disconnect: no frame that would confirm ban status.
		_ = conn.Close()
		observability.IncWSEvent("ws_forbidden")
		return
	}

	sess := newSession(conn, identity)
	sess.IP = observability.IPFromRequest(c.Request)
	sess.RequestID = observability.RequestIDFromRequest(c.Request)
	sess.TraceID = span.SpanContext().TraceID().String()

	h.hub.Join(GlobalRoom, sess)
	h.hub.Join(UserRoom(identity.ID), sess)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, observability.WSEventRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: observability.WSEventPayload{
			Event:  "ws_connect",
			ConnID: sess.ID,
			UserID: sess.Identity.ID,
			IP:     sess.IP,
		},
	}, observability.BuildHeaders(sess.RequestID, sess.TraceID))

	// Unsolicited global history, oldest first, before any command.
	history, err := h.messages.History(ctx, GlobalRoom, HistoryLimit)
	if err != nil {
		log.Printf("history load error: %v", err)
		history = nil
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	if err := sess.Send(EventHistory, history); err != nil {
		h.teardown(sess, err.Error())
		return
	}

	go h.readLoop(sess)
}

func (h *ChatWebSocketHandler) readLoop(sess *Session) {
	var closeReason string
	defer func() {
		h.teardown(sess, closeReason)
	}()

	stopPing := make(chan struct{})
	defer close(stopPing)
	go h.pingLoop(sess, stopPing)

	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			closeReason = "malformed frame"
			return
		}
		h.dispatch(sess, env)
	}
}

// pingLoop keeps the transport liveness check running so dead connections
// release their room memberships instead of leaking them.
func (h *ChatWebSocketHandler) pingLoop(sess *Session, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := sess.ping(); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (h *ChatWebSocketHandler) teardown(sess *Session, reason string) {
	h.hub.LeaveAll(sess)
	_ = sess.Close()
	observability.DecWSActive()
	observability.IncWSEvent("ws_disconnect")
	_ = observability.PublishEvent(context.Background(), observability.WSEventRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_disconnect",
		Payload: observability.WSEventPayload{
			Event:      "ws_disconnect",
			ConnID:     sess.ID,
			UserID:     sess.Identity.ID,
			IP:         sess.IP,
			DurationMs: time.Since(sess.ConnectedAt).Milliseconds(),
			Reason:     reason,
		},
	}, observability.BuildHeaders(sess.RequestID, sess.TraceID))
}

// dispatch runs one command. Commands are serialized per connection by the
// read loop; persistence uses a background context so closing the socket
// mid-command never leaves a half-written message.
func (h *ChatWebSocketHandler) dispatch(sess *Session, env Envelope) {
	ctx := context.Background()

	switch env.Event {
	case EventGetUserInfo:
		_ = sess.Send(EventUserInfo, UserInfoPayload{
			ID:       sess.Identity.ID,
			Username: sess.Identity.Username,
			Role:     sess.Identity.Role,
		})

	case EventChatSend:
		var payload ChatSendPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.Text == "" {
			return
		}
		h.handleChatSend(ctx, sess, payload.Text)

	case EventChatTyping:
		h.hub.BroadcastExcept(GlobalRoom, EventChatTyping, TypingPayload{Username: sess.Identity.Username}, sess)

	case EventDMSend:
		var payload DMSendPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ToUserID == "" || payload.Text == "" {
			return
		}
		h.handleDMSend(ctx, sess, payload)

	case EventDMHistory:
		var payload DMHistoryPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.WithUserID == "" {
			return
		}
		h.handleDMHistory(ctx, sess, payload.WithUserID)

	default:
		// Unknown commands are ignored, not fatal.
	}
}

func (h *ChatWebSocketHandler) handleChatSend(ctx context.Context, sess *Session, text string) {
	// Reload moderation state per send: an admin can mute mid-connection
	// and the cached identity must not override that.
	user, err := h.users.GetUser(ctx, sess.Identity.ID)
	if err != nil {
		log.Printf("user reload error: %v", err)
		return
	}
	if ok, reason := moderation.CanSend(user, time.Now()); !ok {
		observability.IncModerationDenial(reason)
		_ = sess.Send(EventChatDenied, DeniedPayload{Reason: reason})
		return
	}

	msg, err := h.messages.Append(ctx, GlobalRoom, user.ID, user.Username, text)
	if err != nil {
		log.Printf("message append error: %v", err)
		return
	}
	observability.IncMessagePersisted(RoomKind(GlobalRoom))
	h.hub.Broadcast(GlobalRoom, EventChatMessage, msg)
}

func (h *ChatWebSocketHandler) handleDMSend(ctx context.Context, sess *Session, payload DMSendPayload) {
	room := DMRoom(sess.Identity.ID, payload.ToUserID)
	msg, err := h.messages.Append(ctx, room, sess.Identity.ID, sess.Identity.Username, payload.Text)
	if err != nil {
		log.Printf("message append error: %v", err)
		return
	}
	observability.IncMessagePersisted(RoomKind(room))

	// Deliver to both personal rooms so every connection of either
	// participant receives it, not just sockets joined to the DM room.
	h.hub.Broadcast(UserRoom(payload.ToUserID), EventDMMessage, msg)
	if UserRoom(sess.Identity.ID) != UserRoom(payload.ToUserID) {
		h.hub.Broadcast(UserRoom(sess.Identity.ID), EventDMMessage, msg)
	}
}

func (h *ChatWebSocketHandler) handleDMHistory(ctx context.Context, sess *Session, withUserID string) {
	room := DMRoom(sess.Identity.ID, withUserID)
	history, err := h.messages.History(ctx, room, HistoryLimit)
	if err != nil {
		log.Printf("history load error: %v", err)
		return
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	_ = sess.Send(EventDMHistoryRe, DMHistoryResult{WithUserID: withUserID, Messages: history})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return AuthReasonMissing
	case errors.Is(err, auth.ErrExpiredToken):
		return AuthReasonExpired
	default:
		return AuthReasonInvalid
	}
}
