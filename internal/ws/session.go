package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"marketplace-chat/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is the per-connection authenticated context. It owns the write
// side of the websocket; all frames go through Send so concurrent fan-outs
// never interleave on the wire.
type Session struct {
	ID          string
	Identity    auth.Identity
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time

	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newSession(conn *websocket.Conn, identity auth.Identity) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Identity:    identity,
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

// Send marshals and writes one event frame. Best effort: the caller decides
// whether a failure tears the session down.
func (s *Session) Send(event string, data interface{}) error {
	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		return err
	}
	return s.sendRaw(payload)
}

func (s *Session) sendRaw(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *Session) ping() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close closes the underlying connection, which unblocks the read loop.
func (s *Session) Close() error {
	return s.conn.Close()
}
