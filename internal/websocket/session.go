package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/room"
)

// SessionManager owns the process-wide session map. It is an instance,
// not a package global: created at startup, entries removed on
// disconnect.
type SessionManager struct {
	hub *Hub

	mu       sync.RWMutex
	sessions map[string]*Client

	sendBuffer int
}

func NewSessionManager(hub *Hub, sendBuffer int) *SessionManager {
	return &SessionManager{
		hub:        hub,
		sessions:   make(map[string]*Client),
		sendBuffer: sendBuffer,
	}
}

// Connect builds and registers a fresh anonymous session for an
// upgraded connection. Identity arrives later via Identify.
func (m *SessionManager) Connect(conn *websocket.Conn) *Client {
	client := NewClient(NewSessionID(), conn, m.sendBuffer)
	m.OnConnect(client)
	return client
}

// OnConnect registers an already-built session. Split from Connect so
// tests can drive the lifecycle without a transport.
func (m *SessionManager) OnConnect(client *Client) {
	m.mu.Lock()
	m.sessions[client.ID] = client
	m.mu.Unlock()

	log.Info().Str("clientID", client.ID).Msg("session: connected")
}

// Identify binds (or rebinds) a user identity to a session. Duplicate
// and re-identify calls are not errors - last write wins. Sessions
// identified with the monitoring role are auto-subscribed to the
// administrative monitor room, which mirrors every room event
// (read-all).
func (m *SessionManager) Identify(client *Client, userID, displayName string, r room.Role) {
	if prev := client.UserID(); prev != "" && prev != userID {
		m.hub.DetachUser(client)
	}

	client.Identify(userID, displayName, r)
	m.hub.AttachUser(client)

	if r.IsMonitor() {
		m.hub.Register(m.hub.MonitorRoom(), client)
	}

	log.Info().Str("clientID", client.ID).Str("userID", userID).Str("role", string(r)).Msg("session: identified")
}

// OnDisconnect removes the session from every room it subscribed to.
// The hub emits presence-offline per room when this was the user's last
// open session there. Persisted membership and message history are
// untouched.
func (m *SessionManager) OnDisconnect(client *Client) {
	for _, roomID := range client.Rooms() {
		m.hub.Unregister(roomID, client)
	}
	m.hub.DetachUser(client)

	m.mu.Lock()
	delete(m.sessions, client.ID)
	m.mu.Unlock()

	log.Info().Str("clientID", client.ID).Str("userID", client.UserID()).Msg("session: disconnected")
}

func (m *SessionManager) Get(sessionID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[sessionID]
	return c, ok
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// NewSessionID mints session identifiers; split out so tests can build
// sessions the same way the handler does.
func NewSessionID() string {
	return uuid.New().String()
}
