package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins before exposing this outside the platform LB
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Identity is what the handshake authenticator resolves a request to.
type Identity struct {
	UserID      string
	DisplayName string
	Role        room.Role
}

type AuthenticatorFunc func(r *http.Request) (*Identity, error)

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// EventRouter dispatches decoded client events into the chat layer.
// Defined here so the chat service can implement it without the hub
// depending back on the service.
type EventRouter interface {
	HandleEvent(ctx context.Context, c *Client, raw []byte)
}

// WebSocketHandler upgrades HTTP requests into live sessions and feeds
// their frames to the event router.
type WebSocketHandler struct {
	Hub      *Hub
	Sessions *SessionManager
	Router   EventRouter

	MaxConnections int
	RateLimit      struct {
		Enabled          bool
		ConnectionsPerIP int
	}

	authenticator AuthenticatorFunc

	connMu      sync.Mutex
	connections int
	perIP       map[string]int
}

func NewWebSocketHandler(hub *Hub, sessions *SessionManager, router EventRouter, auth AuthenticatorFunc) *WebSocketHandler {
	h := &WebSocketHandler{
		Hub:            hub,
		Sessions:       sessions,
		Router:         router,
		MaxConnections: 10000,
		authenticator:  auth,
		perIP:          make(map[string]int),
	}
	h.RateLimit.Enabled = true
	h.RateLimit.ConnectionsPerIP = 20
	return h
}

// Handle is the ws endpoint. Authentication happens on the handshake;
// the resulting identity seeds the session, and a later identify event
// may rebind it (last write wins).
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	clientIP := h.getClientIP(r)

	if !h.acquireSlot(clientIP) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	identity, err := h.authenticate(r)
	if err != nil {
		h.releaseSlot(clientIP)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.releaseSlot(clientIP)
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	client := h.Sessions.Connect(conn)
	h.Sessions.Identify(client, identity.UserID, identity.DisplayName, identity.Role)

	// the request context dies when this handler returns; events live
	// as long as the connection does
	ctx := context.Background()
	client.SetHandlers(
		func(c *Client, raw []byte) {
			h.Router.HandleEvent(ctx, c, raw)
		},
		func(c *Client) {
			h.Sessions.OnDisconnect(c)
			h.releaseSlot(clientIP)
		},
	)
	client.Start()
}

func (h *WebSocketHandler) authenticate(r *http.Request) (*Identity, error) {
	if h.authenticator == nil {
		// Development fallback: identity from query params.
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			return nil, &AuthError{Message: "user_id is required"}
		}
		roleStr := r.URL.Query().Get("role")
		if roleStr == "" {
			roleStr = string(room.RoleAnonymous)
		}
		return &Identity{UserID: userID, Role: room.Role(roleStr)}, nil
	}
	return h.authenticator(r)
}

func (h *WebSocketHandler) acquireSlot(clientIP string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()

	if h.connections >= h.MaxConnections {
		return false
	}
	if h.RateLimit.Enabled && h.perIP[clientIP] >= h.RateLimit.ConnectionsPerIP {
		return false
	}
	h.connections++
	h.perIP[clientIP]++
	return true
}

func (h *WebSocketHandler) releaseSlot(clientIP string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()

	if h.connections > 0 {
		h.connections--
	}
	h.perIP[clientIP]--
	if h.perIP[clientIP] <= 0 {
		delete(h.perIP, clientIP)
	}
}

// StartCleanup periodically prunes stale per-IP counters.
func (h *WebSocketHandler) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.connMu.Lock()
			for ip, n := range h.perIP {
				if n <= 0 {
					delete(h.perIP, ip)
				}
			}
			h.connMu.Unlock()
		}
	}
}
