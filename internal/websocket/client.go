package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MB
)

// Client is one live session. A user may hold many concurrent sessions
// (tabs, devices); each is independent. Sessions are never persisted -
// they exist from transport connect to disconnect.
type Client struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time

	mu          sync.RWMutex
	userID      string
	displayName string
	role        room.Role
	rooms       map[string]struct{}
	lastSeen    time.Time

	active    atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// onEvent receives every inbound frame; onClose fires exactly once
	// when the session dies, regardless of cause.
	onEvent func(c *Client, raw []byte)
	onClose func(c *Client)
}

func NewClient(id string, conn *websocket.Conn, sendBuffer int) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:          id,
		Conn:        conn,
		Send:        make(chan []byte, sendBuffer),
		ConnectedAt: time.Now(),
		role:        room.RoleAnonymous,
		rooms:       make(map[string]struct{}),
		lastSeen:    time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
	c.active.Store(true)
	return c
}

// Start launches the read and write pumps. Callers without a real
// transport (tests, internal monitors) can skip it and drain Send
// directly.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Identify binds a user identity to the session. Duplicate calls are
// allowed - last write wins, supporting multiple tabs per user.
func (c *Client) Identify(userID, displayName string, r room.Role) {
	c.mu.Lock()
	c.userID = userID
	c.displayName = displayName
	c.role = r
	c.mu.Unlock()
}

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

func (c *Client) Role() room.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

func (c *Client) addRoom(roomID string) {
	c.mu.Lock()
	c.rooms[roomID] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) removeRoom(roomID string) {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
}

// Rooms returns a snapshot of the session's subscribed room ids.
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) InRoom(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[roomID]
	return ok
}

func (c *Client) IsClientActive() bool {
	return c.active.Load()
}

func (c *Client) GetLastSeen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Client) SetHandlers(onEvent func(*Client, []byte), onClose func(*Client)) {
	c.onEvent = onEvent
	c.onClose = onClose
}

// trySend queues data without blocking. A full buffer means a slow
// consumer; the frame is dropped and the caller decides whether to cut
// the session loose.
func (c *Client) trySend(data []byte) bool {
	if !c.active.Load() {
		return false
	}
	select {
	case c.Send <- data:
		return true
	case <-c.ctx.Done():
		return false
	default:
		return false
	}
}

// SendEvent marshals and queues a single event for this session only.
func (c *Client) SendEvent(ev ServerEvent) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("clientID", c.ID).Msg("ws: failed to marshal event")
		return false
	}
	return c.trySend(data)
}

func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears the session down exactly once. Pending deliveries to this
// session are cancelled; in-flight persists it initiated are not.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.active.Store(false)
		c.cancel()
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

// writePump drains c.Send onto the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("clientID", c.ID).Msg("ws: write failed")
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// readPump consumes inbound frames and hands them to onEvent. Pongs
// refresh the read deadline.
func (c *Client) readPump() {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("clientID", c.ID).Msg("ws: unexpected close")
			}
			return
		}
		c.touch()
		if c.onEvent != nil {
			c.onEvent(c, raw)
		}
	}
}
