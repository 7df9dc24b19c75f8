package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Hub owns the live subscriber sets and is the broadcast router. Every
// room event published here reaches the room's subscribers at call time
// plus the administrative monitor room, which mirrors all traffic.
// Delivery is fire-and-forget per subscriber: a slow or dead session
// never blocks the rest of the room.
type Hub struct {
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	userClients map[string][]*Client
	userMu      sync.RWMutex

	// monitorRoom subscribers receive a copy of every event published
	// to any room.
	monitorRoom string

	// notifySelf echoes presence events back to the session that
	// triggered them.
	notifySelf bool

	stats   HubStats
	statsMu sync.RWMutex

	ctx           context.Context
	cancel        context.CancelFunc
	cleanupTicker *time.Ticker
}

type HubStats struct {
	TotalRooms       int       `json:"total_rooms"`
	TotalClients     int       `json:"total_clients"`
	TotalConnections int64     `json:"total_connections"`
	EventsSent       int64     `json:"events_sent"`
	LastReset        time.Time `json:"last_reset"`
}

func NewHub(monitorRoom string, notifySelf bool) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		rooms:       make(map[string]map[*Client]struct{}),
		userClients: make(map[string][]*Client),
		monitorRoom: monitorRoom,
		notifySelf:  notifySelf,
		ctx:         ctx,
		cancel:      cancel,
		stats: HubStats{
			LastReset: time.Now(),
		},
		cleanupTicker: time.NewTicker(1 * time.Minute),
	}

	go hub.cleanupRoutine()

	return hub
}

// MonitorRoom returns the id of the administrative mirror room.
func (h *Hub) MonitorRoom() string {
	return h.monitorRoom
}

// Register subscribes a client to a room. The first session a user has
// in the room emits presence-online to the existing subscribers.
func (h *Hub) Register(roomID string, client *Client) {
	// The presence transition is decided under the same lock that
	// mutates the set, or two sessions registering at once would both
	// see the user as offline and emit duplicate presence events.
	h.mu.Lock()
	wasOnline := h.userInRoomLocked(roomID, client.UserID())
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][client] = struct{}{}
	size := len(h.rooms[roomID])
	h.mu.Unlock()

	client.addRoom(roomID)

	h.updateStats(func(stats *HubStats) {
		stats.TotalConnections++
	})

	if !wasOnline && client.UserID() != "" {
		h.broadcastUserStatus(roomID, client.UserID(), true)
	}

	log.Info().Str("roomID", roomID).Str("clientID", client.ID).Str("userID", client.UserID()).Int("roomSize", size).Msg("ws: client registered to room")
}

// Unregister removes a client from a room. When the user has no other
// session left in the room, presence-offline goes out to the remaining
// subscribers.
func (h *Hub) Unregister(roomID string, client *Client) {
	userID := client.UserID()

	h.mu.Lock()
	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	stillOnline := h.userInRoomLocked(roomID, userID)
	h.mu.Unlock()

	client.removeRoom(roomID)

	if userID != "" && !stillOnline {
		h.broadcastUserStatus(roomID, userID, false)
	}

	log.Info().Str("roomID", roomID).Str("clientID", client.ID).Str("userID", client.UserID()).Msg("ws: client unregistered from room")
}

// AttachUser indexes the client under its identified user id so that
// user-directed events find every open session.
func (h *Hub) AttachUser(client *Client) {
	userID := client.UserID()
	if userID == "" {
		return
	}
	h.userMu.Lock()
	defer h.userMu.Unlock()
	for _, c := range h.userClients[userID] {
		if c == client {
			return
		}
	}
	h.userClients[userID] = append(h.userClients[userID], client)
}

// DetachUser drops the client from the user index.
func (h *Hub) DetachUser(client *Client) {
	userID := client.UserID()
	if userID == "" {
		return
	}
	h.userMu.Lock()
	defer h.userMu.Unlock()
	clients := h.userClients[userID]
	for i, c := range clients {
		if c == client {
			h.userClients[userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.userClients[userID]) == 0 {
		delete(h.userClients, userID)
	}
}

// Publish delivers an event to the room's current subscriber set plus
// the monitor room. The set is read at call time, not earlier: a
// session joining after Publish begins is not guaranteed delivery. A
// still-subscribed session receives at most one copy even when it also
// sits in the monitor room.
func (h *Hub) Publish(roomID string, event ServerEvent) {
	h.publish(roomID, event, "")
}

// PublishExceptUser is Publish minus every session of one user.
func (h *Hub) PublishExceptUser(roomID string, event ServerEvent, exceptUserID string) {
	h.publish(roomID, event, exceptUserID)
}

func (h *Hub) publish(roomID string, event ServerEvent, exceptUserID string) {
	event.RoomID = roomID

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("roomID", roomID).Msg("ws: failed to marshal broadcast event")
		return
	}

	// Snapshot targets under the read lock, deliver outside it.
	h.mu.RLock()
	targets := make(map[*Client]struct{})
	for client := range h.rooms[roomID] {
		targets[client] = struct{}{}
	}
	if roomID != h.monitorRoom {
		for client := range h.rooms[h.monitorRoom] {
			targets[client] = struct{}{}
		}
	}
	h.mu.RUnlock()

	sent := 0
	for client := range targets {
		if exceptUserID != "" && client.UserID() == exceptUserID {
			continue
		}
		if !client.IsClientActive() {
			continue
		}
		if client.trySend(data) {
			sent++
			continue
		}
		if client.IsClientActive() {
			// Buffer full: slow consumer. Drop the frame and cut the
			// session rather than stall the room.
			log.Warn().Str("roomID", roomID).Str("clientID", client.ID).Msg("ws: slow consumer, dropping and closing")
			go client.Close()
		}
	}

	h.updateStats(func(stats *HubStats) {
		stats.EventsSent += int64(sent)
	})

	log.Debug().Str("roomID", roomID).Int("targets", sent).Str("eventType", event.Type).Msg("ws: broadcast completed")
}

// BroadcastToUser sends an event to every open session of one user.
func (h *Hub) BroadcastToUser(userID string, event ServerEvent) {
	h.userMu.RLock()
	clients := make([]*Client, len(h.userClients[userID]))
	copy(clients, h.userClients[userID])
	h.userMu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("ws: failed to marshal user event")
		return
	}

	for _, client := range clients {
		if !client.trySend(data) && client.IsClientActive() {
			log.Warn().Str("userID", userID).Str("clientID", client.ID).Msg("ws: user client buffer full")
		}
	}
}

func (h *Hub) GetRoomClients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	for client := range h.rooms[roomID] {
		if client.IsClientActive() {
			clients = append(clients, client)
		}
	}
	return clients
}

func (h *Hub) GetUserClients(userID string) []*Client {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	var activeClients []*Client
	for _, client := range h.userClients[userID] {
		if client.IsClientActive() {
			activeClients = append(activeClients, client)
		}
	}
	return activeClients
}

// IsUserOnlineInRoom reports live presence: true only while the user
// has at least one active session subscribed to the room. This is the
// single source of presence truth; nothing is persisted.
func (h *Hub) IsUserOnlineInRoom(roomID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userInRoomLocked(roomID, userID)
}

// userInRoomLocked is the lock-free core of IsUserOnlineInRoom; the
// caller must hold h.mu.
func (h *Hub) userInRoomLocked(roomID, userID string) bool {
	if userID == "" {
		return false
	}
	for client := range h.rooms[roomID] {
		if client.UserID() == userID && client.IsClientActive() {
			return true
		}
	}
	return false
}

func (h *Hub) GetRoomStats(roomID string) map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]any{
		"room_id": roomID,
		"exists":  false,
	}

	if clients, ok := h.rooms[roomID]; ok {
		activeClients := 0
		uniqueUsers := make(map[string]bool)
		for client := range clients {
			if client.IsClientActive() {
				activeClients++
				uniqueUsers[client.UserID()] = true
			}
		}
		stats["exists"] = true
		stats["total_connections"] = len(clients)
		stats["active_connections"] = activeClients
		stats["unique_users"] = len(uniqueUsers)
	}

	return stats
}

func (h *Hub) GetHubStats() HubStats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	h.mu.RLock()
	h.stats.TotalRooms = len(h.rooms)
	totalClients := 0
	for _, clients := range h.rooms {
		for client := range clients {
			if client.IsClientActive() {
				totalClients++
			}
		}
	}
	h.stats.TotalClients = totalClients
	h.mu.RUnlock()

	return h.stats
}

func (h *Hub) broadcastUserStatus(roomID, userID string, online bool) {
	event := NewPresenceEvent(roomID, userID, online)
	if h.notifySelf {
		h.publish(roomID, event, "")
		return
	}
	h.publish(roomID, event, userID)
}

func (h *Hub) updateStats(fn func(*HubStats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}

func (h *Hub) cleanupRoutine() {
	defer h.cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.cleanupTicker.C:
			h.performCleanup()
		}
	}
}

func (h *Hub) performCleanup() {
	now := time.Now()
	inactiveThreshold := 2 * time.Minute

	var toRemove []*Client

	h.mu.RLock()
	for _, clients := range h.rooms {
		for client := range clients {
			if !client.IsClientActive() || now.Sub(client.GetLastSeen()) > inactiveThreshold {
				toRemove = append(toRemove, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range toRemove {
		log.Info().Str("clientID", client.ID).Msg("ws: cleaning up inactive client")
		client.Close()
	}

	if len(toRemove) > 0 {
		log.Debug().Int("cleaned", len(toRemove)).Msg("ws: cleanup routine completed")
	}
}

// Close gracefully shuts down the hub.
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	h.mu.RLock()
	var allClients []*Client
	for _, clients := range h.rooms {
		for client := range clients {
			allClients = append(allClients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range allClients {
		client.Close()
	}

	log.Info().Int("clients", len(allClients)).Msg("ws: hub shutdown completed")
}
