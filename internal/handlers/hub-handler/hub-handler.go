package hub_handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/handlers"
	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

// HubHandler exposes the live-connection state for operations: who is
// online where, plus the admin levers (broadcast, kick, disconnect).
type HubHandler struct {
	Hub      *websocket.Hub
	Sessions *websocket.SessionManager
}

func NewHubHandler(hub *websocket.Hub, sessions *websocket.SessionManager) *HubHandler {
	return &HubHandler{
		Hub:      hub,
		Sessions: sessions,
	}
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "chat-server",
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	handlers.WriteResponse(w, r, "get websocket stats", h.Hub.GetHubStats())
	return nil
}

func (h *HubHandler) HandleGetRoomStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := room.Normalize(chi.URLParam(r, "roomId"))
	handlers.WriteResponse(w, r, "get websocket room stats", h.Hub.GetRoomStats(roomID))
	return nil
}

type clientInfo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
}

func clientInfos(clients []*websocket.Client) []clientInfo {
	infos := make([]clientInfo, 0, len(clients))
	for _, client := range clients {
		infos = append(infos, clientInfo{
			ID:          client.ID,
			UserID:      client.UserID(),
			Role:        string(client.Role()),
			ConnectedAt: client.ConnectedAt,
			LastSeen:    client.GetLastSeen(),
		})
	}
	return infos
}

func (h *HubHandler) HandleGetRoomClients(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := room.Normalize(chi.URLParam(r, "roomId"))
	handlers.WriteResponse(w, r, "get room clients", clientInfos(h.Hub.GetRoomClients(roomID)))
	return nil
}

func (h *HubHandler) HandleGetUserStatus(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID := chi.URLParam(r, "userId")
	clients := h.Hub.GetUserClients(userID)

	handlers.WriteResponse(w, r, "get user status", map[string]any{
		"user_id":     userID,
		"online":      len(clients) > 0,
		"connections": len(clients),
	})
	return nil
}

func (h *HubHandler) HandleGetUserConnections(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID := chi.URLParam(r, "userId")
	handlers.WriteResponse(w, r, "get user connections", clientInfos(h.Hub.GetUserClients(userID)))
	return nil
}

func (h *HubHandler) requireAdmin(r *http.Request) *app_error.AppError {
	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}
	if !actor.Role.IsMonitor() {
		return app_error.NewForbidden("admin role required", "role")
	}
	return nil
}

func (h *HubHandler) HandleBroadcastToRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	if appErr := h.requireAdmin(r); appErr != nil {
		return appErr
	}

	roomID := room.Normalize(chi.URLParam(r, "roomId"))

	var req struct {
		Message string `json:"message"`
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		return app_error.NewValidation("message is required", "message")
	}

	h.Hub.Publish(roomID, websocket.NewSystemMessage(roomID, req.Message, nil))
	handlers.WriteResponse(w, r, "broadcast sent", map[string]any{"room_id": roomID})
	return nil
}

func (h *HubHandler) HandleBroadcastToUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	if appErr := h.requireAdmin(r); appErr != nil {
		return appErr
	}

	userID := chi.URLParam(r, "userId")

	var req struct {
		Message string `json:"message"`
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		return app_error.NewValidation("message is required", "message")
	}

	h.Hub.BroadcastToUser(userID, websocket.NewSystemMessage("", req.Message, nil))
	handlers.WriteResponse(w, r, "broadcast sent", map[string]any{"user_id": userID})
	return nil
}

// HandleKickUser removes a user's sessions from one room without
// dropping their connections.
func (h *HubHandler) HandleKickUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	if appErr := h.requireAdmin(r); appErr != nil {
		return appErr
	}

	roomID := room.Normalize(chi.URLParam(r, "roomId"))

	var req struct {
		UserID string `json:"user_id"`
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		return app_error.NewValidation("user_id is required", "user_id")
	}

	kicked := 0
	for _, client := range h.Hub.GetRoomClients(roomID) {
		if client.UserID() == req.UserID {
			h.Hub.Unregister(roomID, client)
			kicked++
		}
	}

	handlers.WriteResponse(w, r, "user kicked from room", map[string]any{
		"room_id":  roomID,
		"user_id":  req.UserID,
		"sessions": kicked,
	})
	return nil
}

// HandleDisconnectUser force-closes every connection the user has.
func (h *HubHandler) HandleDisconnectUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	if appErr := h.requireAdmin(r); appErr != nil {
		return appErr
	}

	userID := chi.URLParam(r, "userId")

	clients := h.Hub.GetUserClients(userID)
	for _, client := range clients {
		client.Close()
	}

	handlers.WriteResponse(w, r, "user disconnected", map[string]any{
		"user_id":  userID,
		"sessions": len(clients),
	})
	return nil
}
