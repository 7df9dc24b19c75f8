package chat_service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/websocket"
)

// LiveRouter is the websocket-facing edge of the chat service. Every
// client frame lands here; failures go back to the offending session
// only, never to the room.
type LiveRouter struct {
	Chat     *ChatService
	Sessions *websocket.SessionManager
}

func NewLiveRouter(chat *ChatService, sessions *websocket.SessionManager) *LiveRouter {
	return &LiveRouter{Chat: chat, Sessions: sessions}
}

func (r *LiveRouter) HandleEvent(ctx context.Context, c *websocket.Client, raw []byte) {
	eventType, payload, appErr := websocket.DecodeClientEvent(raw)
	if appErr != nil {
		c.SendEvent(websocket.NewErrorEvent(appErr))
		return
	}

	switch p := payload.(type) {
	case *websocket.IdentifyPayload:
		r.Sessions.Identify(c, p.UserID, p.DisplayName, room.Role(p.Role))
	case *websocket.JoinRoomPayload:
		r.handleJoin(ctx, c, p.RoomID)
	case *websocket.LeaveRoomPayload:
		r.Chat.Hub.Unregister(room.Normalize(p.RoomID), c)
	case *websocket.SendMessagePayload:
		r.handleSend(ctx, c, p)
	case *websocket.TypingPayload:
		r.handleTyping(c, p)
	case *websocket.MarkReadPayload:
		r.handleMarkRead(ctx, c, p.RoomID)
	default:
		log.Warn().Str("type", eventType).Msg("router: unhandled event type")
	}
}

func (r *LiveRouter) actor(c *websocket.Client) (Actor, *app_error.AppError) {
	userID := c.UserID()
	if userID == "" {
		return Actor{}, app_error.NewForbidden("identify before interacting with rooms", "user_id")
	}
	return Actor{
		UserID:      userID,
		DisplayName: c.DisplayName(),
		Role:        c.Role(),
	}, nil
}

func (r *LiveRouter) handleJoin(ctx context.Context, c *websocket.Client, roomID string) {
	actor, appErr := r.actor(c)
	if appErr != nil {
		c.SendEvent(websocket.NewErrorEvent(appErr))
		return
	}

	rm, appErr := r.Chat.JoinRoom(ctx, actor, roomID)
	if appErr != nil {
		c.SendEvent(websocket.NewErrorEvent(appErr))
		return
	}

	r.Chat.Hub.Register(rm.ID, c)
}

func (r *LiveRouter) handleSend(ctx context.Context, c *websocket.Client, p *websocket.SendMessagePayload) {
	actor, appErr := r.actor(c)
	if appErr != nil {
		c.SendEvent(websocket.NewErrorEvent(appErr))
		return
	}

	_, appErr = r.Chat.SendMessage(ctx, actor, p.RoomID, chat_dto.SendMessageRequest{
		Body:        p.Body,
		Kind:        p.Kind,
		FileURL:     p.FileURL,
		IsEscalated: p.IsEscalated,
	})
	if appErr != nil {
		c.SendEvent(websocket.NewErrorEvent(appErr))
	}
}

// Typing is ephemeral: no persistence, no metadata, just a relay to the
// other live subscribers.
func (r *LiveRouter) handleTyping(c *websocket.Client, p *websocket.TypingPayload) {
	userID := c.UserID()
	if userID == "" {
		return
	}
	roomID := room.Normalize(p.RoomID)
	if !c.InRoom(roomID) {
		return
	}

	r.Chat.Hub.PublishExceptUser(roomID, websocket.NewServerEvent("typing", roomID, map[string]any{
		"user_id":   userID,
		"is_typing": p.IsTyping,
	}), userID)
}

func (r *LiveRouter) handleMarkRead(ctx context.Context, c *websocket.Client, roomID string) {
	actor, appErr := r.actor(c)
	if appErr != nil {
		c.SendEvent(websocket.NewErrorEvent(appErr))
		return
	}

	if _, appErr := r.Chat.MarkRead(ctx, actor, roomID); appErr != nil {
		c.SendEvent(websocket.NewErrorEvent(appErr))
	}
}
