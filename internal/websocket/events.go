package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
)

// Client -> server event types. Each carries a fixed payload schema
// validated at the connection boundary; unknown types are rejected
// before they reach any dispatch logic.
const (
	EventIdentify    = "identify"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventMarkRead    = "mark_read"
)

// Server -> client event types.
const (
	EventMessageReceived = "message_received"
	EventPresenceChanged = "presence_changed"
	EventRoomClosed      = "room_closed"
	EventStatusChanged   = "status_changed"
	EventVisitScheduled  = "visit_scheduled"
	EventMessagesRead    = "messages_read"
	EventError           = "error"
)

var validate = validator.New()

type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type IdentifyPayload struct {
	UserID      string `json:"user_id" validate:"required"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role" validate:"required,oneof=tenant owner area_manager super_admin anonymous"`
}

type JoinRoomPayload struct {
	RoomID string `json:"room_id" validate:"required"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"room_id" validate:"required"`
}

type SendMessagePayload struct {
	RoomID      string `json:"room_id" validate:"required"`
	Body        string `json:"body" validate:"required,min=1"`
	Kind        string `json:"kind,omitempty" validate:"omitempty,oneof=text system escalation"`
	FileURL     string `json:"file_url,omitempty" validate:"omitempty,url"`
	IsEscalated bool   `json:"is_escalated,omitempty"`
}

type TypingPayload struct {
	RoomID   string `json:"room_id" validate:"required"`
	IsTyping bool   `json:"is_typing"`
}

type MarkReadPayload struct {
	RoomID string `json:"room_id" validate:"required"`
}

// DecodeClientEvent parses and validates a raw frame into a typed
// payload. The returned value is one of the *Payload structs above.
func DecodeClientEvent(raw []byte) (string, any, *app_error.AppError) {
	var ev ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return "", nil, app_error.NewValidation("malformed event frame", "frame")
	}

	var payload any
	switch ev.Type {
	case EventIdentify:
		payload = &IdentifyPayload{}
	case EventJoinRoom:
		payload = &JoinRoomPayload{}
	case EventLeaveRoom:
		payload = &LeaveRoomPayload{}
	case EventSendMessage:
		payload = &SendMessagePayload{}
	case EventTyping:
		payload = &TypingPayload{}
	case EventMarkRead:
		payload = &MarkReadPayload{}
	default:
		return "", nil, app_error.NewValidation(fmt.Sprintf("unknown event type %q", ev.Type), "type")
	}

	if err := json.Unmarshal(ev.Data, payload); err != nil {
		return "", nil, app_error.NewValidation(fmt.Sprintf("invalid %s payload", ev.Type), "data")
	}
	if err := validate.Struct(payload); err != nil {
		return "", nil, app_error.NewValidation(fmt.Sprintf("invalid %s payload: %v", ev.Type, err), "data")
	}

	return ev.Type, payload, nil
}

// ServerEvent is the outgoing frame. Data carries the event-specific
// body; RoomID is set by the hub on room broadcasts.
type ServerEvent struct {
	Type      string         `json:"type"`
	RoomID    string         `json:"room_id,omitempty"`
	SenderID  string         `json:"sender_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func NewServerEvent(eventType, roomID string, data map[string]any) ServerEvent {
	return ServerEvent{
		Type:      eventType,
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

func NewSystemMessage(roomID, content string, data map[string]any) ServerEvent {
	if data == nil {
		data = map[string]any{}
	}
	data["content"] = content
	data["kind"] = "system"
	return NewServerEvent(EventMessageReceived, roomID, data)
}

func NewPresenceEvent(roomID, userID string, online bool) ServerEvent {
	return NewServerEvent(EventPresenceChanged, roomID, map[string]any{
		"user_id": userID,
		"online":  online,
	})
}

func NewRoomClosedEvent(roomID, closedBy, reason string) ServerEvent {
	return NewServerEvent(EventRoomClosed, roomID, map[string]any{
		"closed_by": closedBy,
		"reason":    reason,
	})
}

func NewStatusChangedEvent(roomID, entityKind, entityID, newStatus string) ServerEvent {
	return NewServerEvent(EventStatusChanged, roomID, map[string]any{
		"entity_kind": entityKind,
		"entity_id":   entityID,
		"status":      newStatus,
	})
}

func NewErrorEvent(appErr *app_error.AppError) ServerEvent {
	return NewServerEvent(EventError, "", map[string]any{
		"code":    appErr.Code,
		"message": appErr.Message,
		"field":   appErr.Field,
	})
}
