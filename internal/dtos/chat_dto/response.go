package chat_dto

import (
	"time"

	"github.com/thira3721-ai/roomhy/internal/entity"
)

type RoomResponse struct {
	RoomID        string                   `json:"room_id"`
	Kind          string                   `json:"kind"`
	Status        string                   `json:"status"`
	Participants  []entity.RoomParticipant `json:"participants,omitempty"`
	PropertyID    string                   `json:"property_id,omitempty"`
	PropertyName  string                   `json:"property_name,omitempty"`
	Area          string                   `json:"area,omitempty"`
	MessageCount  int64                    `json:"message_count"`
	LastMessageAt *time.Time               `json:"last_message_at,omitempty"`
}

type SendMessageResponse struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type GetMessagesResponse struct {
	Messages   []entity.Message `json:"messages"`
	NextCursor *string          `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}
