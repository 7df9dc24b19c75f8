package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Message kinds.
const (
	MessageText       = "text"
	MessageSystem     = "system"
	MessageEscalation = "escalation"
)

// Message is immutable once persisted. Messages for one room are
// totally ordered: the coordinator serializes concurrent senders per
// room and assigns the server timestamp under that lock, so storage
// order and timestamp order agree.
type Message struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID      string        `bson:"room_id" json:"room_id"`
	SenderID    string        `bson:"sender_id" json:"sender_id"`
	SenderName  string        `bson:"sender_name,omitempty" json:"sender_name,omitempty"`
	SenderRole  string        `bson:"sender_role" json:"sender_role"`
	Body        string        `bson:"body" json:"body"`
	Kind        string        `bson:"kind" json:"kind"`
	FileURL     string        `bson:"file_url,omitempty" json:"file_url,omitempty"`
	IsEscalated bool          `bson:"is_escalated" json:"is_escalated"`
	Read        bool          `bson:"read" json:"read"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}
