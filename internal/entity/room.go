package entity

import (
	"time"
)

// Room is the persisted side of a conversation channel. The live
// subscriber set lives in the websocket hub; this record is the durable
// membership and lifecycle state. Rooms are never hard-deleted, only
// closed or archived.
type Room struct {
	ID            string    `gorm:"primaryKey"` // canonical wire id, e.g. DIRECT_a_b
	Kind          string    `gorm:"not null;index"`
	Status        string    `gorm:"not null;default:active;index"`
	PropertyID    string    `gorm:"index"`
	PropertyName  string
	BookingID     string `gorm:"index"`
	Area          string `gorm:"index"`
	MessageCount  int64  `gorm:"not null;default:0"`
	LastMessageAt *time.Time
	CreatedBy     string
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

type RoomParticipant struct {
	ID          int64  `gorm:"primaryKey"`
	RoomID      string `gorm:"not null;uniqueIndex:idx_room_user"`
	UserID      string `gorm:"not null;uniqueIndex:idx_room_user"`
	DisplayName string
	Role        string    `gorm:"not null"`
	JoinedAt    time.Time `gorm:"autoCreateTime"`
	LeftAt      *time.Time
}

// ScheduledVisit belongs to booking rooms only.
type ScheduledVisit struct {
	ID            int64     `gorm:"primaryKey"`
	RoomID        string    `gorm:"not null;index"`
	VisitType     string    `gorm:"not null"` // physical | virtual
	ScheduledDate time.Time `gorm:"not null"`
	ScheduledTime string
	Status        string `gorm:"not null;default:pending"` // pending | confirmed | completed | cancelled
	ScheduledBy   string
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}
