package entity

import "time"

// Support ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in-progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

type SupportTicket struct {
	TicketID     string  `gorm:"primaryKey"`
	ReporterID   string  `gorm:"not null;index"`
	AssignedTo   *string `gorm:"index"`
	Status       string  `gorm:"not null;default:open;index"`
	Subject      string  `gorm:"not null"`
	Description  string
	Priority     string `gorm:"not null;default:medium"` // low | medium | high
	MessageCount int64  `gorm:"not null;default:0"`
	RespondedAt  *time.Time
	ClosedAt     *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func ValidTicketStatus(s string) bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}
