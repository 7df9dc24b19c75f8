package entity

import "time"

// PropertyInquiry is the kind-specific sub-state behind inquiry rooms:
// requested -> accepted | rejected. Only accepted inquiries activate
// their room; rejected ones refuse join and send permanently.
type PropertyInquiry struct {
	InquiryID      string `gorm:"primaryKey"`
	PropertyID     string `gorm:"not null;index"`
	OwnerID        string `gorm:"not null;index"`
	VisitorID      string `gorm:"not null;index"`
	VisitorEmail   string `gorm:"not null"`
	VisitorPhone   string
	RequestMessage string
	Status         string `gorm:"not null;default:requested;index"`
	ChatStarted    bool   `gorm:"not null;default:false"`
	MessageCount   int64  `gorm:"not null;default:0"`
	RespondedAt    *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}
