package entity

import "time"

type GroupChat struct {
	GroupID       string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Description   string
	CreatedBy     string `gorm:"not null"`
	MessageCount  int64  `gorm:"not null;default:0"`
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}
