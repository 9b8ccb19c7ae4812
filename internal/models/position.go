package models

import (
	"time"

	"github.com/google/uuid"
)

type Position struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID        uuid.UUID `gorm:"not null;index"`
	UserID        uuid.UUID `gorm:"not null;index"`
	Symbol        string    `gorm:"not null"`
	RealizedPnl   float64   `gorm:"not null;default:0"`
	UnrealizedPnl float64   `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
