package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoomStatusActive = "active"
	RoomStatusClosed = "closed"

	RoomCategoryRegular = "regular"
	RoomCategoryVoice   = "voice"

	RoomPrivacyPublic  = "public"
	RoomPrivacyPrivate = "private"
)

// AllowedSymbols — фиксированный список торговых пар; серверная проверка авторитетна
var AllowedSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

func IsAllowedSymbol(symbol string) bool {
	for _, s := range AllowedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

type Room struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string    `gorm:"not null"`
	CreatorID      uuid.UUID `gorm:"not null;index"`
	Symbol         string    `gorm:"not null"`
	Category       string    `gorm:"not null;default:'regular';check:category IN ('regular','voice')"`
	Privacy        string    `gorm:"not null;default:'public';check:privacy IN ('public','private')"`
	PasswordHash   *string
	Status         string  `gorm:"not null;default:'active';index"`
	VirtualBalance float64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	// UpdatedAt служит токеном версии для optimistic concurrency control
	UpdatedAt time.Time `gorm:"not null;index"`

	// Связи
	Creator      User          `gorm:"foreignKey:CreatorID"`
	Participants []Participant `gorm:"foreignKey:RoomID"`
	Positions    []Position    `gorm:"foreignKey:RoomID"`
}
