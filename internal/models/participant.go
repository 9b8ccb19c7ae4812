package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant — строка истории пребывания в комнате.
// Пользователь "в комнате" тогда и только тогда, когда LeftAt == nil;
// на пару (room, user) может быть несколько исторических строк.
type Participant struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID   uuid.UUID `gorm:"not null;index"`
	UserID   uuid.UUID `gorm:"not null;index"`
	JoinedAt time.Time `gorm:"not null"`
	LeftAt   *time.Time
}
