package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/traderooms/internal/models"
)

// CountLiveParticipants считает участников с left_at IS NULL по каждой комнате.
// Комнаты без живых участников в результат не попадают.
func (d *Database) CountLiveParticipants(ctx context.Context, roomIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	if len(roomIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		RoomID uuid.UUID
		Total  int
	}
	err := d.db.WithContext(ctx).
		Model(&models.Participant{}).
		Select("room_id, COUNT(*) AS total").
		Where("room_id IN ? AND left_at IS NULL", roomIDs).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.RoomID] = row.Total
	}
	return counts, nil
}

func (d *Database) AddParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	p := models.Participant{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	return d.db.WithContext(ctx).Create(&p).Error
}

// RemoveParticipant закрывает все живые строки пользователя в комнате
func (d *Database) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	now := time.Now()
	return d.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ? AND left_at IS NULL", roomID, userID).
		Update("left_at", now).Error
}
