package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/traderooms/internal/models"
)

// SumPositionsPnl суммирует реализованный и нереализованный P&L по комнатам.
// Комнаты без позиций в результат не попадают.
func (d *Database) SumPositionsPnl(ctx context.Context, roomIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	totals := make(map[uuid.UUID]float64)
	if len(roomIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		RoomID uuid.UUID
		Total  float64
	}
	err := d.db.WithContext(ctx).
		Model(&models.Position{}).
		Select("room_id, SUM(realized_pnl + unrealized_pnl) AS total").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		totals[row.RoomID] = row.Total
	}
	return totals, nil
}
