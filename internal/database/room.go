package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thereayou/traderooms/internal/models"
)

// ListActiveRooms возвращает страницу активных комнат (новые первыми)
// и общее число активных комнат
func (d *Database) ListActiveRooms(ctx context.Context, offset, limit int) ([]models.Room, int64, error) {
	var total int64
	if err := d.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("status = ?", models.RoomStatusActive).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rooms []models.Room
	err := d.db.WithContext(ctx).
		Where("status = ?", models.RoomStatusActive).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, err
	}

	return rooms, total, nil
}

func (d *Database) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := d.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// UpdateRoomIfVersion выполняет условную запись
// "UPDATE ... WHERE id = ? AND updated_at = ?" одним запросом.
// Это единственная атомарная операция подсистемы: проверка версии и запись
// не разносятся на два раунд-трипа.
func (d *Database) UpdateRoomIfVersion(ctx context.Context, id uuid.UUID, expected time.Time, fields map[string]interface{}, newVersion time.Time) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = newVersion

	res := d.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ? AND updated_at = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		// Различаем "комнаты нет" и "версия устарела" повторным чтением;
		// сама запись при этом остаётся одним compare-and-set
		var count int64
		if err := d.db.WithContext(ctx).
			Model(&models.Room{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrRoomNotFound
		}
		return ErrVersionConflict
	}

	return nil
}

func (d *Database) GetRoomBalance(ctx context.Context, id uuid.UUID) (float64, error) {
	var room models.Room
	err := d.db.WithContext(ctx).
		Select("virtual_balance").
		First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRoomNotFound
		}
		return 0, err
	}
	return room.VirtualBalance, nil
}

func (d *Database) UpdateRoomBalance(ctx context.Context, id uuid.UUID, balance float64) error {
	// UpdateColumn, чтобы не трогать updated_at: расчёты по сделкам
	// не должны инвалидировать токен версии редактирования комнаты
	res := d.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", id).
		UpdateColumn("virtual_balance", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}
