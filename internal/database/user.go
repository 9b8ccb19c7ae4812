package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/traderooms/internal/models"
)

// GetUsersByIDs пакетно читает пользователей по набору id
func (d *Database) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
