package database

import (
	"context"

	"github.com/thereayou/traderooms/internal/models"
)

func (d *Database) GetAppSettings(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	if err := d.db.WithContext(ctx).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
