package models

import "time"

// AppSettings — единственная запись с глобальными настройками площадки
type AppSettings struct {
	ID              uint    `gorm:"primaryKey"`
	StartingBalance float64 `gorm:"not null;default:0"`
	UpdatedAt       time.Time
}

func (AppSettings) TableName() string {
	return "app_settings"
}
