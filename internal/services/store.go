package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/traderooms/internal/models"
)

// DirectoryStore — запросы чтения, нужные агрегатору списка комнат
type DirectoryStore interface {
	ListActiveRooms(ctx context.Context, offset, limit int) ([]models.Room, int64, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	CountLiveParticipants(ctx context.Context, roomIDs []uuid.UUID) (map[uuid.UUID]int, error)
	SumPositionsPnl(ctx context.Context, roomIDs []uuid.UUID) (map[uuid.UUID]float64, error)
	GetAppSettings(ctx context.Context) (*models.AppSettings, error)
}

// RoomStore — операции мутатора комнат
type RoomStore interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	UpdateRoomIfVersion(ctx context.Context, id uuid.UUID, expected time.Time, fields map[string]interface{}, newVersion time.Time) error
	AddParticipant(ctx context.Context, roomID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error
}

// BalanceStore — чтение и запись виртуального баланса комнаты
type BalanceStore interface {
	GetRoomBalance(ctx context.Context, id uuid.UUID) (float64, error)
	UpdateRoomBalance(ctx context.Context, id uuid.UUID, balance float64) error
}
