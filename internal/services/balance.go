package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/traderooms/internal/database"
	ws "github.com/thereayou/traderooms/internal/websocket"
)

// BalanceService — точка входа расчётов по сделкам: фиксирует новый
// виртуальный баланс комнаты и рассылает его подписчикам через Redis
type BalanceService struct {
	store BalanceStore
	redis *redis.Client
}

func NewBalanceService(store BalanceStore, rdb *redis.Client) *BalanceService {
	return &BalanceService{store: store, redis: rdb}
}

func (s *BalanceService) GetRoomBalance(ctx context.Context, roomID uuid.UUID) (float64, error) {
	balance, err := s.store.GetRoomBalance(ctx, roomID)
	if err != nil {
		if errors.Is(err, database.ErrRoomNotFound) {
			return 0, ErrRoomNotFound
		}
		return 0, err
	}
	return balance, nil
}

// SetRoomBalance пишет баланс в хранилище и только затем публикует событие:
// подписчик, читающий базовое значение из БД, не может увидеть его старее,
// чем уже опубликованное
func (s *BalanceService) SetRoomBalance(ctx context.Context, roomID uuid.UUID, balance float64) error {
	if err := s.store.UpdateRoomBalance(ctx, roomID, balance); err != nil {
		if errors.Is(err, database.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	payload, err := json.Marshal(ws.BalanceUpdate{VirtualBalance: balance})
	if err != nil {
		return fmt.Errorf("marshal balance update: %w", err)
	}

	if err := s.redis.Publish(ctx, ws.BalanceChannel(roomID), payload).Err(); err != nil {
		// Запись уже зафиксирована; подписчики догонят её при следующем
		// событии или переподключении
		logrus.WithError(err).WithField("room_id", roomID).Error("balance publish failed")
		return fmt.Errorf("publish balance update: %w", err)
	}

	return nil
}
