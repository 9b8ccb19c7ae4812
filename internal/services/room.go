package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/traderooms/internal/database"
	"github.com/thereayou/traderooms/internal/models"
)

// UpdateRoomInput — полезная нагрузка PATCH-запроса.
// UpdatedAt — токен версии из последнего чтения, которое видел клиент.
type UpdateRoomInput struct {
	ID        string
	Name      string
	Symbol    string
	Privacy   string
	Password  string
	UpdatedAt string
}

type RoomService struct {
	store RoomStore
}

func NewRoomService(store RoomStore) *RoomService {
	return &RoomService{store: store}
}

// UpdateRoom проверяет вход и применяет изменения одной условной записью
// "UPDATE ... WHERE id AND updated_at". Из двух гонящихся писателей со
// старым токеном успеет максимум один, второй получит ErrVersionConflict.
func (s *RoomService) UpdateRoom(ctx context.Context, input UpdateRoomInput) (time.Time, error) {
	if input.ID == "" {
		return time.Time{}, newValidationError("id", "room id is required")
	}
	roomID, err := uuid.Parse(input.ID)
	if err != nil {
		return time.Time{}, newValidationError("id", "room id must be a valid uuid")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return time.Time{}, newValidationError("name", "room name cannot be empty")
	}

	if !models.IsAllowedSymbol(input.Symbol) {
		return time.Time{}, newValidationError("symbol", "symbol is not tradable")
	}

	if input.Privacy != models.RoomPrivacyPublic && input.Privacy != models.RoomPrivacyPrivate {
		return time.Time{}, newValidationError("privacy", "privacy must be public or private")
	}

	var passwordHash *string
	if input.Privacy == models.RoomPrivacyPrivate {
		if input.Password == "" {
			return time.Time{}, newValidationError("password", "password is required for a private room")
		}
		passwordHash = &input.Password
	}
	// Для публичной комнаты присланный пароль отбрасывается: хеш обнуляется

	if input.UpdatedAt == "" {
		return time.Time{}, newValidationError("updatedAt", "version token is required")
	}
	expected, err := time.Parse(time.RFC3339Nano, input.UpdatedAt)
	if err != nil {
		return time.Time{}, newValidationError("updatedAt", "version token must be an RFC3339 timestamp")
	}
	// Postgres хранит метки с точностью до микросекунды
	expected = expected.Truncate(time.Microsecond)

	newVersion := time.Now().UTC().Truncate(time.Microsecond)
	if !newVersion.After(expected) {
		// Токен монотонен в пределах строки, даже если часы не ушли вперёд
		newVersion = expected.Add(time.Microsecond)
	}

	fields := map[string]interface{}{
		"name":          name,
		"symbol":        input.Symbol,
		"privacy":       input.Privacy,
		"password_hash": passwordHash,
	}

	if err := s.store.UpdateRoomIfVersion(ctx, roomID, expected, fields, newVersion); err != nil {
		switch {
		case errors.Is(err, database.ErrRoomNotFound):
			return time.Time{}, ErrRoomNotFound
		case errors.Is(err, database.ErrVersionConflict):
			return time.Time{}, ErrVersionConflict
		default:
			logrus.WithError(err).WithField("room_id", roomID).Error("room update failed")
			return time.Time{}, err
		}
	}

	return newVersion, nil
}

// JoinRoom добавляет пользователя в комнату; приватная комната требует пароль
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID uuid.UUID, password string) error {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, database.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	if room.Status != models.RoomStatusActive {
		return ErrRoomClosed
	}

	if room.Privacy == models.RoomPrivacyPrivate {
		if room.PasswordHash == nil ||
			bcrypt.CompareHashAndPassword([]byte(*room.PasswordHash), []byte(password)) != nil {
			return ErrInvalidPassword
		}
	}

	return s.store.AddParticipant(ctx, roomID, userID)
}

// LeaveRoom закрывает живые строки участия пользователя в комнате
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	return s.store.RemoveParticipant(ctx, roomID, userID)
}
