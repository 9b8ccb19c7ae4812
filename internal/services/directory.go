package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/traderooms/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// RoomSummary — производное представление комнаты для каталога,
// не хранится и собирается заново на каждый запрос
type RoomSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CreatorID      uuid.UUID `json:"creatorId"`
	CreatorName    string    `json:"creatorName"`
	CreatorAvatar  string    `json:"creatorAvatar"`
	Symbol         string    `json:"symbol"`
	Category       string    `json:"category"`
	Privacy        string    `json:"privacy"`
	Status         string    `json:"status"`
	Participants   int       `json:"participants"`
	PnlPercent     float64   `json:"pnlPercent"`
	VirtualBalance float64   `json:"virtualBalance"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type DirectoryService struct {
	store           DirectoryStore
	lookupTimeout   time.Duration
	fallbackBalance float64
}

func NewDirectoryService(store DirectoryStore, lookupTimeout time.Duration, fallbackBalance float64) *DirectoryService {
	return &DirectoryService{
		store:           store,
		lookupTimeout:   lookupTimeout,
		fallbackBalance: fallbackBalance,
	}
}

// ListRooms возвращает страницу каталога активных комнат и общее их число.
// Путь чтения деградирует мягко: отказ основного запроса даёт пустую
// страницу, отказы вторичных — значения по умолчанию в соответствующей
// колонке, но никогда не ошибку наружу.
func (s *DirectoryService) ListRooms(ctx context.Context, page, pageSize int) ([]RoomSummary, int64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	rooms, total, err := s.store.ListActiveRooms(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		logrus.WithError(err).Error("directory: room page query failed")
		return []RoomSummary{}, 0
	}
	if len(rooms) == 0 {
		return []RoomSummary{}, total
	}

	// Наборы ключей для вторичных запросов берутся только из текущей
	// страницы: стоимость fan-out ограничена её размером, а не таблицей
	creatorIDs := make([]uuid.UUID, 0, len(rooms))
	roomIDs := make([]uuid.UUID, 0, len(rooms))
	seenCreators := make(map[uuid.UUID]bool, len(rooms))
	for _, room := range rooms {
		roomIDs = append(roomIDs, room.ID)
		if !seenCreators[room.CreatorID] {
			seenCreators[room.CreatorID] = true
			creatorIDs = append(creatorIDs, room.CreatorID)
		}
	}

	var (
		users       []models.User
		usersErr    error
		liveCounts  map[uuid.UUID]int
		countsErr   error
		pnlTotals   map[uuid.UUID]float64
		pnlErr      error
		settings    *models.AppSettings
		settingsErr error
	)

	// Четыре независимых запроса, каждый со своим таймаутом
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		lctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
		users, usersErr = s.store.GetUsersByIDs(lctx, creatorIDs)
	}()
	go func() {
		defer wg.Done()
		lctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
		liveCounts, countsErr = s.store.CountLiveParticipants(lctx, roomIDs)
	}()
	go func() {
		defer wg.Done()
		lctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
		pnlTotals, pnlErr = s.store.SumPositionsPnl(lctx, roomIDs)
	}()
	go func() {
		defer wg.Done()
		lctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
		settings, settingsErr = s.store.GetAppSettings(lctx)
	}()
	wg.Wait()

	creators := make(map[uuid.UUID]models.User, len(users))
	if usersErr != nil {
		logrus.WithError(usersErr).Warn("directory: creator lookup failed, using placeholders")
	} else {
		for _, u := range users {
			creators[u.ID] = u
		}
	}

	if countsErr != nil {
		logrus.WithError(countsErr).Warn("directory: participant counts failed, defaulting to 0")
		liveCounts = map[uuid.UUID]int{}
	}
	if pnlErr != nil {
		logrus.WithError(pnlErr).Warn("directory: pnl totals failed, defaulting to 0")
		pnlTotals = map[uuid.UUID]float64{}
	}

	startingBalance := s.fallbackBalance
	if settingsErr != nil || settings == nil || settings.StartingBalance <= 0 {
		if settingsErr != nil {
			logrus.WithError(settingsErr).Warn("directory: app settings unavailable, using fallback starting balance")
		}
	} else {
		startingBalance = settings.StartingBalance
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		creator := creators[room.CreatorID]
		totalPnl := pnlTotals[room.ID]

		pnlPercent := 0.0
		if startingBalance != 0 {
			pnlPercent = totalPnl / startingBalance * 100
		}

		summaries = append(summaries, RoomSummary{
			ID:             room.ID,
			Name:           room.Name,
			CreatorID:      room.CreatorID,
			CreatorName:    creator.DisplayName(),
			CreatorAvatar:  creator.AvatarURL,
			Symbol:         room.Symbol,
			Category:       room.Category,
			Privacy:        room.Privacy,
			Status:         room.Status,
			Participants:   liveCounts[room.ID],
			PnlPercent:     pnlPercent,
			VirtualBalance: room.VirtualBalance,
			CreatedAt:      sanitizeTimestamp(room.CreatedAt),
			UpdatedAt:      room.UpdatedAt,
		})
	}

	return summaries, total
}

// sanitizeTimestamp деградирует мусорную метку времени до нулевого значения,
// чтобы одна битая строка не ломала всю страницу
func sanitizeTimestamp(t time.Time) time.Time {
	if t.Year() < 1970 || t.Year() > 9999 {
		return time.Time{}
	}
	return t
}
