package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MessageType определяет типы сообщений
type MessageType string

const (
	// Системные типы
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// Поток балансов
	TypeBalanceUpdate MessageType = "balance_update"
	TypeSubscribe     MessageType = "subscribe"
	TypeUnsubscribe   MessageType = "unsubscribe"
)

type Message struct {
	Type      MessageType     `json:"type"`
	RoomID    *uuid.UUID      `json:"room_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// BalanceUpdate — полезная нагрузка события баланса
type BalanceUpdate struct {
	VirtualBalance float64 `json:"virtual_balance"`
}

// BalanceChannel — имя Redis-канала комнаты; один канал на комнату даёт
// упорядоченность событий в пределах комнаты и между инстансами
func BalanceChannel(roomID uuid.UUID) string {
	return "room:" + roomID.String() + ":balance"
}

const BalanceChannelPattern = "room:*:balance"

// BalanceReader — синхронное точечное чтение текущего баланса комнаты
type BalanceReader interface {
	GetRoomBalance(ctx context.Context, roomID uuid.UUID) (float64, error)
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Подписчики по комнатам
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	// Последний опубликованный баланс комнаты; подписка сверяется с ним
	// под общим локом, чтобы между базовым чтением и первым событием
	// не было щели
	balances map[uuid.UUID]float64

	reader BalanceReader

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(reader BalanceReader) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[uuid.UUID]map[uuid.UUID]*Client),
		balances:   make(map[uuid.UUID]float64),
		reader:     reader,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.rooms = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	logrus.WithField("client_id", client.ID).Debug("balance hub: client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		for roomID := range client.Rooms {
			h.removeFromRoomUnsafe(client, roomID)
		}

		delete(h.clients, client.ID)
		// Недоставленные события отписанного клиента просто пропадают
		close(client.Send)

		logrus.WithField("client_id", client.ID).Debug("balance hub: client unregistered")
	}
}

// SubscribeRoom подписывает клиента на баланс комнаты.
// Базовое значение читается до захвата лока; под локом предпочтение
// отдаётся кешу публикаций — событие, пришедшее между чтением и
// регистрацией, не теряется и не обгоняет базовое.
func (h *Hub) SubscribeRoom(ctx context.Context, client *Client, roomID uuid.UUID) error {
	baseline, err := h.reader.GetRoomBalance(ctx, roomID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}
	h.rooms[roomID][client.ID] = client

	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()

	if cached, ok := h.balances[roomID]; ok {
		baseline = cached
	}

	h.sendBalanceLocked(client, roomID, baseline)
	return nil
}

// UnsubscribeRoom снимает подписку клиента на комнату
func (h *Hub) UnsubscribeRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	if room, ok := h.rooms[roomID]; ok {
		if _, ok := room[client.ID]; ok {
			delete(room, client.ID)
			client.mu.Lock()
			delete(client.Rooms, roomID)
			client.mu.Unlock()

			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// PublishBalance рассылает новый баланс всем подписчикам комнаты.
// Путь публикации никогда не блокируется на медленном потребителе.
func (h *Hub) PublishBalance(roomID uuid.UUID, balance float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.balances[roomID] = balance

	room, ok := h.rooms[roomID]
	if !ok {
		return
	}

	for _, client := range room {
		h.sendBalanceLocked(client, roomID, balance)
	}
}

func (h *Hub) sendBalanceLocked(client *Client, roomID uuid.UUID, balance float64) {
	data, err := json.Marshal(BalanceUpdate{VirtualBalance: balance})
	if err != nil {
		return
	}

	msg := Message{
		Type:      TypeBalanceUpdate,
		RoomID:    &roomID,
		Data:      data,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	// Очередь ограничена; при переполнении вытесняется самое старое
	// событие — свежий баланс всегда важнее устаревшего
	for {
		select {
		case client.Send <- payload:
			return
		default:
			select {
			case <-client.Send:
				logrus.WithField("client_id", client.ID).Warn("balance hub: slow subscriber, dropping oldest update")
			default:
			}
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// RoomSubscribers возвращает число подписчиков комнаты
func (h *Hub) RoomSubscribers(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}
