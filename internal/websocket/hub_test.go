package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBalanceReader struct {
	balance float64
	err     error
}

func (r *stubBalanceReader) GetRoomBalance(ctx context.Context, roomID uuid.UUID) (float64, error) {
	return r.balance, r.err
}

func newTestClient(hub *Hub) *Client {
	return &Client{
		ID:    uuid.New(),
		Send:  make(chan []byte, sendQueueSize),
		Rooms: make(map[uuid.UUID]bool),
		Hub:   hub,
	}
}

func receiveBalance(t *testing.T, client *Client) (uuid.UUID, float64) {
	t.Helper()

	select {
	case payload := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		require.Equal(t, TypeBalanceUpdate, msg.Type)
		require.NotNil(t, msg.RoomID)

		var update BalanceUpdate
		require.NoError(t, json.Unmarshal(msg.Data, &update))
		return *msg.RoomID, update.VirtualBalance
	default:
		t.Fatal("expected a balance update in the queue")
		return uuid.Nil, 0
	}
}

func TestSubscribeDeliversBaselineThenUpdates(t *testing.T) {
	hub := NewHub(&stubBalanceReader{balance: 100})
	client := newTestClient(hub)

	require.NoError(t, hub.SubscribeRoom(context.Background(), client, uuid.New()))
	roomID := client.rooms()[0]

	_, balance := receiveBalance(t, client)
	assert.Equal(t, 100.0, balance)

	hub.PublishBalance(roomID, 150)

	gotRoom, balance := receiveBalance(t, client)
	assert.Equal(t, roomID, gotRoom)
	assert.Equal(t, 150.0, balance)
}

func TestSubscribePrefersFresherPublishedBalance(t *testing.T) {
	// Публикация успела проскочить между точечным чтением БД и подпиской:
	// подписчик должен увидеть либо {100, 150}, либо сразу {150},
	// но не пропустить переход и не получить значения вразнобой
	hub := NewHub(&stubBalanceReader{balance: 100})
	client := newTestClient(hub)
	roomID := uuid.New()

	hub.PublishBalance(roomID, 150)

	require.NoError(t, hub.SubscribeRoom(context.Background(), client, roomID))

	_, balance := receiveBalance(t, client)
	assert.Equal(t, 150.0, balance)
}

func TestSubscribeReaderFailure(t *testing.T) {
	hub := NewHub(&stubBalanceReader{err: errors.New("room not found")})
	client := newTestClient(hub)

	err := hub.SubscribeRoom(context.Background(), client, uuid.New())

	assert.Error(t, err)
	assert.Empty(t, client.Send)
}

func TestPublishOrderPreservedPerRoom(t *testing.T) {
	hub := NewHub(&stubBalanceReader{balance: 0})
	client := newTestClient(hub)
	roomID := uuid.New()

	require.NoError(t, hub.SubscribeRoom(context.Background(), client, roomID))
	receiveBalance(t, client) // базовое значение

	for i := 1; i <= 10; i++ {
		hub.PublishBalance(roomID, float64(i*10))
	}

	prev := 0.0
	for i := 0; i < 10; i++ {
		_, balance := receiveBalance(t, client)
		assert.Greater(t, balance, prev)
		prev = balance
	}
}

func TestSlowSubscriberDropsOldestNotPublisher(t *testing.T) {
	hub := NewHub(&stubBalanceReader{balance: 0})
	client := newTestClient(hub)
	roomID := uuid.New()

	require.NoError(t, hub.SubscribeRoom(context.Background(), client, roomID))

	// Никто не читает Send: публикуем больше, чем влезает в очередь
	total := sendQueueSize * 2
	for i := 1; i <= total; i++ {
		hub.PublishBalance(roomID, float64(i))
	}

	assert.Len(t, client.Send, sendQueueSize)

	// Старые события вытеснены, последнее — самое свежее
	var last float64
	for len(client.Send) > 0 {
		_, last = receiveBalance(t, client)
	}
	assert.Equal(t, float64(total), last)
}

func TestUnsubscribeDiscardsFurtherUpdates(t *testing.T) {
	hub := NewHub(&stubBalanceReader{balance: 0})
	client := newTestClient(hub)
	roomID := uuid.New()

	require.NoError(t, hub.SubscribeRoom(context.Background(), client, roomID))
	receiveBalance(t, client)

	hub.UnsubscribeRoom(client, roomID)
	hub.PublishBalance(roomID, 999)

	assert.Empty(t, client.Send)
	assert.False(t, client.IsInRoom(roomID))
	assert.Equal(t, 0, hub.RoomSubscribers(roomID))
}

func TestPublishIsIsolatedPerRoom(t *testing.T) {
	hub := NewHub(&stubBalanceReader{balance: 0})
	clientA := newTestClient(hub)
	clientB := newTestClient(hub)
	roomA := uuid.New()
	roomB := uuid.New()

	require.NoError(t, hub.SubscribeRoom(context.Background(), clientA, roomA))
	require.NoError(t, hub.SubscribeRoom(context.Background(), clientB, roomB))
	receiveBalance(t, clientA)
	receiveBalance(t, clientB)

	hub.PublishBalance(roomA, 42)

	_, balance := receiveBalance(t, clientA)
	assert.Equal(t, 42.0, balance)
	assert.Empty(t, clientB.Send)
}

// rooms возвращает комнаты клиента (хелпер теста)
func (c *Client) rooms() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(c.Rooms))
	for id := range c.Rooms {
		ids = append(ids, id)
	}
	return ids
}
