package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/traderooms/internal/database"
	"github.com/thereayou/traderooms/internal/models"
)

// casRoomStore — CAS-хранилище в памяти с теми же гарантиями, что и
// условный UPDATE: проверка версии и запись атомарны под одним локом
type casRoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*models.Room

	fields map[uuid.UUID]map[string]interface{}

	participants []models.Participant
}

func newCasRoomStore() *casRoomStore {
	return &casRoomStore{
		rooms:  make(map[uuid.UUID]*models.Room),
		fields: make(map[uuid.UUID]map[string]interface{}),
	}
}

func (s *casRoomStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, database.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (s *casRoomStore) UpdateRoomIfVersion(ctx context.Context, id uuid.UUID, expected time.Time, fields map[string]interface{}, newVersion time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return database.ErrRoomNotFound
	}
	if !room.UpdatedAt.Equal(expected) {
		return database.ErrVersionConflict
	}

	room.UpdatedAt = newVersion
	s.fields[id] = fields
	return nil
}

func (s *casRoomStore) AddParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append(s.participants, models.Participant{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	return nil
}

func (s *casRoomStore) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for i := range s.participants {
		p := &s.participants[i]
		if p.RoomID == roomID && p.UserID == userID && p.LeftAt == nil {
			p.LeftAt = &now
		}
	}
	return nil
}

func storedRoom(store *casRoomStore) *models.Room {
	room := &models.Room{
		ID:        uuid.New(),
		Name:      "alpha",
		CreatorID: uuid.New(),
		Symbol:    "BTCUSDT",
		Privacy:   models.RoomPrivacyPublic,
		Status:    models.RoomStatusActive,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond).Add(-time.Minute),
	}
	store.rooms[room.ID] = room
	return room
}

func validInput(room *models.Room) UpdateRoomInput {
	return UpdateRoomInput{
		ID:        room.ID.String(),
		Name:      "alpha renamed",
		Symbol:    "ETHUSDT",
		Privacy:   models.RoomPrivacyPublic,
		UpdatedAt: room.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func TestUpdateRoomValidation(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)

	cases := []struct {
		name   string
		mutate func(in *UpdateRoomInput)
		field  string
	}{
		{"missing id", func(in *UpdateRoomInput) { in.ID = "" }, "id"},
		{"malformed id", func(in *UpdateRoomInput) { in.ID = "not-a-uuid" }, "id"},
		{"blank name", func(in *UpdateRoomInput) { in.Name = "   " }, "name"},
		{"symbol not in allow-list", func(in *UpdateRoomInput) { in.Symbol = "DOGEUSDT" }, "symbol"},
		{"invalid privacy", func(in *UpdateRoomInput) { in.Privacy = "hidden" }, "privacy"},
		{"private without password", func(in *UpdateRoomInput) { in.Privacy = models.RoomPrivacyPrivate }, "password"},
		{"missing version token", func(in *UpdateRoomInput) { in.UpdatedAt = "" }, "updatedAt"},
		{"garbage version token", func(in *UpdateRoomInput) { in.UpdatedAt = "yesterday" }, "updatedAt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(room)
			tc.mutate(&in)

			_, err := svc.UpdateRoom(context.Background(), in)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
			assert.Empty(t, store.fields[room.ID], "room must stay unchanged on validation failure")
		})
	}
}

func TestUpdateRoomSuccessReturnsFreshToken(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	original := room.UpdatedAt
	svc := NewRoomService(store)

	newVersion, err := svc.UpdateRoom(context.Background(), validInput(room))

	require.NoError(t, err)
	assert.True(t, newVersion.After(original))
	assert.Equal(t, "alpha renamed", store.fields[room.ID]["name"])
	assert.Equal(t, "ETHUSDT", store.fields[room.ID]["symbol"])
}

func TestUpdateRoomRoundTrip(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)

	first, err := svc.UpdateRoom(context.Background(), validInput(room))
	require.NoError(t, err)

	// Токен из успешного ответа должен открывать следующую правку
	in := validInput(room)
	in.Name = "alpha again"
	in.UpdatedAt = first.Format(time.RFC3339Nano)

	second, err := svc.UpdateRoom(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.After(first))
}

func TestUpdateRoomPublicDiscardsPassword(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)

	in := validInput(room)
	in.Password = "should-be-dropped"

	_, err := svc.UpdateRoom(context.Background(), in)

	require.NoError(t, err)
	assert.Nil(t, store.fields[room.ID]["password_hash"])
}

func TestUpdateRoomPrivateStoresPassword(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)

	in := validInput(room)
	in.Privacy = models.RoomPrivacyPrivate
	in.Password = "pre-hashed-by-caller"

	_, err := svc.UpdateRoom(context.Background(), in)

	require.NoError(t, err)
	hash, ok := store.fields[room.ID]["password_hash"].(*string)
	require.True(t, ok)
	require.NotNil(t, hash)
	assert.Equal(t, "pre-hashed-by-caller", *hash)
}

func TestUpdateRoomNotFound(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)

	in := validInput(room)
	in.ID = uuid.NewString()

	_, err := svc.UpdateRoom(context.Background(), in)

	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUpdateRoomStaleTokenConflict(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)

	stale := validInput(room)

	_, err := svc.UpdateRoom(context.Background(), validInput(room))
	require.NoError(t, err)

	_, err = svc.UpdateRoom(context.Background(), stale)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestUpdateRoomConcurrentWritersAtMostOneWins(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)

	inA := validInput(room)
	inA.Name = "writer A"
	inB := validInput(room)
	inB.Name = "writer B"

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.UpdateRoom(context.Background(), inA)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.UpdateRoom(context.Background(), inB)
	}()
	wg.Wait()

	wins := 0
	var winner string
	for i, err := range errs {
		if err == nil {
			wins++
			winner = []string{"writer A", "writer B"}[i]
		} else {
			assert.ErrorIs(t, err, ErrVersionConflict)
		}
	}

	require.Equal(t, 1, wins, "exactly one of two racing writers may succeed")
	// Итоговое состояние — ровно payload победителя, без чересполосицы
	assert.Equal(t, winner, store.fields[room.ID]["name"])
}

func TestJoinRoomPrivatePassword(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	hash, err := bcrypt.GenerateFromPassword([]byte("hodl"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	room.Privacy = models.RoomPrivacyPrivate
	room.PasswordHash = &hashStr

	svc := NewRoomService(store)
	userID := uuid.New()

	err = svc.JoinRoom(context.Background(), room.ID, userID, "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.Empty(t, store.participants)

	err = svc.JoinRoom(context.Background(), room.ID, userID, "hodl")
	require.NoError(t, err)
	require.Len(t, store.participants, 1)
	assert.Nil(t, store.participants[0].LeftAt)
}

func TestJoinRoomClosed(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	room.Status = models.RoomStatusClosed

	svc := NewRoomService(store)

	err := svc.JoinRoom(context.Background(), room.ID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestLeaveRoomClosesLiveRows(t *testing.T) {
	store := newCasRoomStore()
	room := storedRoom(store)
	svc := NewRoomService(store)
	userID := uuid.New()

	require.NoError(t, svc.JoinRoom(context.Background(), room.ID, userID, ""))
	require.NoError(t, svc.LeaveRoom(context.Background(), room.ID, userID))

	require.Len(t, store.participants, 1)
	assert.NotNil(t, store.participants[0].LeftAt)
}

func TestUpdateRoomStorageFailurePropagates(t *testing.T) {
	boom := errors.New("storage down")
	store := &failingRoomStore{err: boom}
	room := &models.Room{ID: uuid.New(), UpdatedAt: time.Now().UTC()}
	svc := NewRoomService(store)

	_, err := svc.UpdateRoom(context.Background(), validInput(room))

	assert.ErrorIs(t, err, boom)
}

type failingRoomStore struct {
	err error
}

func (s *failingRoomStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return nil, s.err
}

func (s *failingRoomStore) UpdateRoomIfVersion(ctx context.Context, id uuid.UUID, expected time.Time, fields map[string]interface{}, newVersion time.Time) error {
	return s.err
}

func (s *failingRoomStore) AddParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	return s.err
}

func (s *failingRoomStore) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	return s.err
}
