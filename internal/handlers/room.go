package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/traderooms/internal/handlers/dto"
	"github.com/thereayou/traderooms/internal/middleware"
	"github.com/thereayou/traderooms/internal/services"
)

// Directory — страница каталога комнат
type Directory interface {
	ListRooms(ctx context.Context, page, pageSize int) ([]services.RoomSummary, int64)
}

// RoomEditor — мутации комнаты и членства в ней
type RoomEditor interface {
	UpdateRoom(ctx context.Context, input services.UpdateRoomInput) (time.Time, error)
	JoinRoom(ctx context.Context, roomID, userID uuid.UUID, password string) error
	LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error
}

type RoomHandler struct {
	directory Directory
	rooms     RoomEditor
}

func NewRoomHandler(directory Directory, rooms RoomEditor) *RoomHandler {
	return &RoomHandler{directory: directory, rooms: rooms}
}

// ListRooms возвращает страницу каталога; путь чтения не отдаёт ошибок
func (h *RoomHandler) ListRooms(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil {
		pageSize = services.DefaultPageSize
	}

	data, total := h.directory.ListRooms(c.Request.Context(), page, pageSize)

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": total,
	})
}

// UpdateRoom применяет правку комнаты с проверкой токена версии
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newVersion, err := h.rooms.UpdateRoom(c.Request.Context(), services.UpdateRoomInput{
		ID:        req.ID,
		Name:      req.Name,
		Symbol:    req.Symbol,
		Privacy:   req.Privacy,
		Password:  req.Password,
		UpdatedAt: req.UpdatedAt,
	})
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		case errors.Is(err, services.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, services.ErrVersionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "room was modified, refresh and retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update room"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"updatedAt": newVersion.Format(time.RFC3339Nano),
	})
}

// JoinRoom добавляет пользователя в комнату, приватная требует пароль
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	// Пустое тело допустимо для публичных комнат
	var req dto.JoinRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.rooms.JoinRoom(c.Request.Context(), roomID, userID, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, services.ErrRoomClosed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "room is not active"})
		case errors.Is(err, services.ErrInvalidPassword):
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid room password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined room successfully"})
}

// LeaveRoom закрывает участие пользователя в комнате
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.rooms.LeaveRoom(c.Request.Context(), roomID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room successfully"})
}
