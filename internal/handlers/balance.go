package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/traderooms/internal/handlers/dto"
	"github.com/thereayou/traderooms/internal/services"
)

// BalanceManager — точечное чтение и запись виртуального баланса комнаты
type BalanceManager interface {
	GetRoomBalance(ctx context.Context, roomID uuid.UUID) (float64, error)
	SetRoomBalance(ctx context.Context, roomID uuid.UUID, balance float64) error
}

type BalanceHandler struct {
	balances BalanceManager
}

func NewBalanceHandler(balances BalanceManager) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// GetRoomBalance — синхронное чтение текущего баланса комнаты
func (h *BalanceHandler) GetRoomBalance(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	balance, err := h.balances.GetRoomBalance(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"virtual_balance": balance})
}

// SetRoomBalance — хук расчёта по сделкам: фиксирует баланс и рассылает его
func (h *BalanceHandler) SetRoomBalance(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req dto.SetBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.balances.SetRoomBalance(c.Request.Context(), roomID, *req.VirtualBalance); err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
