package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/traderooms/internal/handlers"
	"github.com/thereayou/traderooms/internal/middleware"
	"github.com/thereayou/traderooms/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	roomH *handlers.RoomHandler,
	balanceH *handlers.BalanceHandler,
	wsH *handlers.WebSocketHandler,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
) {
	// API endpoints
	api := r.Group("/api", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/rooms", roomH.ListRooms)
		api.PATCH("/rooms", roomH.UpdateRoom)
		api.POST("/rooms/:id/join", roomH.JoinRoom)
		api.POST("/rooms/:id/leave", roomH.LeaveRoom)
		api.GET("/rooms/:id/balance", balanceH.GetRoomBalance)
		api.POST("/rooms/:id/balance", balanceH.SetRoomBalance)
	}

	// WebSocket endpoints
	wsGroup := r.Group("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb))
	{
		wsGroup.GET("/rooms/:id/balance", wsH.HandleRoomBalance)
	}
}
