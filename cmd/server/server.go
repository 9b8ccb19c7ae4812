package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/traderooms/internal/config"
	"github.com/thereayou/traderooms/internal/database"
	"github.com/thereayou/traderooms/internal/handlers"
	"github.com/thereayou/traderooms/internal/services"
	ws "github.com/thereayou/traderooms/internal/websocket"
	"github.com/thereayou/traderooms/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub

	cfg *config.Config
}

func NewServer() *Server {
	cfg := config.Load()

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		logrus.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	hub := ws.NewHub(dbConn)

	directory := services.NewDirectoryService(dbConn, cfg.LookupTimeout, cfg.StartingBalance)
	rooms := services.NewRoomService(dbConn)
	balances := services.NewBalanceService(dbConn, rdb)

	roomH := handlers.NewRoomHandler(directory, rooms)
	balanceH := handlers.NewBalanceHandler(balances)
	wsH := handlers.NewWebSocketHandler(hub)

	router := gin.Default()
	APIEndpoints(router, roomH, balanceH, wsH, jwtMgr, rdb)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		cfg:        cfg,
	}
}

func (s *Server) Run() {
	go s.Hub.Run()
	go s.Hub.RunRedisBridge(context.Background(), s.Redis)

	logrus.Infof("Server starting on port %s", s.cfg.Port)
	if err := s.Router.Run(":" + s.cfg.Port); err != nil {
		logrus.Fatalf("Server run error: %v", err)
	}
}
