package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/webrtc-chat/config"
	"github.com/mossy-p/webrtc-chat/internal/middleware"
	"github.com/mossy-p/webrtc-chat/internal/relay"
)

// NewRouter wires the REST API and the relay websocket
func NewRouter(cfg *config.Config, hub *relay.Hub, history relay.History) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Global CORS middleware (runs before routing)
	router.Use(middleware.OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		rooms, members := hub.Stats()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": rooms, "members": members})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/login", Login(cfg.JWTSecret))

		apiGroup.POST("/rooms", middleware.JWTAuth(cfg.JWTSecret), CreateRoom(cfg.Public))
		apiGroup.GET("/rooms/:room", GetRoom(hub))
		apiGroup.GET("/rooms/:room/history", RoomHistory(history))
		apiGroup.DELETE("/rooms/:room/history", middleware.JWTAuth(cfg.JWTSecret), ClearHistory(history))
	}

	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/relay", HandleRelay(relay.NewHandler(hub, history), cfg.JWTSecret, cfg.AllowedOrigins))
	}

	return router
}
