package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"duochat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	userH *UserHandler,
	chatH *ChatHandler,
	wsH *WSHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.POST("/v1/users", userH.Register)
	r.POST("/v1/auth/token", userH.Login)
	r.POST("/v1/auth/refresh", userH.Refresh)

	authed := r.Group("/v1", JWTAuthMiddleware(jwtServ))
	authed.GET("/users", userH.ListUsers)
	authed.GET("/users/me", userH.Me)
	authed.GET("/chats", chatH.ListMessages)

	// La ruta websocket valida su credencial por si misma: acepta tanto el
	// header Authorization como el fallback por query string.
	r.GET("/ws/chat/:username", wsH.Chat)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
