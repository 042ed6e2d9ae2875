package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"duochat/internal/realtime"
	"duochat/internal/service"
)

// WSHandler mantiene dependencias para la ruta de upgrade websocket.
type WSHandler struct {
	logger      *zap.Logger
	userServ    *service.UserService
	threadServ  *service.ThreadService
	messageServ *service.MessageService
	jwtServ     *service.JWTService
	registry    realtime.Registry
	upgrader    websocket.Upgrader
}

// NewWSHandler crea una instancia de WSHandler con dependencias necesarias.
func NewWSHandler(
	logger *zap.Logger,
	userServ *service.UserService,
	threadServ *service.ThreadService,
	messageServ *service.MessageService,
	jwtServ *service.JWTService,
	registry realtime.Registry,
) *WSHandler {
	return &WSHandler{
		logger:      logger,
		userServ:    userServ,
		threadServ:  threadServ,
		messageServ: messageServ,
		jwtServ:     jwtServ,
		registry:    registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Chat maneja GET /ws/chat/:username. Los fallos de autenticacion o de
// resolucion del par rechazan el intento sin upgrade y sin frame de error:
// el peer solo observa que la conexion no se establecio.
func (h *WSHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	token := bearerToken(c.Request)
	claims, err := h.jwtServ.ParseAccessToken(token)
	if err != nil {
		h.logger.Warn("ws auth rejected", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	me, err := h.userServ.GetByID(ctx, claims.UserID)
	if err != nil {
		h.logger.Warn("ws subject lookup failed", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	other, err := h.userServ.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		h.logger.Warn("ws peer lookup failed",
			zap.String("peer", c.Param("username")), zap.Error(err))
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	thread, err := h.threadServ.ResolveOrCreatePersonal(ctx, me, other)
	if err != nil {
		h.logger.Error("ws thread resolution failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade ya escribio la respuesta de error.
		return
	}

	sess := realtime.NewSession(h.logger, conn, me, thread, h.registry, h.messageServ)
	if err := sess.Run(ctx); err != nil {
		h.logger.Error("ws session join failed",
			zap.String("room", thread.RoomName()), zap.Error(err))
	}
}

// bearerToken extrae la credencial del header Authorization o, en su
// ausencia, del ultimo segmento delimitado por '=' del query string (para
// clientes que no pueden fijar headers durante el upgrade).
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}

	raw := r.URL.RawQuery
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "=")
	return parts[len(parts)-1]
}
