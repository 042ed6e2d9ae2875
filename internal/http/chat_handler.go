package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"duochat/internal/domain"
	"duochat/internal/service"
)

// ChatHandler mantiene dependencias para el endpoint REST de chats. Usa el
// mismo ThreadService que la ruta websocket, asi que ambas llegan al mismo
// thread y la misma sala.
type ChatHandler struct {
	logger      *zap.Logger
	userServ    *service.UserService
	threadServ  *service.ThreadService
	messageServ *service.MessageService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	userServ *service.UserService,
	threadServ *service.ThreadService,
	messageServ *service.MessageService,
) *ChatHandler {
	return &ChatHandler{
		logger:      logger,
		userServ:    userServ,
		threadServ:  threadServ,
		messageServ: messageServ,
	}
}

// ListMessages maneja GET /v1/chats?other_username=<name>: resuelve o crea
// el thread personal, garantiza el saludo si el historial esta vacio y
// devuelve la lista completa ordenada.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	otherUsername := strings.TrimSpace(c.Query("other_username"))
	if otherUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "other_username query param is required"})
		return
	}

	ctx := c.Request.Context()

	me, err := h.userServ.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		h.logger.Error("get requester failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve requester"})
		return
	}

	other, err := h.userServ.GetByUsername(ctx, otherUsername)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get other user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
		return
	}

	thread, err := h.threadServ.ResolveOrCreatePersonal(ctx, me, other)
	if err != nil {
		if errors.Is(err, service.ErrSameUser) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
			return
		}
		h.logger.Error("resolve thread failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve thread"})
		return
	}

	if _, err := h.messageServ.EnsureGreeting(ctx, thread, me); err != nil {
		h.logger.Error("ensure greeting failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not prepare thread"})
		return
	}

	messages, err := h.messageServ.ListByThread(ctx, thread.ID)
	if err != nil {
		h.logger.Error("list messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	c.JSON(http.StatusOK, messages)
}
