package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"duochat/internal/domain"
	"duochat/internal/service"
)

// Envelope es el payload estructurado que reciben los miembros de la sala.
type Envelope struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

const sendQueueSize = 64

// Session es el estado por conexion desde el accept del upgrade hasta la
// desconexion: identidad autenticada, thread resuelto, sala y conexion.
// Procesa los frames entrantes de a uno, en orden de llegada.
type Session struct {
	logger   *zap.Logger
	conn     *websocket.Conn
	user     domain.User
	thread   domain.Thread
	room     string
	registry Registry
	messages *service.MessageService

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(
	logger *zap.Logger,
	conn *websocket.Conn,
	user domain.User,
	thread domain.Thread,
	registry Registry,
	messages *service.MessageService,
) *Session {
	return &Session{
		logger:   logger,
		conn:     conn,
		user:     user,
		thread:   thread,
		room:     thread.RoomName(),
		registry: registry,
		messages: messages,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// Run une la sesion a su sala y bombea frames hasta la desconexion. Bloquea
// hasta que la sesion queda cerrada; la limpieza corre siempre, tambien si
// el join fallo.
func (s *Session) Run(ctx context.Context) error {
	if err := s.registry.Join(ctx, s.room, s); err != nil {
		s.Close()
		return err
	}
	s.logger.Info("session joined",
		zap.String("room", s.room),
		zap.String("username", s.user.Username),
	)

	go s.writeLoop()
	s.readLoop(ctx)
	return nil
}

// readLoop procesa los frames entrantes: primero persiste, despues publica.
// La publicacion no se suprime cuando la escritura duradera falla.
func (s *Session) readLoop(ctx context.Context) {
	defer s.Close()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		text := string(data)
		if strings.TrimSpace(text) == "" {
			continue
		}

		if _, err := s.messages.Append(ctx, s.thread.ID, s.user, text, false); err != nil {
			s.logger.Error("persist message failed",
				zap.String("room", s.room),
				zap.Error(err),
			)
		}

		payload, err := json.Marshal(Envelope{Text: text, Username: s.user.Username})
		if err != nil {
			s.logger.Error("marshal envelope failed", zap.Error(err))
			continue
		}
		if err := s.registry.Publish(ctx, s.room, payload); err != nil {
			s.logger.Error("publish failed",
				zap.String("room", s.room),
				zap.Error(err),
			)
		}
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.Close()
				return
			}
		}
	}
}

// Deliver encola un payload publicado en la sala para enviarlo por la
// conexion. Un consumidor que no drena su cola se desconecta en lugar de
// bloquear la sala.
func (s *Session) Deliver(payload []byte) {
	select {
	case <-s.done:
	case s.send <- payload:
	default:
		s.logger.Warn("send queue full, closing session",
			zap.String("username", s.user.Username),
		)
		s.Close()
	}
}

// Close es seguro de invocar varias veces y desde cualquier goroutine; el
// leave es idempotente asi que señales de teardown repetidas son inocuas.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.registry.Leave(context.Background(), s.room, s); err != nil {
			s.logger.Warn("leave room failed",
				zap.String("room", s.room),
				zap.Error(err),
			)
		}
		_ = s.conn.Close()
		s.logger.Info("session closed",
			zap.String("room", s.room),
			zap.String("username", s.user.Username),
		)
	})
}
