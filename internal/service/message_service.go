package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"duochat/internal/domain"
	"duochat/internal/repository"
)

// GreetingText es el cuerpo del unico mensaje sintetico que se inserta
// cuando el historial de un thread se lee por primera vez estando vacio.
const GreetingText = "This is the start of a new message"

var ErrEmptyMessage = errors.New("empty message")

// MessageService es el registro duradero de mensajes por thread.
type MessageService struct {
	logger   *zap.Logger
	messages repository.MessageRepository
}

func NewMessageService(logger *zap.Logger, messages repository.MessageRepository) *MessageService {
	return &MessageService{
		logger:   logger,
		messages: messages,
	}
}

// Append persiste un mensaje nuevo. No verifica que el remitente sea
// participante del thread: el enrutamiento interno ya derivo el thread de la
// identidad autenticada de la sesion.
func (s *MessageService) Append(ctx context.Context, threadID string, sender domain.User, text string, isBot bool) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrEmptyMessage
	}

	now := time.Now().UTC()
	msg := domain.Message{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Sender:    sender,
		Text:      text,
		IsBot:     isBot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListByThread devuelve el historial completo ordenado por fecha de creacion
// ascendente.
func (s *MessageService) ListByThread(ctx context.Context, threadID string) ([]domain.Message, error) {
	return s.messages.ListByThreadID(ctx, threadID)
}

// EnsureGreeting inserta el saludo sintetico si y solo si el historial esta
// vacio. Devuelve nil cuando no hizo falta insertar nada.
func (s *MessageService) EnsureGreeting(ctx context.Context, thread domain.Thread, requester domain.User) (*domain.Message, error) {
	existing, err := s.messages.ListByThreadID(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	msg, err := s.Append(ctx, thread.ID, requester, GreetingText, true)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
