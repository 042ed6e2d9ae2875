package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"duochat/internal/domain"
	"duochat/internal/repository"
)

// ThreadService resuelve el thread personal canonico entre dos usuarios.
// La ruta REST y la ruta websocket pasan por aqui, asi que ambas llegan a
// la misma sala.
type ThreadService struct {
	logger  *zap.Logger
	threads repository.ThreadRepository
}

func NewThreadService(logger *zap.Logger, threads repository.ThreadRepository) *ThreadService {
	return &ThreadService{
		logger:  logger,
		threads: threads,
	}
}

var ErrSameUser = errors.New("cannot resolve thread with self")

// ResolveOrCreatePersonal devuelve el thread personal entre dos usuarios,
// creandolo en el primer contacto. No hay lock ni constraint de unicidad
// sobre la pareja: dos primeros contactos concurrentes pueden crear threads
// duplicados, y las resoluciones posteriores convergen en el mas antiguo.
func (s *ThreadService) ResolveOrCreatePersonal(ctx context.Context, a, b domain.User) (domain.Thread, error) {
	if a.ID == b.ID {
		return domain.Thread{}, ErrSameUser
	}

	thread, err := s.threads.FindPersonalByUsers(ctx, a.ID, b.ID)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Thread{}, err
	}

	now := time.Now().UTC()
	thread = domain.Thread{
		ID:        uuid.NewString(),
		Type:      domain.ThreadTypePersonal,
		UserIDs:   []string{a.ID, b.ID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.threads.Create(ctx, thread); err != nil {
		return domain.Thread{}, err
	}

	s.logger.Info("personal thread created",
		zap.String("thread_id", thread.ID),
		zap.String("user_a", a.Username),
		zap.String("user_b", b.Username),
	)
	return thread, nil
}

// ListByUser devuelve los threads en los que participa el usuario.
func (s *ThreadService) ListByUser(ctx context.Context, user domain.User) ([]domain.Thread, error) {
	return s.threads.ListByUser(ctx, user.ID)
}
