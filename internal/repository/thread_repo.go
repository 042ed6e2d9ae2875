package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"duochat/internal/domain"
)

// ThreadRepository define el contrato de persistencia para threads y sus
// participantes.
type ThreadRepository interface {
	// FindPersonalByUsers busca el thread personal cuyo conjunto de
	// participantes contiene a ambos usuarios y tiene exactamente dos
	// miembros. Devuelve pgx.ErrNoRows si no existe.
	FindPersonalByUsers(ctx context.Context, userA, userB string) (domain.Thread, error)
	Create(ctx context.Context, thread domain.Thread) error
	ListByUser(ctx context.Context, userID string) ([]domain.Thread, error)
}

// PgThreadRepository implementa ThreadRepository usando pgxpool.
type PgThreadRepository struct {
	pool *pgxpool.Pool
}

func NewPgThreadRepository(pool *pgxpool.Pool) *PgThreadRepository {
	return &PgThreadRepository{pool: pool}
}

func (r *PgThreadRepository) FindPersonalByUsers(ctx context.Context, userA, userB string) (domain.Thread, error) {
	// Semantica de interseccion: ambos usuarios presentes y el conjunto
	// completo tiene dos miembros. El orden estable hace que resoluciones
	// posteriores converjan en el mismo thread.
	const query = `
		SELECT t.id, t.thread_type, t.created_at, t.updated_at,
		       ARRAY(SELECT user_id FROM thread_users WHERE thread_id = t.id)
		FROM threads t
		WHERE t.thread_type = 'personal'
		  AND EXISTS (SELECT 1 FROM thread_users tu WHERE tu.thread_id = t.id AND tu.user_id = $1)
		  AND EXISTS (SELECT 1 FROM thread_users tu WHERE tu.thread_id = t.id AND tu.user_id = $2)
		  AND (SELECT COUNT(*) FROM thread_users tu WHERE tu.thread_id = t.id) = 2
		ORDER BY t.created_at ASC, t.id ASC
		LIMIT 1
	`
	var t domain.Thread
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(
		&t.ID,
		&t.Type,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.UserIDs,
	)
	if err != nil {
		return domain.Thread{}, err
	}
	return t, nil
}

func (r *PgThreadRepository) Create(ctx context.Context, thread domain.Thread) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertThread = `
		INSERT INTO threads (id, thread_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertThread, thread.ID, thread.Type, thread.CreatedAt, thread.UpdatedAt); err != nil {
		return err
	}

	const insertParticipant = `
		INSERT INTO thread_users (thread_id, user_id)
		VALUES ($1, $2)
	`
	for _, userID := range thread.UserIDs {
		if _, err := tx.Exec(ctx, insertParticipant, thread.ID, userID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PgThreadRepository) ListByUser(ctx context.Context, userID string) ([]domain.Thread, error) {
	const query = `
		SELECT t.id, t.thread_type, t.created_at, t.updated_at,
		       ARRAY(SELECT user_id FROM thread_users WHERE thread_id = t.id)
		FROM threads t
		JOIN thread_users tu ON tu.thread_id = t.id
		WHERE tu.user_id = $1
		ORDER BY t.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		var t domain.Thread
		if err := rows.Scan(&t.ID, &t.Type, &t.CreatedAt, &t.UpdatedAt, &t.UserIDs); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}
