package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"duochat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListByThreadID(ctx context.Context, threadID string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, thread_id, sender_id, text, is_bot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ThreadID,
		message.Sender.ID,
		message.Text,
		message.IsBot,
		message.CreatedAt,
		message.UpdatedAt,
	)
	return err
}

func (r *PgMessageRepository) ListByThreadID(ctx context.Context, threadID string) ([]domain.Message, error) {
	const query = `
		SELECT m.id, m.thread_id, m.text, m.is_bot, m.created_at, m.updated_at,
		       u.id, u.username, u.first_name, u.last_name, u.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.thread_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ThreadID,
			&msg.Text,
			&msg.IsBot,
			&msg.CreatedAt,
			&msg.UpdatedAt,
			&msg.Sender.ID,
			&msg.Sender.Username,
			&msg.Sender.FirstName,
			&msg.Sender.LastName,
			&msg.Sender.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
