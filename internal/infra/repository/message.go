package repository

import (
	"context"
	"time"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
)

type MessageRepository struct{}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

// Create persists a message and returns it with the assigned id; ids are the
// delivery order within a request.
func (r *MessageRepository) Create(ctx context.Context, dbtx db.DBTX, msg *chat.Message) (*chat.Message, error) {
	var id int64
	var createdAt time.Time
	err := dbtx.QueryRow(ctx, `
INSERT INTO messages (request_id, sender_kind, sender_id, body, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`,
		msg.RequestID(),
		msg.SenderKind().String(),
		msg.SenderID(),
		msg.Body().String(),
		msg.CreatedAt(),
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to create message", err)
	}

	return chat.ReconstructMessage(id, msg.RequestID(), msg.SenderKind(), msg.SenderID(), msg.Body().String(), createdAt), nil
}
