package readstore

import (
	"context"

	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
	"repairmatch/internal/usecase/queries"
)

type ChatReadStore struct {
	db db.DBTX
}

func NewChatReadStore(dbtx db.DBTX) *ChatReadStore {
	return &ChatReadStore{db: dbtx}
}

var _ queries.ChatViewRepo = (*ChatReadStore)(nil)

func (s *ChatReadStore) FindByRequestID(ctx context.Context, requestID int64) ([]*queries.MessageView, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, request_id, sender_id, sender_kind, body, created_at
FROM messages
WHERE request_id = $1
ORDER BY id`,
		requestID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list messages", err)
	}
	defer rows.Close()

	var result []*queries.MessageView
	for rows.Next() {
		var msg queries.MessageView
		if err := rows.Scan(
			&msg.ID,
			&msg.RequestID,
			&msg.SenderID,
			&msg.SenderKind,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan message", err)
		}
		result = append(result, &msg)
	}
	return result, rows.Err()
}

// Unread counts are derived per read: customer messages with an id above the
// operator's marker. No per-message read state is stored.
const inboxSQL = `
SELECT r.id, r.code, m.name, r.customer_id, r.status,
       COUNT(msg.id) FILTER (
           WHERE msg.sender_kind = 'customer'
             AND msg.id > COALESCE(rm.last_read_message_id, 0)
       ) AS unread_count,
       MAX(msg.created_at) AS last_message_at
FROM requests r
JOIN device_models m ON m.id = r.model_id
LEFT JOIN messages msg ON msg.request_id = r.id
LEFT JOIN read_markers rm ON rm.request_id = r.id AND rm.operator_id = $2
WHERE r.store_id = $1 AND r.status <> 'open'
GROUP BY r.id, r.code, m.name, r.customer_id, r.status
ORDER BY MAX(msg.created_at) DESC NULLS LAST, r.id DESC
LIMIT 100`

func (s *ChatReadStore) InboxForStore(ctx context.Context, storeID, operatorID int64) ([]*queries.InboxItem, error) {
	rows, err := s.db.Query(ctx, inboxSQL, storeID, operatorID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load inbox", err)
	}
	defer rows.Close()

	var result []*queries.InboxItem
	for rows.Next() {
		var item queries.InboxItem
		if err := rows.Scan(
			&item.RequestID,
			&item.Code,
			&item.ModelName,
			&item.CustomerID,
			&item.Status,
			&item.UnreadCount,
			&item.LastMessageAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan inbox item", err)
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}
