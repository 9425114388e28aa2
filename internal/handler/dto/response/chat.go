package response

import (
	"time"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/usecase/queries"
)

type MessageResponse struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"requestId"`
	SenderID   int64     `json:"senderId"`
	SenderKind string    `json:"senderKind"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type InboxItemResponse struct {
	RequestID     int64      `json:"requestId"`
	Code          string     `json:"code"`
	ModelName     string     `json:"modelName"`
	Status        string     `json:"status"`
	UnreadCount   int64      `json:"unreadCount"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

// AckResponse is the soft acknowledgment for join and read operations:
// failures carry a reason instead of an HTTP error so the stream stays up.
type AckResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func FromMessage(msg *chat.Message) *MessageResponse {
	return &MessageResponse{
		ID:         msg.ID(),
		RequestID:  msg.RequestID(),
		SenderID:   msg.SenderID(),
		SenderKind: msg.SenderKind().String(),
		Body:       msg.Body().String(),
		CreatedAt:  msg.CreatedAt(),
	}
}

func FromMessageView(view *queries.MessageView) *MessageResponse {
	return &MessageResponse{
		ID:         view.ID,
		RequestID:  view.RequestID,
		SenderID:   view.SenderID,
		SenderKind: view.SenderKind,
		Body:       view.Body,
		CreatedAt:  view.CreatedAt,
	}
}

func FromInboxItem(item *queries.InboxItem) *InboxItemResponse {
	return &InboxItemResponse{
		RequestID:     item.RequestID,
		Code:          item.Code,
		ModelName:     item.ModelName,
		Status:        item.Status,
		UnreadCount:   item.UnreadCount,
		LastMessageAt: item.LastMessageAt,
	}
}
