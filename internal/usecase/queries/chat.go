package queries

import (
	"context"
	"time"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/domain/request"
	"repairmatch/internal/domain/user"
)

type MessageView struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	SenderID   int64     `json:"sender_id"`
	SenderKind string    `json:"sender_kind"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// InboxItem is one row of the operator inbox: a request with chat activity
// and the count of customer messages past the operator's read marker.
type InboxItem struct {
	RequestID     int64      `json:"request_id"`
	Code          string     `json:"code"`
	ModelName     string     `json:"model_name"`
	CustomerID    int64      `json:"customer_id"`
	Status        string     `json:"status"`
	UnreadCount   int64      `json:"unread_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

type ChatQueries interface {
	// ListMessages applies the same gating as sending: callers outside the
	// request see not-found, and a locked thread yields chat.ErrChatLocked.
	ListMessages(ctx context.Context, actor user.Principal, requestID int64) ([]*MessageView, error)
	Inbox(ctx context.Context, actor user.Principal, operatorID int64) ([]*InboxItem, error)
}

type ChatViewRepo interface {
	FindByRequestID(ctx context.Context, requestID int64) ([]*MessageView, error)
	InboxForStore(ctx context.Context, storeID, operatorID int64) ([]*InboxItem, error)
}

type chatQueriesImpl struct {
	repo     ChatViewRepo
	requests RequestViewRepo
}

func NewChatQueries(repo ChatViewRepo, requests RequestViewRepo) ChatQueries {
	return &chatQueriesImpl{repo: repo, requests: requests}
}

func (q *chatQueriesImpl) ListMessages(ctx context.Context, actor user.Principal, requestID int64) ([]*MessageView, error) {
	view, err := q.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !canSeeRequest(actor, view) {
		return nil, ErrViewNotFound
	}

	status, err := request.NewStatus(view.Status)
	if err != nil {
		return nil, err
	}
	if err := chat.CanAccess(status); err != nil {
		return nil, err
	}

	return q.repo.FindByRequestID(ctx, requestID)
}

func (q *chatQueriesImpl) Inbox(ctx context.Context, actor user.Principal, operatorID int64) ([]*InboxItem, error) {
	if !actor.IsStore() {
		return nil, ErrViewNotFound
	}
	return q.repo.InboxForStore(ctx, actor.StoreID, operatorID)
}
