package queries

import (
	"context"
	"time"

	"repairmatch/internal/domain/user"
	"repairmatch/internal/pkg/errs"
)

var ErrViewNotFound = errs.New("request not found")

// Read models (DTO for read side)
type RequestView struct {
	ID              int64             `json:"id"`
	Code            string            `json:"code"`
	CustomerID      int64             `json:"customer_id"`
	StoreID         int64             `json:"store_id"`
	StoreName       string            `json:"store_name"`
	ModelID         int64             `json:"model_id"`
	ModelName       string            `json:"model_name"`
	TotalCents      int64             `json:"total_cents"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	CancelReason    *string           `json:"cancel_reason,omitempty"`
	CustomerBlocked bool              `json:"customer_blocked"`
	Items           []RequestItemView `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	AcceptedAt      *time.Time        `json:"accepted_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
}

type RequestItemView struct {
	ServiceID         int64   `json:"service_id"`
	ServiceName       string  `json:"service_name"`
	PriceCents        int64   `json:"price_cents"`
	Currency          string  `json:"currency"`
	ScreenOptionID    *int64  `json:"screen_option_id,omitempty"`
	ScreenOptionLabel *string `json:"screen_option_label,omitempty"`
	ScreenOptionCents *int64  `json:"screen_option_cents,omitempty"`
}

type RequestListItem struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	StoreName  string    `json:"store_name"`
	ModelName  string    `json:"model_name"`
	TotalCents int64     `json:"total_cents"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListFilter narrows the operator list; zero values mean "no filter".
type ListFilter struct {
	Status string
	// Search matches the request code or the device model name.
	Search string
}

type RequestQueries interface {
	GetByID(ctx context.Context, actor user.Principal, id int64) (*RequestView, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]*RequestListItem, error)
	ListForStore(ctx context.Context, storeID int64, filter ListFilter) ([]*RequestListItem, error)
}

type RequestViewRepo interface {
	FindByID(ctx context.Context, id int64) (*RequestView, error)
	FindByCustomerID(ctx context.Context, customerID int64) ([]*RequestListItem, error)
	FindByStoreID(ctx context.Context, storeID int64, filter ListFilter) ([]*RequestListItem, error)
}

type requestQueriesImpl struct {
	repo RequestViewRepo
}

func NewRequestQueries(repo RequestViewRepo) RequestQueries {
	return &requestQueriesImpl{repo: repo}
}

func (q *requestQueriesImpl) GetByID(ctx context.Context, actor user.Principal, id int64) (*RequestView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeRequest(actor, view) {
		// Scoping failures are indistinguishable from absence on the wire.
		return nil, ErrViewNotFound
	}
	return view, nil
}

func canSeeRequest(actor user.Principal, view *RequestView) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsCustomer():
		return view.CustomerID == actor.ID
	case actor.IsStore():
		return view.StoreID == actor.StoreID
	default:
		return false
	}
}

func (q *requestQueriesImpl) ListForCustomer(ctx context.Context, customerID int64) ([]*RequestListItem, error) {
	return q.repo.FindByCustomerID(ctx, customerID)
}

func (q *requestQueriesImpl) ListForStore(ctx context.Context, storeID int64, filter ListFilter) ([]*RequestListItem, error) {
	return q.repo.FindByStoreID(ctx, storeID, filter)
}
