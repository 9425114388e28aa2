package response

import (
	"time"

	"repairmatch/internal/usecase/queries"
	"repairmatch/internal/usecase/shared"
)

type RequestResponse struct {
	ID              int64          `json:"id"`
	Code            string         `json:"code"`
	StoreID         int64          `json:"storeId"`
	StoreName       string         `json:"storeName"`
	ModelID         int64          `json:"modelId"`
	ModelName       string         `json:"modelName"`
	TotalCents      int64          `json:"totalCents"`
	Currency        string         `json:"currency"`
	Status          string         `json:"status"`
	CancelReason    *string        `json:"cancelReason,omitempty"`
	CustomerBlocked bool           `json:"customerBlocked"`
	Items           []ItemResponse `json:"items"`
	CreatedAt       time.Time      `json:"createdAt"`
	AcceptedAt      *time.Time     `json:"acceptedAt,omitempty"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	CancelledAt     *time.Time     `json:"cancelledAt,omitempty"`
}

type ItemResponse struct {
	ServiceID         int64   `json:"serviceId"`
	ServiceName       string  `json:"serviceName"`
	PriceCents        int64   `json:"priceCents"`
	Currency          string  `json:"currency"`
	ScreenOptionID    *int64  `json:"screenOptionId,omitempty"`
	ScreenOptionLabel *string `json:"screenOptionLabel,omitempty"`
	ScreenOptionCents *int64  `json:"screenOptionCents,omitempty"`
}

type RequestListResponse struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	StoreName  string    `json:"storeName"`
	ModelName  string    `json:"modelName"`
	TotalCents int64     `json:"totalCents"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreatedRequestResponse is the creation result: the reused flag tells the
// client whether an identical open request was returned instead of a new row.
type CreatedRequestResponse struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	StoreID    int64     `json:"storeId"`
	TotalCents int64     `json:"totalCents"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	Reused     bool      `json:"reused"`
	CreatedAt  time.Time `json:"createdAt"`
}

func FromRequestView(view *queries.RequestView) *RequestResponse {
	items := make([]ItemResponse, len(view.Items))
	for i, item := range view.Items {
		items[i] = ItemResponse{
			ServiceID:         item.ServiceID,
			ServiceName:       item.ServiceName,
			PriceCents:        item.PriceCents,
			Currency:          item.Currency,
			ScreenOptionID:    item.ScreenOptionID,
			ScreenOptionLabel: item.ScreenOptionLabel,
			ScreenOptionCents: item.ScreenOptionCents,
		}
	}
	return &RequestResponse{
		ID:              view.ID,
		Code:            view.Code,
		StoreID:         view.StoreID,
		StoreName:       view.StoreName,
		ModelID:         view.ModelID,
		ModelName:       view.ModelName,
		TotalCents:      view.TotalCents,
		Currency:        view.Currency,
		Status:          view.Status,
		CancelReason:    view.CancelReason,
		CustomerBlocked: view.CustomerBlocked,
		Items:           items,
		CreatedAt:       view.CreatedAt,
		AcceptedAt:      view.AcceptedAt,
		CompletedAt:     view.CompletedAt,
		CancelledAt:     view.CancelledAt,
	}
}

func FromRequestListItem(item *queries.RequestListItem) *RequestListResponse {
	return &RequestListResponse{
		ID:         item.ID,
		Code:       item.Code,
		StoreName:  item.StoreName,
		ModelName:  item.ModelName,
		TotalCents: item.TotalCents,
		Currency:   item.Currency,
		Status:     item.Status,
		CreatedAt:  item.CreatedAt,
	}
}

func FromSnapshot(snap *shared.RequestSnapshot, reused bool) *CreatedRequestResponse {
	return &CreatedRequestResponse{
		ID:         snap.ID,
		Code:       snap.Code,
		StoreID:    snap.StoreID,
		TotalCents: snap.TotalCents,
		Currency:   snap.Currency,
		Status:     snap.Status.String(),
		Reused:     reused,
		CreatedAt:  snap.CreatedAt,
	}
}
