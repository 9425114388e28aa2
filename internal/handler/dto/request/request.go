package request

import "repairmatch/internal/usecase/commands"

type CreateRequestRequest struct {
	City           string  `json:"city" binding:"required"`
	ModelID        int64   `json:"model_id" binding:"required"`
	ServiceIDs     []int64 `json:"service_ids" binding:"required,min=1"`
	ScreenOptionID *int64  `json:"screen_option_id,omitempty"`
	StoreID        *int64  `json:"store_id,omitempty"`
}

func (r CreateRequestRequest) ToInput() commands.CreateRequestInput {
	return commands.CreateRequestInput{
		City:           r.City,
		ModelID:        r.ModelID,
		ServiceIDs:     r.ServiceIDs,
		ScreenOptionID: r.ScreenOptionID,
		StoreID:        r.StoreID,
	}
}

type AcceptRequestRequest struct {
	Code string `json:"code" binding:"required"`
}

type CancelRequestRequest struct {
	Reason string `json:"reason,omitempty"`
}

type BlockMessagesRequest struct {
	Blocked bool `json:"blocked"`
}
