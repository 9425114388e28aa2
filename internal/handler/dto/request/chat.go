package request

// JoinRoomRequest addresses the target either by code (customers) or by
// numeric id (operators); supplying the wrong one for the caller's kind is a
// soft failure.
type JoinRoomRequest struct {
	ConnectionID string  `json:"connection_id" binding:"required,uuid"`
	Code         *string `json:"code,omitempty"`
	RequestID    *int64  `json:"request_id,omitempty"`
}

type SendMessageRequest struct {
	RequestID int64  `json:"request_id" binding:"required"`
	Body      string `json:"body" binding:"required"`
}

type MarkReadRequest struct {
	RequestID int64 `json:"request_id" binding:"required"`
	MessageID int64 `json:"message_id" binding:"required"`
}
