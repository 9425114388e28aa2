package repository

import (
	"context"

	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
)

type ReadMarkerRepository struct{}

func NewReadMarkerRepository() *ReadMarkerRepository {
	return &ReadMarkerRepository{}
}

// AdvanceTo upserts the operator's high-water mark. GREATEST keeps the mark
// monotonic so an acknowledgment that arrives out of order can never lower it.
func (r *ReadMarkerRepository) AdvanceTo(ctx context.Context, dbtx db.DBTX, operatorID, requestID, messageID int64) error {
	_, err := dbtx.Exec(ctx, `
INSERT INTO read_markers (operator_id, request_id, last_read_message_id)
VALUES ($1, $2, $3)
ON CONFLICT (operator_id, request_id)
DO UPDATE SET last_read_message_id = GREATEST(read_markers.last_read_message_id, EXCLUDED.last_read_message_id)`,
		operatorID, requestID, messageID)
	if err != nil {
		return infra.WrapRepoErr("failed to advance read marker", err)
	}
	return nil
}
