package repository

import (
	"context"

	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
)

type SyncAttemptRepository struct{}

func NewSyncAttemptRepository() *SyncAttemptRepository {
	return &SyncAttemptRepository{}
}

func (r *SyncAttemptRepository) Record(ctx context.Context, dbtx db.DBTX, requestID int64, event string, success bool, detail *string) error {
	_, err := dbtx.Exec(ctx, `
INSERT INTO sync_attempts (request_id, event, success, detail)
VALUES ($1, $2, $3, $4)`,
		requestID, event, success, detail)
	if err != nil {
		return infra.WrapRepoErr("failed to record sync attempt", err)
	}
	return nil
}
