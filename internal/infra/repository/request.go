package repository

import (
	"context"
	"time"

	"repairmatch/internal/domain/request"
	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
	"repairmatch/internal/pkg/pgconv"
	"repairmatch/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
)

type RequestRepository struct{}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{}
}

const insertRequestSQL = `
INSERT INTO requests (code, customer_id, store_id, model_id, total_cents, currency, status, created_fingerprint, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

const insertItemSQL = `
INSERT INTO request_items (request_id, service_id, price_cents, currency, screen_option_id, screen_option_cents)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (request_id, service_id) DO NOTHING`

func (r *RequestRepository) Create(ctx context.Context, dbtx db.DBTX, req *request.ServiceRequest) (int64, error) {
	var id int64
	err := dbtx.QueryRow(ctx, insertRequestSQL,
		req.Code(),
		req.CustomerID(),
		req.StoreID(),
		req.ModelID(),
		req.TotalCents(),
		req.Currency(),
		req.Status().String(),
		req.Fingerprint(),
		req.CreatedAt(),
	).Scan(&id)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to create request", err)
	}

	for _, item := range req.Items() {
		_, err := dbtx.Exec(ctx, insertItemSQL,
			id,
			item.ServiceID,
			item.PriceCents,
			item.Currency,
			item.ScreenOptionID,
			item.ScreenOptionCents,
		)
		if err != nil {
			return 0, infra.WrapRepoErr("failed to create request item", err)
		}
	}

	return id, nil
}

const snapshotColumns = `
id, code, customer_id, store_id, model_id, total_cents, currency, status,
created_fingerprint, customer_blocked, created_at`

func (r *RequestRepository) FindByID(ctx context.Context, dbtx db.DBTX, id int64) (*shared.RequestSnapshot, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM requests WHERE id = $1`, id)
	return scanSnapshot(row)
}

func (r *RequestRepository) FindByCode(ctx context.Context, dbtx db.DBTX, code string) (*shared.RequestSnapshot, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM requests WHERE code = $1`, code)
	return scanSnapshot(row)
}

func (r *RequestRepository) FindOpenByFingerprint(ctx context.Context, dbtx db.DBTX, customerID int64, fingerprint string) (*shared.RequestSnapshot, error) {
	row := dbtx.QueryRow(ctx, `
SELECT `+snapshotColumns+`
FROM requests
WHERE customer_id = $1 AND created_fingerprint = $2 AND status = 'open'`,
		customerID, fingerprint)
	return scanSnapshot(row)
}

func (r *RequestRepository) CountOpenByCustomer(ctx context.Context, dbtx db.DBTX, customerID int64) (int, error) {
	var count int
	err := dbtx.QueryRow(ctx,
		`SELECT COUNT(*) FROM requests WHERE customer_id = $1 AND status = 'open'`,
		customerID).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count open requests", err)
	}
	return count, nil
}

// Transitions are compare-and-swap updates: the WHERE clause carries the
// expected prior status so a concurrent writer observes zero rows affected
// instead of clobbering the other's result.

func (r *RequestRepository) Accept(ctx context.Context, dbtx db.DBTX, id, storeID int64, now time.Time) (bool, error) {
	tag, err := dbtx.Exec(ctx, `
UPDATE requests SET status = 'accepted', accepted_at = $3
WHERE id = $1 AND store_id = $2 AND status = 'open'`,
		id, storeID, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to accept request", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepository) Complete(ctx context.Context, dbtx db.DBTX, id, storeID int64, now time.Time) (bool, error) {
	tag, err := dbtx.Exec(ctx, `
UPDATE requests SET status = 'completed', completed_at = $3
WHERE id = $1 AND store_id = $2 AND status = 'accepted'`,
		id, storeID, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to complete request", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepository) CancelByStore(ctx context.Context, dbtx db.DBTX, id, storeID int64, reason *string, now time.Time) (bool, error) {
	tag, err := dbtx.Exec(ctx, `
UPDATE requests SET status = 'cancelled', cancelled_at = $3, cancel_reason = $4, cancelled_by_store = TRUE
WHERE id = $1 AND store_id = $2 AND status = 'accepted'`,
		id, storeID, now, reason)
	if err != nil {
		return false, infra.WrapRepoErr("failed to cancel request", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepository) CancelByAdmin(ctx context.Context, dbtx db.DBTX, id int64, reason *string, now time.Time) (bool, error) {
	tag, err := dbtx.Exec(ctx, `
UPDATE requests SET status = 'cancelled', cancelled_at = $2, cancel_reason = $3, cancelled_by_store = FALSE
WHERE id = $1 AND status = 'open'`,
		id, now, reason)
	if err != nil {
		return false, infra.WrapRepoErr("failed to cancel request", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepository) DeleteOpen(ctx context.Context, dbtx db.DBTX, id, customerID int64) (bool, error) {
	// Items, messages and read markers go with the row via ON DELETE CASCADE.
	tag, err := dbtx.Exec(ctx,
		`DELETE FROM requests WHERE id = $1 AND customer_id = $2 AND status = 'open'`,
		id, customerID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to delete request", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepository) SetCustomerBlocked(ctx context.Context, dbtx db.DBTX, id int64, blocked bool, adminID int64, now time.Time) error {
	_, err := dbtx.Exec(ctx, `
UPDATE requests SET customer_blocked = $2, blocked_by = $3, blocked_at = $4
WHERE id = $1`,
		id, blocked, adminID, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update customer block flag", err)
	}
	return nil
}

func (r *RequestRepository) SetLastSyncedAt(ctx context.Context, dbtx db.DBTX, id int64, now time.Time) error {
	_, err := dbtx.Exec(ctx, `UPDATE requests SET last_synced_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update last synced timestamp", err)
	}
	return nil
}

func scanSnapshot(row pgx.Row) (*shared.RequestSnapshot, error) {
	var snap shared.RequestSnapshot
	var status string
	err := row.Scan(
		&snap.ID,
		&snap.Code,
		&snap.CustomerID,
		&snap.StoreID,
		&snap.ModelID,
		&snap.TotalCents,
		&snap.Currency,
		&status,
		&snap.Fingerprint,
		&snap.CustomerBlocked,
		&snap.CreatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("request not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan request", err)
	}

	snap.Status, err = request.NewStatus(status)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt request status", err)
	}
	return &snap, nil
}
