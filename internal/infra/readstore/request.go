package readstore

import (
	"context"
	"fmt"

	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
	"repairmatch/internal/pkg/pgconv"
	"repairmatch/internal/usecase/queries"

	"github.com/jackc/pgx/v5"
)

type RequestReadStore struct {
	db db.DBTX
}

func NewRequestReadStore(dbtx db.DBTX) *RequestReadStore {
	return &RequestReadStore{db: dbtx}
}

var _ queries.RequestViewRepo = (*RequestReadStore)(nil)

const requestViewSQL = `
SELECT r.id, r.code, r.customer_id, r.store_id, st.name, r.model_id, m.name,
       r.total_cents, r.currency, r.status, r.cancel_reason, r.customer_blocked,
       r.created_at, r.accepted_at, r.completed_at, r.cancelled_at
FROM requests r
JOIN stores st ON st.id = r.store_id
JOIN device_models m ON m.id = r.model_id
WHERE r.id = $1`

const requestItemsSQL = `
SELECT i.service_id, rs.name, i.price_cents, i.currency,
       i.screen_option_id, so.label, i.screen_option_cents
FROM request_items i
JOIN repair_services rs ON rs.id = i.service_id
LEFT JOIN screen_options so ON so.id = i.screen_option_id
WHERE i.request_id = $1
ORDER BY i.service_id`

func (s *RequestReadStore) FindByID(ctx context.Context, id int64) (*queries.RequestView, error) {
	var view queries.RequestView
	err := s.db.QueryRow(ctx, requestViewSQL, id).Scan(
		&view.ID,
		&view.Code,
		&view.CustomerID,
		&view.StoreID,
		&view.StoreName,
		&view.ModelID,
		&view.ModelName,
		&view.TotalCents,
		&view.Currency,
		&view.Status,
		&view.CancelReason,
		&view.CustomerBlocked,
		&view.CreatedAt,
		&view.AcceptedAt,
		&view.CompletedAt,
		&view.CancelledAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("request not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find request view", err)
	}

	items, err := s.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	view.Items = items
	return &view, nil
}

func (s *RequestReadStore) loadItems(ctx context.Context, requestID int64) ([]queries.RequestItemView, error) {
	rows, err := s.db.Query(ctx, requestItemsSQL, requestID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load request items", err)
	}
	defer rows.Close()

	items := make([]queries.RequestItemView, 0, 4)
	for rows.Next() {
		var item queries.RequestItemView
		if err := rows.Scan(
			&item.ServiceID,
			&item.ServiceName,
			&item.PriceCents,
			&item.Currency,
			&item.ScreenOptionID,
			&item.ScreenOptionLabel,
			&item.ScreenOptionCents,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan request item", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const listColumnsSQL = `
SELECT r.id, r.code, st.name, m.name, r.total_cents, r.currency, r.status, r.created_at
FROM requests r
JOIN stores st ON st.id = r.store_id
JOIN device_models m ON m.id = r.model_id`

func (s *RequestReadStore) FindByCustomerID(ctx context.Context, customerID int64) ([]*queries.RequestListItem, error) {
	rows, err := s.db.Query(ctx, listColumnsSQL+`
WHERE r.customer_id = $1
ORDER BY r.id DESC
LIMIT 100`,
		customerID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list customer requests", err)
	}
	return scanListItems(rows)
}

func (s *RequestReadStore) FindByStoreID(ctx context.Context, storeID int64, filter queries.ListFilter) ([]*queries.RequestListItem, error) {
	sql := listColumnsSQL + `
WHERE r.store_id = $1`
	args := []any{storeID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		sql += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		sql += fmt.Sprintf(" AND (r.code ILIKE $%d OR m.name ILIKE $%d)", len(args), len(args))
	}
	sql += `
ORDER BY r.id DESC
LIMIT 100`

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list store requests", err)
	}
	return scanListItems(rows)
}

func scanListItems(rows pgx.Rows) ([]*queries.RequestListItem, error) {
	defer rows.Close()

	var result []*queries.RequestListItem
	for rows.Next() {
		var item queries.RequestListItem
		if err := rows.Scan(
			&item.ID,
			&item.Code,
			&item.StoreName,
			&item.ModelName,
			&item.TotalCents,
			&item.Currency,
			&item.Status,
			&item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan request list item", err)
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}
