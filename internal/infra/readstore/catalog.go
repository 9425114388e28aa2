package readstore

import (
	"context"

	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
	"repairmatch/internal/pkg/pgconv"
	"repairmatch/internal/usecase/matching"
)

// CatalogReadStore serves the matcher and resolver from the read-only catalog
// tables. Inactive stores and services never surface here.
type CatalogReadStore struct {
	db db.DBTX
}

func NewCatalogReadStore(dbtx db.DBTX) *CatalogReadStore {
	return &CatalogReadStore{db: dbtx}
}

var _ matching.CatalogReads = (*CatalogReadStore)(nil)

func (s *CatalogReadStore) ServicesByIDs(ctx context.Context, serviceIDs []int64) ([]matching.ServiceInfo, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, name, kind
FROM repair_services
WHERE id = ANY($1) AND is_active`,
		serviceIDs)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load services", err)
	}
	defer rows.Close()

	var infos []matching.ServiceInfo
	for rows.Next() {
		var info matching.ServiceInfo
		var kind string
		if err := rows.Scan(&info.ID, &info.Name, &kind); err != nil {
			return nil, infra.WrapRepoErr("failed to scan service", err)
		}
		info.Kind = matching.ServiceKind(kind)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *CatalogReadStore) ScreenOptionByID(ctx context.Context, optionID int64) (*matching.ScreenOptionInfo, error) {
	var info matching.ScreenOptionInfo
	err := s.db.QueryRow(ctx, `
SELECT id, model_id, label, is_active
FROM screen_options
WHERE id = $1`,
		optionID).Scan(&info.ID, &info.ModelID, &info.Label, &info.Active)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to load screen option", err)
	}
	return &info, nil
}

func (s *CatalogReadStore) ServicePrices(ctx context.Context, storeID, modelID int64, serviceIDs []int64) (map[int64]int64, error) {
	rows, err := s.db.Query(ctx, `
SELECT service_id, price_cents
FROM service_prices
WHERE store_id = $1 AND model_id = $2 AND service_id = ANY($3) AND price_cents > 0`,
		storeID, modelID, serviceIDs)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load service prices", err)
	}
	defer rows.Close()

	prices := make(map[int64]int64)
	for rows.Next() {
		var serviceID, cents int64
		if err := rows.Scan(&serviceID, &cents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan service price", err)
		}
		prices[serviceID] = cents
	}
	return prices, rows.Err()
}

func (s *CatalogReadStore) ScreenOptionPrice(ctx context.Context, storeID, optionID int64) (int64, bool, error) {
	var cents int64
	err := s.db.QueryRow(ctx, `
SELECT price_cents
FROM screen_option_prices
WHERE store_id = $1 AND screen_option_id = $2 AND price_cents > 0`,
		storeID, optionID).Scan(&cents)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return 0, false, nil
		}
		return 0, false, infra.WrapRepoErr("failed to load screen option price", err)
	}
	return cents, true, nil
}

func (s *CatalogReadStore) CandidatePrices(ctx context.Context, city string, modelID int64, serviceIDs []int64) ([]matching.StoreServicePrice, error) {
	rows, err := s.db.Query(ctx, `
SELECT sp.store_id, sp.service_id, sp.price_cents
FROM service_prices sp
JOIN stores st ON st.id = sp.store_id AND st.is_active
JOIN cities c ON c.id = st.city_id
WHERE c.name = $1 AND sp.model_id = $2 AND sp.service_id = ANY($3) AND sp.price_cents > 0`,
		city, modelID, serviceIDs)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load candidate prices", err)
	}
	defer rows.Close()

	var result []matching.StoreServicePrice
	for rows.Next() {
		var row matching.StoreServicePrice
		if err := rows.Scan(&row.StoreID, &row.ServiceID, &row.PriceCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan candidate price", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (s *CatalogReadStore) ScreenOptionPricesByStore(ctx context.Context, city string, optionID int64) (map[int64]int64, error) {
	rows, err := s.db.Query(ctx, `
SELECT sop.store_id, sop.price_cents
FROM screen_option_prices sop
JOIN stores st ON st.id = sop.store_id AND st.is_active
JOIN cities c ON c.id = st.city_id
WHERE c.name = $1 AND sop.screen_option_id = $2 AND sop.price_cents > 0`,
		city, optionID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load screen option prices", err)
	}
	defer rows.Close()

	prices := make(map[int64]int64)
	for rows.Next() {
		var storeID, cents int64
		if err := rows.Scan(&storeID, &cents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan screen option price", err)
		}
		prices[storeID] = cents
	}
	return prices, rows.Err()
}
