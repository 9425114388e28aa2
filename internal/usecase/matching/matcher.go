package matching

import (
	"context"
	"sort"

	"repairmatch/internal/pkg/errs"
)

var ErrNoStoreFound = errs.New("no store satisfies the selection")

// StoreMatcher finds the cheapest store in a city that covers every requested
// service. Full coverage is mandatory: a store missing a single price row is
// disqualified outright, never partially matched.
type StoreMatcher struct {
	catalog CatalogReads
	// fixedStoreID > 0 short-circuits the search (single-store deployments).
	fixedStoreID int64
}

func NewStoreMatcher(catalog CatalogReads, fixedStoreID int64) *StoreMatcher {
	return &StoreMatcher{catalog: catalog, fixedStoreID: fixedStoreID}
}

// PickStore returns the store with the lowest summed price for the full
// service set, ties broken by lowest store id so the result is reproducible.
func (m *StoreMatcher) PickStore(ctx context.Context, city string, modelID int64, serviceIDs []int64, screenOptionID *int64) (int64, error) {
	if m.fixedStoreID > 0 {
		return m.fixedStoreID, nil
	}

	ordinary, screenServiceID, err := splitServices(ctx, m.catalog, serviceIDs)
	if err != nil {
		return 0, err
	}
	if screenServiceID != nil && screenOptionID == nil {
		return 0, ErrScreenOptionInvalid
	}

	totals, err := m.coverageTotals(ctx, city, modelID, ordinary)
	if err != nil {
		return 0, err
	}

	if screenServiceID != nil {
		if err := m.addScreenPrices(ctx, city, *screenOptionID, len(ordinary) == 0, totals); err != nil {
			return 0, err
		}
	}

	if len(totals) == 0 {
		return 0, ErrNoStoreFound
	}

	stores := make([]int64, 0, len(totals))
	for id := range totals {
		stores = append(stores, id)
	}
	sort.Slice(stores, func(i, j int) bool {
		if totals[stores[i]] != totals[stores[j]] {
			return totals[stores[i]] < totals[stores[j]]
		}
		return stores[i] < stores[j]
	})

	return stores[0], nil
}

// coverageTotals returns summed prices for every store in the city that has a
// price row for each ordinary service. With no ordinary services it returns
// an empty map; screen pricing then seeds the candidates.
func (m *StoreMatcher) coverageTotals(ctx context.Context, city string, modelID int64, ordinary []int64) (map[int64]int64, error) {
	totals := make(map[int64]int64)
	if len(ordinary) == 0 {
		return totals, nil
	}

	rows, err := m.catalog.CandidatePrices(ctx, city, modelID, ordinary)
	if err != nil {
		return nil, err
	}

	covered := make(map[int64]map[int64]struct{})
	for _, row := range rows {
		perStore, ok := covered[row.StoreID]
		if !ok {
			perStore = make(map[int64]struct{}, len(ordinary))
			covered[row.StoreID] = perStore
		}
		// The unique constraint on (store, model, service) guarantees at most
		// one row per service here.
		perStore[row.ServiceID] = struct{}{}
		totals[row.StoreID] += row.PriceCents
	}

	for storeID, services := range covered {
		if len(services) != len(ordinary) {
			delete(totals, storeID)
		}
	}

	return totals, nil
}

// addScreenPrices intersects the candidates with stores that carry a positive
// price for the selected screen option, adding that price to each total. When
// seed is true (screen-only request) the option prices define the candidates.
func (m *StoreMatcher) addScreenPrices(ctx context.Context, city string, optionID int64, seed bool, totals map[int64]int64) error {
	prices, err := m.catalog.ScreenOptionPricesByStore(ctx, city, optionID)
	if err != nil {
		return err
	}

	if seed {
		for storeID, cents := range prices {
			if cents > 0 {
				totals[storeID] = cents
			}
		}
		return nil
	}

	for storeID := range totals {
		cents, ok := prices[storeID]
		if !ok || cents <= 0 {
			delete(totals, storeID)
			continue
		}
		totals[storeID] += cents
	}
	return nil
}
