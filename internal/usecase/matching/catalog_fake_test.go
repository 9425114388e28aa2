//go:build unit

package matching_test

import (
	"context"

	"repairmatch/internal/usecase/matching"
)

// fakeCatalog is an in-memory CatalogReads backed by plain maps, seeded per
// test.
type fakeCatalog struct {
	services      map[int64]matching.ServiceInfo
	screenOptions map[int64]matching.ScreenOptionInfo
	// servicePrices[storeID][serviceID] = cents, all for one implicit model.
	servicePrices map[int64]map[int64]int64
	// optionPrices[storeID][optionID] = cents.
	optionPrices map[int64]map[int64]int64
	// storeCity[storeID] = city name.
	storeCity map[int64]string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		services:      make(map[int64]matching.ServiceInfo),
		screenOptions: make(map[int64]matching.ScreenOptionInfo),
		servicePrices: make(map[int64]map[int64]int64),
		optionPrices:  make(map[int64]map[int64]int64),
		storeCity:     make(map[int64]string),
	}
}

func (f *fakeCatalog) addService(id int64, kind matching.ServiceKind) {
	f.services[id] = matching.ServiceInfo{ID: id, Name: "svc", Kind: kind}
}

func (f *fakeCatalog) addStore(id int64, city string) {
	f.storeCity[id] = city
}

func (f *fakeCatalog) price(storeID, serviceID, cents int64) {
	if f.servicePrices[storeID] == nil {
		f.servicePrices[storeID] = make(map[int64]int64)
	}
	f.servicePrices[storeID][serviceID] = cents
}

func (f *fakeCatalog) optionPrice(storeID, optionID, cents int64) {
	if f.optionPrices[storeID] == nil {
		f.optionPrices[storeID] = make(map[int64]int64)
	}
	f.optionPrices[storeID][optionID] = cents
}

func (f *fakeCatalog) ServicesByIDs(_ context.Context, serviceIDs []int64) ([]matching.ServiceInfo, error) {
	var out []matching.ServiceInfo
	seen := make(map[int64]struct{})
	for _, id := range serviceIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if info, ok := f.services[id]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ScreenOptionByID(_ context.Context, optionID int64) (*matching.ScreenOptionInfo, error) {
	info, ok := f.screenOptions[optionID]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (f *fakeCatalog) ServicePrices(_ context.Context, storeID, _ int64, serviceIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	for _, id := range serviceIDs {
		if cents, ok := f.servicePrices[storeID][id]; ok && cents > 0 {
			out[id] = cents
		}
	}
	return out, nil
}

func (f *fakeCatalog) ScreenOptionPrice(_ context.Context, storeID, optionID int64) (int64, bool, error) {
	cents, ok := f.optionPrices[storeID][optionID]
	if !ok || cents <= 0 {
		return 0, false, nil
	}
	return cents, true, nil
}

func (f *fakeCatalog) CandidatePrices(_ context.Context, city string, _ int64, serviceIDs []int64) ([]matching.StoreServicePrice, error) {
	var out []matching.StoreServicePrice
	for storeID, prices := range f.servicePrices {
		if f.storeCity[storeID] != city {
			continue
		}
		for _, id := range serviceIDs {
			if cents, ok := prices[id]; ok && cents > 0 {
				out = append(out, matching.StoreServicePrice{StoreID: storeID, ServiceID: id, PriceCents: cents})
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) ScreenOptionPricesByStore(_ context.Context, city string, optionID int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	for storeID, prices := range f.optionPrices {
		if f.storeCity[storeID] != city {
			continue
		}
		if cents, ok := prices[optionID]; ok && cents > 0 {
			out[storeID] = cents
		}
	}
	return out, nil
}
