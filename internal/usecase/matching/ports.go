package matching

import "context"

type ServiceKind string

const (
	ServiceKindGeneral ServiceKind = "general"
	ServiceKindScreen  ServiceKind = "screen_replacement"
)

type ServiceInfo struct {
	ID   int64
	Name string
	Kind ServiceKind
}

type ScreenOptionInfo struct {
	ID      int64
	ModelID int64
	Label   string
	Active  bool
}

// StoreServicePrice is one row of the per-(store, model, service) price
// table, already filtered to a city and model.
type StoreServicePrice struct {
	StoreID    int64
	ServiceID  int64
	PriceCents int64
}

// CatalogReads is the read-only catalog boundary both the resolver and the
// matcher depend on. The catalog itself (brands, models, admin pricing) is an
// external collaborator.
type CatalogReads interface {
	ServicesByIDs(ctx context.Context, serviceIDs []int64) ([]ServiceInfo, error)
	ScreenOptionByID(ctx context.Context, optionID int64) (*ScreenOptionInfo, error)
	// ServicePrices returns the priced subset of serviceIDs for one store and
	// model; absent rows are simply missing from the map.
	ServicePrices(ctx context.Context, storeID, modelID int64, serviceIDs []int64) (map[int64]int64, error)
	// ScreenOptionPrice returns (0, false, nil) when the store has no positive
	// price for the option.
	ScreenOptionPrice(ctx context.Context, storeID, optionID int64) (int64, bool, error)
	// CandidatePrices returns every price row for the given model and service
	// set across all stores in the city.
	CandidatePrices(ctx context.Context, city string, modelID int64, serviceIDs []int64) ([]StoreServicePrice, error)
	// ScreenOptionPricesByStore returns store id → positive option price for
	// stores in the city.
	ScreenOptionPricesByStore(ctx context.Context, city string, optionID int64) (map[int64]int64, error)
}
