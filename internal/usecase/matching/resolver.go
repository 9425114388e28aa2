package matching

import (
	"context"
	"fmt"

	"repairmatch/internal/pkg/errs"
)

var (
	ErrUnknownService      = errs.New("unknown service")
	ErrMissingScreenPrice  = errs.New("store has no price for screen option")
	ErrScreenOptionInvalid = errs.New("screen option invalid")
)

// MissingPricesError reports which requested services have no price row for
// the chosen store and model. Reported, never retried.
type MissingPricesError struct {
	ServiceIDs []int64
}

func (e *MissingPricesError) Error() string {
	return fmt.Sprintf("missing prices for services %v", e.ServiceIDs)
}

// PriceLine is one resolved line item.
type PriceLine struct {
	ServiceID         int64
	PriceCents        int64
	ScreenOptionID    *int64
	ScreenOptionCents *int64
}

type PriceSheet struct {
	Lines      []PriceLine
	TotalCents int64
}

// PriceResolver computes the per-line price of a service set against one
// store. Ordinary services are looked up in the price table; the screen
// replacement service is priced from the selected screen option instead.
// Pure read, no side effects.
type PriceResolver struct {
	catalog CatalogReads
}

func NewPriceResolver(catalog CatalogReads) *PriceResolver {
	return &PriceResolver{catalog: catalog}
}

func (r *PriceResolver) ResolvePrices(ctx context.Context, storeID, modelID int64, serviceIDs []int64, screenOptionID *int64) (*PriceSheet, error) {
	ordinary, screenServiceID, err := splitServices(ctx, r.catalog, serviceIDs)
	if err != nil {
		return nil, err
	}

	sheet := &PriceSheet{}

	if len(ordinary) > 0 {
		prices, err := r.catalog.ServicePrices(ctx, storeID, modelID, ordinary)
		if err != nil {
			return nil, err
		}
		var missing []int64
		for _, id := range ordinary {
			cents, ok := prices[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			sheet.Lines = append(sheet.Lines, PriceLine{ServiceID: id, PriceCents: cents})
			sheet.TotalCents += cents
		}
		if len(missing) > 0 {
			return nil, &MissingPricesError{ServiceIDs: missing}
		}
	}

	if screenServiceID != nil {
		line, err := r.resolveScreenLine(ctx, storeID, modelID, *screenServiceID, screenOptionID)
		if err != nil {
			return nil, err
		}
		sheet.Lines = append(sheet.Lines, *line)
		sheet.TotalCents += line.PriceCents
	}

	return sheet, nil
}

func (r *PriceResolver) resolveScreenLine(ctx context.Context, storeID, modelID, screenServiceID int64, screenOptionID *int64) (*PriceLine, error) {
	if screenOptionID == nil {
		return nil, ErrScreenOptionInvalid
	}

	option, err := r.catalog.ScreenOptionByID(ctx, *screenOptionID)
	if err != nil {
		return nil, err
	}
	if option == nil || option.ModelID != modelID || !option.Active {
		return nil, ErrScreenOptionInvalid
	}

	cents, ok, err := r.catalog.ScreenOptionPrice(ctx, storeID, *screenOptionID)
	if err != nil {
		return nil, err
	}
	// Zero or absent price means the store does not offer this option.
	if !ok || cents <= 0 {
		return nil, ErrMissingScreenPrice
	}

	optionID := *screenOptionID
	optionCents := cents
	return &PriceLine{
		ServiceID:         screenServiceID,
		PriceCents:        cents,
		ScreenOptionID:    &optionID,
		ScreenOptionCents: &optionCents,
	}, nil
}

// splitServices validates the requested ids against the catalog and separates
// ordinary services from the (at most one) screen replacement service.
func splitServices(ctx context.Context, catalog CatalogReads, serviceIDs []int64) ([]int64, *int64, error) {
	if len(serviceIDs) == 0 {
		return nil, nil, ErrUnknownService
	}

	infos, err := catalog.ServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, nil, err
	}

	known := make(map[int64]ServiceInfo, len(infos))
	for _, info := range infos {
		known[info.ID] = info
	}

	var ordinary []int64
	var screenID *int64
	seen := make(map[int64]struct{}, len(serviceIDs))
	for _, id := range serviceIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		info, ok := known[id]
		if !ok {
			return nil, nil, errs.Mark(fmt.Errorf("service %d not in catalog", id), ErrUnknownService)
		}
		if info.Kind == ServiceKindScreen {
			sid := id
			screenID = &sid
			continue
		}
		ordinary = append(ordinary, id)
	}

	return ordinary, screenID, nil
}
