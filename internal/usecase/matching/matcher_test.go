//go:build unit

package matching_test

import (
	"context"
	"testing"

	"repairmatch/internal/usecase/matching"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	svcBattery = int64(1)
	svcCamera  = int64(2)
	svcScreen  = int64(3)
	optOEM     = int64(50)
	modelID    = int64(10)
)

func seedCity(f *fakeCatalog) {
	f.addService(svcBattery, matching.ServiceKindGeneral)
	f.addService(svcCamera, matching.ServiceKindGeneral)
	f.addService(svcScreen, matching.ServiceKindScreen)
	f.screenOptions[optOEM] = matching.ScreenOptionInfo{ID: optOEM, ModelID: modelID, Label: "OEM", Active: true}
	f.addStore(100, "Berlin")
	f.addStore(101, "Berlin")
	f.addStore(102, "Berlin")
	f.addStore(200, "Hamburg")
}

func TestPickStoreCheapestFullCoverage(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)

	// 100 covers both and is cheapest in total; 101 covers both but costs
	// more; 102 is cheap on battery but has no camera price at all.
	f.price(100, svcBattery, 3000)
	f.price(100, svcCamera, 4000)
	f.price(101, svcBattery, 2000)
	f.price(101, svcCamera, 6000)
	f.price(102, svcBattery, 100)

	m := matching.NewStoreMatcher(f, 0)
	storeID, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcBattery, svcCamera}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), storeID, "partial coverage never competes on price")
}

func TestPickStoreTieBreaksOnLowestID(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)
	f.price(101, svcBattery, 3000)
	f.price(100, svcBattery, 3000)

	m := matching.NewStoreMatcher(f, 0)
	storeID, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcBattery}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), storeID)
}

func TestPickStoreIgnoresOtherCities(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)
	f.price(200, svcBattery, 1) // Hamburg, dramatically cheaper
	f.price(100, svcBattery, 3000)

	m := matching.NewStoreMatcher(f, 0)
	storeID, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcBattery}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), storeID)
}

func TestPickStoreScreenOptionIntersectsCandidates(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)
	// Both stores cover the battery, only 101 prices the screen option.
	f.price(100, svcBattery, 1000)
	f.price(101, svcBattery, 5000)
	f.optionPrice(101, optOEM, 9000)

	m := matching.NewStoreMatcher(f, 0)
	opt := optOEM
	storeID, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcBattery, svcScreen}, &opt)
	require.NoError(t, err)
	assert.Equal(t, int64(101), storeID)
}

func TestPickStoreScreenOnlyRequest(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)
	f.optionPrice(100, optOEM, 9000)
	f.optionPrice(101, optOEM, 7000)

	m := matching.NewStoreMatcher(f, 0)
	opt := optOEM
	storeID, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcScreen}, &opt)
	require.NoError(t, err)
	assert.Equal(t, int64(101), storeID, "option prices alone seed the candidate set")
}

func TestPickStoreScreenServiceRequiresOption(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)
	f.optionPrice(100, optOEM, 9000)

	m := matching.NewStoreMatcher(f, 0)
	_, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcScreen}, nil)
	assert.ErrorIs(t, err, matching.ErrScreenOptionInvalid)
}

func TestPickStoreNoCandidate(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)

	m := matching.NewStoreMatcher(f, 0)
	_, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcBattery}, nil)
	assert.ErrorIs(t, err, matching.ErrNoStoreFound)
}

func TestPickStoreFixedStoreOverride(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)
	// No prices at all; the override skips the search entirely.
	m := matching.NewStoreMatcher(f, 555)
	storeID, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{svcBattery}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(555), storeID)
}

func TestPickStoreUnknownService(t *testing.T) {
	f := newFakeCatalog()
	seedCity(f)

	m := matching.NewStoreMatcher(f, 0)
	_, err := m.PickStore(context.Background(), "Berlin", modelID, []int64{999}, nil)
	assert.ErrorIs(t, err, matching.ErrUnknownService)
}
