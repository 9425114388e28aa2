//go:build unit

package request_test

import (
	"testing"
	"time"

	"repairmatch/internal/domain/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newOpenRequest(t *testing.T) *request.ServiceRequest {
	t.Helper()
	req, err := request.NewServiceRequest(
		"RQ-7GKXW", 1, 2, 3, "EUR",
		[]request.Item{
			{ServiceID: 10, PriceCents: 4900, Currency: "EUR"},
			{ServiceID: 11, PriceCents: 2500, Currency: "EUR"},
		},
		"fp", now,
	)
	require.NoError(t, err)
	return req
}

func TestNewServiceRequest(t *testing.T) {
	req := newOpenRequest(t)

	assert.Equal(t, request.StatusOpen, req.Status())
	assert.Equal(t, int64(7400), req.TotalCents(), "total is the sum of item prices")
	assert.Equal(t, now, req.CreatedAt())
	assert.Len(t, req.Items(), 2)
}

func TestNewServiceRequestValidation(t *testing.T) {
	_, err := request.NewServiceRequest("RQ-7GKXW", 1, 2, 3, "EUR", nil, "fp", now)
	assert.ErrorIs(t, err, request.ErrNoServices)

	_, err = request.NewServiceRequest("RQ-7GKXW", 1, 2, 3, "EUR",
		[]request.Item{{ServiceID: 10, PriceCents: -1, Currency: "EUR"}}, "fp", now)
	assert.ErrorIs(t, err, request.ErrNegativePrice)
}
