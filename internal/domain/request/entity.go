package request

import (
	"errors"
	"time"
)

const MaxCancelReasonLen = 500

var (
	ErrNoServices       = errors.New("at least one service is required")
	ErrNegativePrice    = errors.New("price cannot be negative")
	ErrCancelReasonLong = errors.New("cancellation reason too long")
)

// Item is one priced line of a request. Price is captured at creation time
// and never recomputed.
type Item struct {
	ServiceID         int64
	PriceCents        int64
	Currency          string
	ScreenOptionID    *int64
	ScreenOptionCents *int64
}

// ServiceRequest is the aggregate at creation time: an open request assembled
// from priced items. Lifecycle transitions happen as guarded updates against
// stored state, never on an in-memory copy, so concurrent writers cannot both
// win.
type ServiceRequest struct {
	id          int64
	code        string
	customerID  int64
	storeID     int64
	modelID     int64
	totalCents  int64
	currency    string
	status      Status
	fingerprint string
	items       []Item
	createdAt   time.Time
}

// NewServiceRequest assembles an open request from priced items. The total is
// the sum of item prices, fixed forever at this point.
func NewServiceRequest(
	code string,
	customerID, storeID, modelID int64,
	currency string,
	items []Item,
	fingerprint string,
	now time.Time,
) (*ServiceRequest, error) {
	if len(items) == 0 {
		return nil, ErrNoServices
	}

	var total int64
	for _, it := range items {
		if it.PriceCents < 0 {
			return nil, ErrNegativePrice
		}
		total += it.PriceCents
	}

	return &ServiceRequest{
		code:        code,
		customerID:  customerID,
		storeID:     storeID,
		modelID:     modelID,
		totalCents:  total,
		currency:    currency,
		status:      StatusOpen,
		fingerprint: fingerprint,
		items:       items,
		createdAt:   now,
	}, nil
}

func (r *ServiceRequest) ID() int64            { return r.id }
func (r *ServiceRequest) Code() string         { return r.code }
func (r *ServiceRequest) CustomerID() int64    { return r.customerID }
func (r *ServiceRequest) StoreID() int64       { return r.storeID }
func (r *ServiceRequest) ModelID() int64       { return r.modelID }
func (r *ServiceRequest) TotalCents() int64    { return r.totalCents }
func (r *ServiceRequest) Currency() string     { return r.currency }
func (r *ServiceRequest) Status() Status       { return r.status }
func (r *ServiceRequest) Fingerprint() string  { return r.fingerprint }
func (r *ServiceRequest) Items() []Item        { return r.items }
func (r *ServiceRequest) CreatedAt() time.Time { return r.createdAt }
