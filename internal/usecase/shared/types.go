package shared

import (
	"time"

	"repairmatch/internal/domain/request"
)

// Write-side snapshots prevent dependency on read-side query types (CQRS
// separation).
type RequestSnapshot struct {
	ID              int64
	Code            string
	CustomerID      int64
	StoreID         int64
	ModelID         int64
	TotalCents      int64
	Currency        string
	Status          request.Status
	Fingerprint     string
	CustomerBlocked bool
	CreatedAt       time.Time
}

type UserSnapshot struct {
	ID           int64
	Email        string
	PasswordHash string
	Kind         string
	StoreID      *int64
	IsActive     bool
}
