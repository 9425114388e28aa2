package shared

import (
	"context"
	"time"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/domain/request"
	"repairmatch/internal/infra/db"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
}

type Tx interface {
	Requests() RequestRepository
	Messages() MessageRepository
	ReadMarkers() ReadMarkerRepository
	SyncAttempts() SyncAttemptRepository
	Users() UserRepository
	DB() db.DBTX
}

type RequestRepository interface {
	// Create inserts the request row and all of its items atomically within
	// the surrounding transaction.
	Create(ctx context.Context, dbtx db.DBTX, req *request.ServiceRequest) (int64, error)
	FindByID(ctx context.Context, dbtx db.DBTX, id int64) (*RequestSnapshot, error)
	FindByCode(ctx context.Context, dbtx db.DBTX, code string) (*RequestSnapshot, error)
	FindOpenByFingerprint(ctx context.Context, dbtx db.DBTX, customerID int64, fingerprint string) (*RequestSnapshot, error)
	CountOpenByCustomer(ctx context.Context, dbtx db.DBTX, customerID int64) (int, error)

	// Guarded transitions: each issues a conditional update scoped to the
	// expected prior status (and owning store where applicable) and reports
	// whether a row was actually claimed.
	Accept(ctx context.Context, dbtx db.DBTX, id, storeID int64, now time.Time) (bool, error)
	Complete(ctx context.Context, dbtx db.DBTX, id, storeID int64, now time.Time) (bool, error)
	CancelByStore(ctx context.Context, dbtx db.DBTX, id, storeID int64, reason *string, now time.Time) (bool, error)
	CancelByAdmin(ctx context.Context, dbtx db.DBTX, id int64, reason *string, now time.Time) (bool, error)

	// DeleteOpen removes an open request with full cascade (items, messages,
	// markers); returns false when the row was no longer open.
	DeleteOpen(ctx context.Context, dbtx db.DBTX, id, customerID int64) (bool, error)

	SetCustomerBlocked(ctx context.Context, dbtx db.DBTX, id int64, blocked bool, adminID int64, now time.Time) error
	SetLastSyncedAt(ctx context.Context, dbtx db.DBTX, id int64, now time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, msg *chat.Message) (*chat.Message, error)
}

type ReadMarkerRepository interface {
	// AdvanceTo raises the operator's high-water mark for a request; a lower
	// value than the stored one is a no-op.
	AdvanceTo(ctx context.Context, dbtx db.DBTX, operatorID, requestID, messageID int64) error
}

type SyncAttemptRepository interface {
	Record(ctx context.Context, dbtx db.DBTX, requestID int64, event string, success bool, detail *string) error
}

type UserRepository interface {
	UpdateLastLogin(ctx context.Context, dbtx db.DBTX, userID int64) error
}
