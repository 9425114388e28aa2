//go:build unit

package commands_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/domain/request"
	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
	"repairmatch/internal/usecase/matching"
	"repairmatch/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is the in-memory persistence behind the fake unit of work. It
// reproduces the two unique constraints the command layer dispatches on.
type memStore struct {
	mu        sync.Mutex
	requests  map[int64]*shared.RequestSnapshot
	messages  []*chat.Message
	markers   map[string]int64
	nextReqID int64
	nextMsgID int64

	lastCancelReason *string

	// forceCodeCollisions makes the next N inserts fail as if the generated
	// code already existed.
	forceCodeCollisions int
	// forceFingerprintRaces makes the next N inserts fail as if a concurrent
	// identical submission won the partial unique index.
	forceFingerprintRaces int
	// forceAcceptConflicts makes the next N accept updates miss their guard,
	// as if a concurrent claim committed between the read and the update.
	forceAcceptConflicts int
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[int64]*shared.RequestSnapshot),
		markers:  make(map[string]int64),
	}
}

func (s *memStore) seedRequest(snap shared.RequestSnapshot) *shared.RequestSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReqID++
	snap.ID = s.nextReqID
	s.requests[snap.ID] = &snap
	return &snap
}

func duplicateErr(constraint string) error {
	return infra.WrapRepoErr("duplicate key", &pgconn.PgError{Code: "23505", ConstraintName: constraint})
}

func notFoundErr(what string) error {
	return infra.WrapRepoErr(what+" not found", nil, infra.KindNotFound)
}

type fakeUoW struct {
	store *memStore
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &fakeTx{store: u.store})
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

type fakeTx struct {
	store *memStore
}

func (t *fakeTx) Requests() shared.RequestRepository         { return &fakeRequestRepo{store: t.store} }
func (t *fakeTx) Messages() shared.MessageRepository         { return &fakeMessageRepo{store: t.store} }
func (t *fakeTx) ReadMarkers() shared.ReadMarkerRepository   { return &fakeMarkerRepo{store: t.store} }
func (t *fakeTx) SyncAttempts() shared.SyncAttemptRepository { return &fakeSyncRepo{} }
func (t *fakeTx) Users() shared.UserRepository               { return &fakeUserRepo{} }
func (t *fakeTx) DB() db.DBTX                                { return nil }

type fakeRequestRepo struct {
	store *memStore
}

func (r *fakeRequestRepo) Create(_ context.Context, _ db.DBTX, req *request.ServiceRequest) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forceCodeCollisions > 0 {
		s.forceCodeCollisions--
		return 0, duplicateErr("requests_code_key")
	}
	if s.forceFingerprintRaces > 0 {
		s.forceFingerprintRaces--
		return 0, duplicateErr("requests_open_fingerprint_uq")
	}
	for _, existing := range s.requests {
		if existing.Code == req.Code() {
			return 0, duplicateErr("requests_code_key")
		}
		if existing.Status == request.StatusOpen &&
			existing.CustomerID == req.CustomerID() &&
			existing.Fingerprint == req.Fingerprint() {
			return 0, duplicateErr("requests_open_fingerprint_uq")
		}
	}

	s.nextReqID++
	s.requests[s.nextReqID] = &shared.RequestSnapshot{
		ID:          s.nextReqID,
		Code:        req.Code(),
		CustomerID:  req.CustomerID(),
		StoreID:     req.StoreID(),
		ModelID:     req.ModelID(),
		TotalCents:  req.TotalCents(),
		Currency:    req.Currency(),
		Status:      req.Status(),
		Fingerprint: req.Fingerprint(),
		CreatedAt:   req.CreatedAt(),
	}
	return s.nextReqID, nil
}

func (r *fakeRequestRepo) FindByID(_ context.Context, _ db.DBTX, id int64) (*shared.RequestSnapshot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.requests[id]
	if !ok {
		return nil, notFoundErr("request")
	}
	copied := *snap
	return &copied, nil
}

func (r *fakeRequestRepo) FindByCode(_ context.Context, _ db.DBTX, code string) (*shared.RequestSnapshot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.requests {
		if snap.Code == code {
			copied := *snap
			return &copied, nil
		}
	}
	return nil, notFoundErr("request")
}

func (r *fakeRequestRepo) FindOpenByFingerprint(_ context.Context, _ db.DBTX, customerID int64, fingerprint string) (*shared.RequestSnapshot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.requests {
		if snap.Status == request.StatusOpen && snap.CustomerID == customerID && snap.Fingerprint == fingerprint {
			copied := *snap
			return &copied, nil
		}
	}
	return nil, notFoundErr("request")
}

func (r *fakeRequestRepo) CountOpenByCustomer(_ context.Context, _ db.DBTX, customerID int64) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, snap := range s.requests {
		if snap.Status == request.StatusOpen && snap.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRequestRepo) Accept(_ context.Context, _ db.DBTX, id, storeID int64, _ time.Time) (bool, error) {
	return r.cas(id, func(snap *shared.RequestSnapshot) bool {
		if r.store.forceAcceptConflicts > 0 {
			r.store.forceAcceptConflicts--
			return false
		}
		if snap.StoreID != storeID || snap.Status != request.StatusOpen {
			return false
		}
		snap.Status = request.StatusAccepted
		return true
	})
}

func (r *fakeRequestRepo) Complete(_ context.Context, _ db.DBTX, id, storeID int64, _ time.Time) (bool, error) {
	return r.cas(id, func(snap *shared.RequestSnapshot) bool {
		if snap.StoreID != storeID || snap.Status != request.StatusAccepted {
			return false
		}
		snap.Status = request.StatusCompleted
		return true
	})
}

func (r *fakeRequestRepo) CancelByStore(_ context.Context, _ db.DBTX, id, storeID int64, reason *string, _ time.Time) (bool, error) {
	return r.cas(id, func(snap *shared.RequestSnapshot) bool {
		if snap.StoreID != storeID || snap.Status != request.StatusAccepted {
			return false
		}
		snap.Status = request.StatusCancelled
		r.store.lastCancelReason = reason
		return true
	})
}

func (r *fakeRequestRepo) CancelByAdmin(_ context.Context, _ db.DBTX, id int64, _ *string, _ time.Time) (bool, error) {
	return r.cas(id, func(snap *shared.RequestSnapshot) bool {
		if snap.Status != request.StatusOpen {
			return false
		}
		snap.Status = request.StatusCancelled
		return true
	})
}

func (r *fakeRequestRepo) cas(id int64, update func(*shared.RequestSnapshot) bool) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.requests[id]
	if !ok {
		return false, nil
	}
	return update(snap), nil
}

func (r *fakeRequestRepo) DeleteOpen(_ context.Context, _ db.DBTX, id, customerID int64) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.requests[id]
	if !ok || snap.CustomerID != customerID || snap.Status != request.StatusOpen {
		return false, nil
	}
	delete(s.requests, id)
	return true, nil
}

func (r *fakeRequestRepo) SetCustomerBlocked(_ context.Context, _ db.DBTX, id int64, blocked bool, _ int64, _ time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.requests[id]
	if !ok {
		return notFoundErr("request")
	}
	snap.CustomerBlocked = blocked
	return nil
}

func (r *fakeRequestRepo) SetLastSyncedAt(_ context.Context, _ db.DBTX, _ int64, _ time.Time) error {
	return nil
}

type fakeMessageRepo struct {
	store *memStore
}

func (r *fakeMessageRepo) Create(_ context.Context, _ db.DBTX, msg *chat.Message) (*chat.Message, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsgID++
	created := chat.ReconstructMessage(s.nextMsgID, msg.RequestID(), msg.SenderKind(), msg.SenderID(), msg.Body().String(), msg.CreatedAt())
	s.messages = append(s.messages, created)
	return created, nil
}

type fakeMarkerRepo struct {
	store *memStore
}

func (r *fakeMarkerRepo) AdvanceTo(_ context.Context, _ db.DBTX, operatorID, requestID, messageID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d/%d", operatorID, requestID)
	if messageID > s.markers[key] {
		s.markers[key] = messageID
	}
	return nil
}

type fakeSyncRepo struct{}

func (r *fakeSyncRepo) Record(context.Context, db.DBTX, int64, string, bool, *string) error {
	return nil
}

type fakeUserRepo struct{}

func (r *fakeUserRepo) UpdateLastLogin(context.Context, db.DBTX, int64) error { return nil }

// fakeNotifier records sync notifications synchronously.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(requestID int64, event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf("%d:%s", requestID, event))
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

// fakeBroadcaster records realtime fan-out calls.
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []*chat.Message
	updates  []*shared.RequestSnapshot
}

func (b *fakeBroadcaster) MessageCreated(msg *chat.Message, _ *shared.RequestSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *fakeBroadcaster) RequestUpdated(req *shared.RequestSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, req)
}

// stubCatalog carries a single city with one general service priced at one
// store, enough for the creation flow.
type stubCatalog struct {
	serviceID  int64
	storeID    int64
	city       string
	priceCents int64
}

func (c *stubCatalog) ServicesByIDs(_ context.Context, serviceIDs []int64) ([]matching.ServiceInfo, error) {
	var out []matching.ServiceInfo
	for _, id := range serviceIDs {
		if id == c.serviceID {
			out = append(out, matching.ServiceInfo{ID: id, Name: "battery", Kind: matching.ServiceKindGeneral})
		}
	}
	return out, nil
}

func (c *stubCatalog) ScreenOptionByID(context.Context, int64) (*matching.ScreenOptionInfo, error) {
	return nil, nil
}

func (c *stubCatalog) ServicePrices(_ context.Context, storeID, _ int64, serviceIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	for _, id := range serviceIDs {
		if id == c.serviceID && storeID == c.storeID {
			out[id] = c.priceCents
		}
	}
	return out, nil
}

func (c *stubCatalog) ScreenOptionPrice(context.Context, int64, int64) (int64, bool, error) {
	return 0, false, nil
}

func (c *stubCatalog) CandidatePrices(_ context.Context, city string, _ int64, serviceIDs []int64) ([]matching.StoreServicePrice, error) {
	if city != c.city {
		return nil, nil
	}
	var out []matching.StoreServicePrice
	for _, id := range serviceIDs {
		if id == c.serviceID {
			out = append(out, matching.StoreServicePrice{StoreID: c.storeID, ServiceID: id, PriceCents: c.priceCents})
		}
	}
	return out, nil
}

func (c *stubCatalog) ScreenOptionPricesByStore(context.Context, string, int64) (map[int64]int64, error) {
	return map[int64]int64{}, nil
}
