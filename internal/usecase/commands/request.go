package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"repairmatch/internal/domain/request"
	"repairmatch/internal/domain/user"
	"repairmatch/internal/infra"
	"repairmatch/internal/pkg/clock"
	"repairmatch/internal/pkg/config"
	"repairmatch/internal/pkg/errs"
	"repairmatch/internal/pkg/metrics"
	"repairmatch/internal/pkg/rateguard"
	"repairmatch/internal/usecase/matching"
	"repairmatch/internal/usecase/shared"
)

const (
	ActionCreateRequest = "request_create"

	// Bounded retries on public-code collisions before giving up.
	maxCodeAttempts = 5
)

var (
	ErrRateLimited    = errs.New("rate limited")
	ErrOpenLimit      = errs.New("too many open requests")
	ErrInvalidRequest = errs.New("invalid request input")

	// ErrNotTransitionable covers every failed claim or transition: unknown
	// code, wrong store, wrong status. Deliberately one error so callers
	// cannot probe which codes exist.
	ErrNotTransitionable = errs.New("request not found or not in a transitionable state")

	ErrRequestNotFound = errs.New("request not found")
)

type CreateRequestInput struct {
	City           string
	ModelID        int64
	ServiceIDs     []int64
	ScreenOptionID *int64
	// StoreID, when set, bypasses matching entirely.
	StoreID *int64
}

type CreateRequestResult struct {
	Request *shared.RequestSnapshot
	Reused  bool
}

// SyncNotifier pushes request state changes to the external sync endpoint.
// Implementations must never block or fail the calling transition.
type SyncNotifier interface {
	Notify(requestID int64, event string)
}

type RequestCommands interface {
	Create(ctx context.Context, actor user.Principal, in CreateRequestInput) (*CreateRequestResult, error)
	AcceptByCode(ctx context.Context, actor user.Principal, rawCode string) (*shared.RequestSnapshot, error)
	Complete(ctx context.Context, actor user.Principal, id int64) error
	CancelByStore(ctx context.Context, actor user.Principal, id int64, reason string) error
	CancelByAdmin(ctx context.Context, actor user.Principal, id int64, reason string) error
	Withdraw(ctx context.Context, actor user.Principal, id int64) error
	SetCustomerBlocked(ctx context.Context, actor user.Principal, id int64, blocked bool) error
}

type requestCommandsImpl struct {
	uow         shared.UnitOfWork
	matcher     *matching.StoreMatcher
	resolver    *matching.PriceResolver
	guard       *rateguard.Guard
	notifier    SyncNotifier
	broadcaster ChatBroadcaster
	metrics     *metrics.Metrics
	clock       clock.Clock
	cfg         config.RequestsConfig
}

func NewRequestCommands(
	uow shared.UnitOfWork,
	matcher *matching.StoreMatcher,
	resolver *matching.PriceResolver,
	guard *rateguard.Guard,
	notifier SyncNotifier,
	broadcaster ChatBroadcaster,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg config.RequestsConfig,
) RequestCommands {
	return &requestCommandsImpl{
		uow:         uow,
		matcher:     matcher,
		resolver:    resolver,
		guard:       guard,
		notifier:    notifier,
		broadcaster: broadcaster,
		metrics:     m,
		clock:       clk,
		cfg:         cfg,
	}
}

// Create runs the idempotent creation protocol: fingerprint reuse first, then
// the open-request quota, then pricing and the constrained insert. Losing a
// fingerprint race re-reads the winner's row instead of erroring.
func (c *requestCommandsImpl) Create(ctx context.Context, actor user.Principal, in CreateRequestInput) (*CreateRequestResult, error) {
	if !actor.IsCustomer() {
		return nil, ErrInvalidRequest
	}
	if len(in.ServiceIDs) == 0 {
		return nil, errs.Mark(request.ErrNoServices, ErrInvalidRequest)
	}

	if err := c.guard.Allow(principalKey(actor), ActionCreateRequest); err != nil {
		c.metrics.IncRateLimited(ActionCreateRequest)
		return nil, errs.Mark(err, ErrRateLimited)
	}

	storeID, err := c.pickStore(ctx, in)
	if err != nil {
		return nil, err
	}

	fingerprint := request.Fingerprint(storeID, in.ModelID, in.ServiceIDs, in.ScreenOptionID)

	// Reuse before anything else: resubmitting an identical cart must return
	// the existing row even when prices changed or the quota is full since.
	if existing, err := c.findOpenByFingerprint(ctx, actor.ID, fingerprint); err != nil {
		return nil, err
	} else if existing != nil {
		c.metrics.IncRequestCreated(true)
		return &CreateRequestResult{Request: existing, Reused: true}, nil
	}

	sheet, err := c.resolver.ResolvePrices(ctx, storeID, in.ModelID, in.ServiceIDs, in.ScreenOptionID)
	if err != nil {
		return nil, err
	}

	snap, reused, err := c.insertWithCodeRetry(ctx, actor.ID, storeID, in.ModelID, fingerprint, sheet)
	if err != nil {
		return nil, err
	}

	c.metrics.IncRequestCreated(reused)
	if !reused {
		c.notifier.Notify(snap.ID, "created")
	}
	return &CreateRequestResult{Request: snap, Reused: reused}, nil
}

func (c *requestCommandsImpl) pickStore(ctx context.Context, in CreateRequestInput) (int64, error) {
	if in.StoreID != nil && *in.StoreID > 0 {
		return *in.StoreID, nil
	}
	return c.matcher.PickStore(ctx, in.City, in.ModelID, in.ServiceIDs, in.ScreenOptionID)
}

func (c *requestCommandsImpl) findOpenByFingerprint(ctx context.Context, customerID int64, fingerprint string) (*shared.RequestSnapshot, error) {
	var found *shared.RequestSnapshot
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Requests().FindOpenByFingerprint(ctx, tx.DB(), customerID, fingerprint)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return err
		}
		found = snap
		return nil
	})
	return found, err
}

func (c *requestCommandsImpl) insertWithCodeRetry(
	ctx context.Context,
	customerID, storeID, modelID int64,
	fingerprint string,
	sheet *matching.PriceSheet,
) (*shared.RequestSnapshot, bool, error) {
	items := make([]request.Item, 0, len(sheet.Lines))
	for _, line := range sheet.Lines {
		items = append(items, request.Item{
			ServiceID:         line.ServiceID,
			PriceCents:        line.PriceCents,
			Currency:          c.cfg.Currency,
			ScreenOptionID:    line.ScreenOptionID,
			ScreenOptionCents: line.ScreenOptionCents,
		})
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := request.NewCode(c.cfg.CodePrefix)
		if err != nil {
			return nil, false, errs.Mark(err, request.ErrCodeGeneration)
		}

		entity, err := request.NewServiceRequest(code, customerID, storeID, modelID, c.cfg.Currency, items, fingerprint, c.clock.Now())
		if err != nil {
			return nil, false, errs.Mark(err, ErrInvalidRequest)
		}

		var snap *shared.RequestSnapshot
		var reused bool
		txErr := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			count, err := tx.Requests().CountOpenByCustomer(ctx, tx.DB(), customerID)
			if err != nil {
				return err
			}
			if count >= c.cfg.MaxOpen {
				return ErrOpenLimit
			}

			id, err := tx.Requests().Create(ctx, tx.DB(), entity)
			if err != nil {
				return err
			}
			snap, err = tx.Requests().FindByID(ctx, tx.DB(), id)
			return err
		})
		if txErr == nil {
			return snap, reused, nil
		}

		if infra.IsKind(txErr, infra.KindDuplicateKey) {
			switch infra.ConstraintName(txErr) {
			case "requests_open_fingerprint_uq":
				// Lost the race to an identical concurrent submission; the
				// winner's row is the result.
				winner, err := c.findOpenByFingerprint(ctx, customerID, fingerprint)
				if err != nil {
					return nil, false, err
				}
				if winner == nil {
					// Winner already left the open state between the insert
					// and this read. Retry the whole insert.
					continue
				}
				return winner, true, nil
			case "requests_code_key":
				slog.Debug("request code collision, retrying", "attempt", attempt+1)
				continue
			}
		}
		return nil, false, txErr
	}

	return nil, false, request.ErrCodeGeneration
}

// AcceptByCode claims an open request for the operator's store. Every failure
// mode collapses into ErrNotTransitionable; a repeated claim of a request the
// same store already accepted is a harmless no-op.
func (c *requestCommandsImpl) AcceptByCode(ctx context.Context, actor user.Principal, rawCode string) (*shared.RequestSnapshot, error) {
	if !actor.IsStore() {
		return nil, ErrNotTransitionable
	}
	code, err := request.NormalizeCode(rawCode)
	if err != nil {
		return nil, errs.Mark(err, ErrNotTransitionable)
	}

	var snap *shared.RequestSnapshot
	var claimed bool
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Requests().FindByCode(ctx, tx.DB(), code)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrNotTransitionable
			}
			return err
		}

		claimed, err = tx.Requests().Accept(ctx, tx.DB(), found.ID, actor.StoreID, c.clock.Now())
		if err != nil {
			return err
		}
		if !claimed {
			if found.StoreID == actor.StoreID && found.Status == request.StatusAccepted {
				snap = found
				return nil
			}
			return ErrNotTransitionable
		}

		snap, err = tx.Requests().FindByID(ctx, tx.DB(), found.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// A repeated claim changed nothing, so nobody gets notified again.
	if claimed {
		c.metrics.IncTransition(request.StatusAccepted.String())
		c.broadcaster.RequestUpdated(snap)
		c.notifier.Notify(snap.ID, "accepted")
	}
	return snap, nil
}

func (c *requestCommandsImpl) Complete(ctx context.Context, actor user.Principal, id int64) error {
	if !actor.IsStore() {
		return ErrNotTransitionable
	}

	var snap *shared.RequestSnapshot
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		done, err := tx.Requests().Complete(ctx, tx.DB(), id, actor.StoreID, c.clock.Now())
		if err != nil {
			return err
		}
		if !done {
			return ErrNotTransitionable
		}
		snap, err = tx.Requests().FindByID(ctx, tx.DB(), id)
		return err
	})
	if err != nil {
		return err
	}

	c.metrics.IncTransition(request.StatusCompleted.String())
	c.broadcaster.RequestUpdated(snap)
	c.notifier.Notify(id, "completed")
	return nil
}

func (c *requestCommandsImpl) CancelByStore(ctx context.Context, actor user.Principal, id int64, reason string) error {
	if !actor.IsStore() {
		return ErrNotTransitionable
	}
	reasonPtr, err := normalizeReason(reason)
	if err != nil {
		return err
	}

	var snap *shared.RequestSnapshot
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		done, err := tx.Requests().CancelByStore(ctx, tx.DB(), id, actor.StoreID, reasonPtr, c.clock.Now())
		if err != nil {
			return err
		}
		if !done {
			return ErrNotTransitionable
		}
		snap, err = tx.Requests().FindByID(ctx, tx.DB(), id)
		return err
	})
	if err != nil {
		return err
	}

	c.metrics.IncTransition(request.StatusCancelled.String())
	c.broadcaster.RequestUpdated(snap)
	c.notifier.Notify(id, "cancelled")
	return nil
}

func (c *requestCommandsImpl) CancelByAdmin(ctx context.Context, actor user.Principal, id int64, reason string) error {
	if !actor.IsAdmin() {
		return ErrNotTransitionable
	}
	reasonPtr, err := normalizeReason(reason)
	if err != nil {
		return err
	}

	var snap *shared.RequestSnapshot
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		done, err := tx.Requests().CancelByAdmin(ctx, tx.DB(), id, reasonPtr, c.clock.Now())
		if err != nil {
			return err
		}
		if !done {
			return ErrNotTransitionable
		}
		snap, err = tx.Requests().FindByID(ctx, tx.DB(), id)
		return err
	})
	if err != nil {
		return err
	}

	c.metrics.IncTransition(request.StatusCancelled.String())
	c.broadcaster.RequestUpdated(snap)
	c.notifier.Notify(id, "cancelled")
	return nil
}

// Withdraw hard-deletes an open request on behalf of its owner, cascading
// items and messages. Not a status transition.
func (c *requestCommandsImpl) Withdraw(ctx context.Context, actor user.Principal, id int64) error {
	if !actor.IsCustomer() {
		return ErrNotTransitionable
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		deleted, err := tx.Requests().DeleteOpen(ctx, tx.DB(), id, actor.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotTransitionable
		}
		return nil
	})
}

func (c *requestCommandsImpl) SetCustomerBlocked(ctx context.Context, actor user.Principal, id int64, blocked bool) error {
	if !actor.IsAdmin() {
		return ErrRequestNotFound
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.Requests().FindByID(ctx, tx.DB(), id); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		return tx.Requests().SetCustomerBlocked(ctx, tx.DB(), id, blocked, actor.ID, c.clock.Now())
	})
}

func normalizeReason(reason string) (*string, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > request.MaxCancelReasonLen {
		return nil, errs.Mark(request.ErrCancelReasonLong, ErrInvalidRequest)
	}
	if reason == "" {
		return nil, nil
	}
	return &reason, nil
}

func principalKey(actor user.Principal) string {
	return fmt.Sprintf("%s:%d", actor.Kind, actor.ID)
}
