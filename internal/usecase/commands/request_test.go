//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"repairmatch/internal/domain/request"
	"repairmatch/internal/domain/user"
	"repairmatch/internal/pkg/clock"
	"repairmatch/internal/pkg/config"
	"repairmatch/internal/pkg/metrics"
	"repairmatch/internal/pkg/rateguard"
	"repairmatch/internal/usecase/commands"
	"repairmatch/internal/usecase/matching"
	"repairmatch/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stubServiceID = int64(1)
	stubStoreID   = int64(100)
	stubModelID   = int64(10)
	stubCity      = "Berlin"
)

var (
	customer = user.Principal{ID: 7, Kind: user.KindCustomer}
	operator = user.Principal{ID: 20, Kind: user.KindStore, StoreID: stubStoreID}
	admin    = user.Principal{ID: 1, Kind: user.KindAdmin}
)

type requestHarness struct {
	store       *memStore
	notifier    *fakeNotifier
	broadcaster *fakeBroadcaster
	guard       *rateguard.Guard
	clock       *clock.MockClock
	commands    commands.RequestCommands
}

func newRequestHarness(t *testing.T, mutateCfg ...func(*config.RequestsConfig)) *requestHarness {
	t.Helper()

	cfg := config.NewTestConfig().Requests
	for _, mutate := range mutateCfg {
		mutate(&cfg)
	}

	catalog := &stubCatalog{serviceID: stubServiceID, storeID: stubStoreID, city: stubCity, priceCents: 3000}
	store := newMemStore()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	guard := rateguard.New(clk)
	guard.Configure(commands.ActionCreateRequest, rateguard.Limit{Events: cfg.CreateLimit, Window: cfg.CreateWindow})
	notifier := &fakeNotifier{}
	broadcaster := &fakeBroadcaster{}

	cmds := commands.NewRequestCommands(
		&fakeUoW{store: store},
		matching.NewStoreMatcher(catalog, cfg.FixedStoreID),
		matching.NewPriceResolver(catalog),
		guard,
		notifier,
		broadcaster,
		metrics.New(),
		clk,
		cfg,
	)

	return &requestHarness{
		store:       store,
		notifier:    notifier,
		broadcaster: broadcaster,
		guard:       guard,
		clock:       clk,
		commands:    cmds,
	}
}

func validInput() commands.CreateRequestInput {
	return commands.CreateRequestInput{
		City:       stubCity,
		ModelID:    stubModelID,
		ServiceIDs: []int64{stubServiceID},
	}
}

func TestCreateRequest(t *testing.T) {
	t.Run("creates a new request", func(t *testing.T) {
		h := newRequestHarness(t)

		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		assert.False(t, result.Reused)
		assert.Equal(t, request.StatusOpen, result.Request.Status)
		assert.Equal(t, stubStoreID, result.Request.StoreID)
		assert.Equal(t, int64(3000), result.Request.TotalCents)
		assert.Regexp(t, `^RQ-`, result.Request.Code)
		assert.Equal(t, []string{"1:created"}, h.notifier.all())
	})

	t.Run("identical resubmission reuses the open request", func(t *testing.T) {
		h := newRequestHarness(t)

		first, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)

		second, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		assert.True(t, second.Reused)
		assert.Equal(t, first.Request.ID, second.Request.ID)
		assert.Equal(t, first.Request.Code, second.Request.Code)
		assert.Len(t, h.notifier.all(), 1, "reuse fires no sync event")
	})

	t.Run("open request quota", func(t *testing.T) {
		h := newRequestHarness(t, func(cfg *config.RequestsConfig) { cfg.MaxOpen = 2 })

		for _, code := range []string{"RQ-SEED1", "RQ-SEED2"} {
			h.store.seedRequest(shared.RequestSnapshot{
				Code: code, CustomerID: customer.ID, StoreID: stubStoreID,
				Status: request.StatusOpen, Fingerprint: "fp-" + code,
			})
		}

		_, err := h.commands.Create(context.Background(), customer, validInput())
		assert.ErrorIs(t, err, commands.ErrOpenLimit)
	})

	t.Run("reuse wins even when the quota is full", func(t *testing.T) {
		h := newRequestHarness(t, func(cfg *config.RequestsConfig) { cfg.MaxOpen = 1 })

		first, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)

		second, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err, "an identical cart must not trip the quota")
		assert.True(t, second.Reused)
		assert.Equal(t, first.Request.ID, second.Request.ID)
	})

	t.Run("closed requests do not count toward reuse", func(t *testing.T) {
		h := newRequestHarness(t)

		first, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		require.NoError(t, h.commands.CancelByAdmin(context.Background(), admin, first.Request.ID, ""))

		second, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		assert.False(t, second.Reused)
		assert.NotEqual(t, first.Request.ID, second.Request.ID)
	})

	t.Run("code collisions are retried", func(t *testing.T) {
		h := newRequestHarness(t)
		h.store.forceCodeCollisions = 3

		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		assert.False(t, result.Reused)
	})

	t.Run("code space exhaustion", func(t *testing.T) {
		h := newRequestHarness(t)
		h.store.forceCodeCollisions = 10

		_, err := h.commands.Create(context.Background(), customer, validInput())
		assert.ErrorIs(t, err, request.ErrCodeGeneration)
	})

	t.Run("losing the fingerprint race returns the winner", func(t *testing.T) {
		h := newRequestHarness(t)
		winner := h.store.seedRequest(shared.RequestSnapshot{
			Code: "RQ-AAAAA", CustomerID: customer.ID, StoreID: stubStoreID, ModelID: stubModelID,
			Status:      request.StatusOpen,
			Fingerprint: request.Fingerprint(stubStoreID, stubModelID, []int64{stubServiceID}, nil),
		})
		// The insert sees the unique violation even though our first
		// fingerprint probe ran before the winner committed.
		h.store.forceFingerprintRaces = 1

		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		assert.True(t, result.Reused)
		assert.Equal(t, winner.ID, result.Request.ID)
	})

	t.Run("rate limited", func(t *testing.T) {
		h := newRequestHarness(t)
		h.guard.Configure(commands.ActionCreateRequest, rateguard.Limit{Events: 1, Window: time.Minute})

		_, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		_, err = h.commands.Create(context.Background(), customer, validInput())
		assert.ErrorIs(t, err, commands.ErrRateLimited)
	})

	t.Run("explicit store bypasses matching", func(t *testing.T) {
		h := newRequestHarness(t)
		storeID := stubStoreID
		in := validInput()
		in.City = "Nowhere" // matching would find no candidate here
		in.StoreID = &storeID

		result, err := h.commands.Create(context.Background(), customer, in)
		require.NoError(t, err)
		assert.Equal(t, stubStoreID, result.Request.StoreID)
	})

	t.Run("input validation", func(t *testing.T) {
		h := newRequestHarness(t)

		_, err := h.commands.Create(context.Background(), operator, validInput())
		assert.ErrorIs(t, err, commands.ErrInvalidRequest, "only customers create requests")

		in := validInput()
		in.ServiceIDs = nil
		_, err = h.commands.Create(context.Background(), customer, in)
		assert.ErrorIs(t, err, commands.ErrInvalidRequest)
	})
}

func TestAcceptByCode(t *testing.T) {
	create := func(t *testing.T, h *requestHarness) *shared.RequestSnapshot {
		t.Helper()
		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		return result.Request
	}

	t.Run("claims an open request", func(t *testing.T) {
		h := newRequestHarness(t)
		created := create(t, h)

		snap, err := h.commands.AcceptByCode(context.Background(), operator, created.Code)
		require.NoError(t, err)
		assert.Equal(t, request.StatusAccepted, snap.Status)
		assert.Contains(t, h.notifier.all(), "1:accepted")
		assert.Len(t, h.broadcaster.updates, 1)
	})

	t.Run("normalizes user-typed codes", func(t *testing.T) {
		h := newRequestHarness(t)
		created := create(t, h)

		lower := "  " + created.Code + " "
		snap, err := h.commands.AcceptByCode(context.Background(), operator, lower)
		require.NoError(t, err)
		assert.Equal(t, created.ID, snap.ID)
	})

	t.Run("repeated claim by the same store is idempotent", func(t *testing.T) {
		h := newRequestHarness(t)
		created := create(t, h)

		_, err := h.commands.AcceptByCode(context.Background(), operator, created.Code)
		require.NoError(t, err)
		snap, err := h.commands.AcceptByCode(context.Background(), operator, created.Code)
		require.NoError(t, err)
		assert.Equal(t, request.StatusAccepted, snap.Status)

		// The repeat changed nothing, so it notifies nobody a second time.
		assert.Equal(t, []string{"1:accepted"}, h.notifier.all())
		assert.Len(t, h.broadcaster.updates, 1)
	})

	t.Run("claim lost to a concurrent transaction fails", func(t *testing.T) {
		h := newRequestHarness(t)
		created := create(t, h)

		// The pre-read still sees the request open, but the guarded update
		// misses because another claim committed in between.
		h.store.forceAcceptConflicts = 1
		_, err := h.commands.AcceptByCode(context.Background(), operator, created.Code)
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
		assert.Empty(t, h.notifier.all())
	})

	t.Run("concurrent claims elect a single winner", func(t *testing.T) {
		h := newRequestHarness(t)
		created := create(t, h)

		errors := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.commands.AcceptByCode(context.Background(), operator, created.Code)
				errors <- err
			}()
		}
		wg.Wait()
		close(errors)

		succeeded := 0
		for err := range errors {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, commands.ErrNotTransitionable)
			}
		}
		require.GreaterOrEqual(t, succeeded, 1)

		// Whatever the interleaving, exactly one claim transitions the
		// request and fires the side effects.
		assert.Equal(t, request.StatusAccepted, h.store.requests[created.ID].Status)
		assert.Equal(t, []string{"1:accepted"}, h.notifier.all())
		assert.Len(t, h.broadcaster.updates, 1)
	})

	t.Run("another store cannot claim", func(t *testing.T) {
		h := newRequestHarness(t)
		created := create(t, h)

		other := user.Principal{ID: 21, Kind: user.KindStore, StoreID: 999}
		_, err := h.commands.AcceptByCode(context.Background(), other, created.Code)
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})

	t.Run("unknown and malformed codes collapse into one error", func(t *testing.T) {
		h := newRequestHarness(t)
		create(t, h)

		_, err := h.commands.AcceptByCode(context.Background(), operator, "RQ-99999")
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)

		_, err = h.commands.AcceptByCode(context.Background(), operator, "garbage")
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})

	t.Run("customers cannot claim", func(t *testing.T) {
		h := newRequestHarness(t)
		created := create(t, h)

		_, err := h.commands.AcceptByCode(context.Background(), customer, created.Code)
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})
}

func TestLifecycleTransitions(t *testing.T) {
	setup := func(t *testing.T) (*requestHarness, *shared.RequestSnapshot) {
		t.Helper()
		h := newRequestHarness(t)
		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		return h, result.Request
	}

	t.Run("complete after accept", func(t *testing.T) {
		h, created := setup(t)
		_, err := h.commands.AcceptByCode(context.Background(), operator, created.Code)
		require.NoError(t, err)

		require.NoError(t, h.commands.Complete(context.Background(), operator, created.ID))
		assert.Contains(t, h.notifier.all(), "1:completed")
	})

	t.Run("complete before accept fails", func(t *testing.T) {
		h, created := setup(t)
		err := h.commands.Complete(context.Background(), operator, created.ID)
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})

	t.Run("store cancel of accepted request", func(t *testing.T) {
		h, created := setup(t)
		_, err := h.commands.AcceptByCode(context.Background(), operator, created.Code)
		require.NoError(t, err)

		require.NoError(t, h.commands.CancelByStore(context.Background(), operator, created.ID, "  no parts  "))
		assert.Contains(t, h.notifier.all(), "1:cancelled")
		require.NotNil(t, h.store.lastCancelReason)
		assert.Equal(t, "no parts", *h.store.lastCancelReason)
	})

	t.Run("store cannot cancel an open request", func(t *testing.T) {
		h, created := setup(t)
		err := h.commands.CancelByStore(context.Background(), operator, created.ID, "")
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})

	t.Run("admin cancels open requests only", func(t *testing.T) {
		h, created := setup(t)
		require.NoError(t, h.commands.CancelByAdmin(context.Background(), admin, created.ID, "fraud"))

		h2, created2 := setup(t)
		_, err := h2.commands.AcceptByCode(context.Background(), operator, created2.Code)
		require.NoError(t, err)
		err = h2.commands.CancelByAdmin(context.Background(), admin, created2.ID, "")
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})

	t.Run("non-admin cannot use the admin cancel", func(t *testing.T) {
		h, created := setup(t)
		err := h.commands.CancelByAdmin(context.Background(), operator, created.ID, "")
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("owner withdraws an open request", func(t *testing.T) {
		h := newRequestHarness(t)
		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)

		require.NoError(t, h.commands.Withdraw(context.Background(), customer, result.Request.ID))
		err = h.commands.Withdraw(context.Background(), customer, result.Request.ID)
		assert.ErrorIs(t, err, commands.ErrNotTransitionable, "already gone")
	})

	t.Run("accepted requests cannot be withdrawn", func(t *testing.T) {
		h := newRequestHarness(t)
		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)
		_, err = h.commands.AcceptByCode(context.Background(), operator, result.Request.Code)
		require.NoError(t, err)

		err = h.commands.Withdraw(context.Background(), customer, result.Request.ID)
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})

	t.Run("another customer cannot withdraw", func(t *testing.T) {
		h := newRequestHarness(t)
		result, err := h.commands.Create(context.Background(), customer, validInput())
		require.NoError(t, err)

		stranger := user.Principal{ID: 99, Kind: user.KindCustomer}
		err = h.commands.Withdraw(context.Background(), stranger, result.Request.ID)
		assert.ErrorIs(t, err, commands.ErrNotTransitionable)
	})
}

func TestSetCustomerBlocked(t *testing.T) {
	h := newRequestHarness(t)
	result, err := h.commands.Create(context.Background(), customer, validInput())
	require.NoError(t, err)

	t.Run("admin only", func(t *testing.T) {
		err := h.commands.SetCustomerBlocked(context.Background(), operator, result.Request.ID, true)
		assert.ErrorIs(t, err, commands.ErrRequestNotFound)
	})

	t.Run("sets and clears the flag", func(t *testing.T) {
		require.NoError(t, h.commands.SetCustomerBlocked(context.Background(), admin, result.Request.ID, true))
		assert.True(t, h.store.requests[result.Request.ID].CustomerBlocked)

		require.NoError(t, h.commands.SetCustomerBlocked(context.Background(), admin, result.Request.ID, false))
		assert.False(t, h.store.requests[result.Request.ID].CustomerBlocked)
	})

	t.Run("unknown request", func(t *testing.T) {
		err := h.commands.SetCustomerBlocked(context.Background(), admin, 9999, true)
		assert.ErrorIs(t, err, commands.ErrRequestNotFound)
	})
}
