package commands

import (
	"context"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/domain/user"
	"repairmatch/internal/infra"
	"repairmatch/internal/pkg/clock"
	"repairmatch/internal/pkg/errs"
	"repairmatch/internal/pkg/metrics"
	"repairmatch/internal/pkg/rateguard"
	"repairmatch/internal/usecase/shared"
)

const ActionSendMessage = "chat_send"

var ErrInvalidMessage = errs.New("invalid message")

// ChatBroadcaster fans a persisted message out to the realtime layer: the
// request room plus both owning personal rooms, so inboxes update even for
// principals not watching the thread.
type ChatBroadcaster interface {
	MessageCreated(msg *chat.Message, req *shared.RequestSnapshot)
	RequestUpdated(req *shared.RequestSnapshot)
}

type ChatCommands interface {
	SendMessage(ctx context.Context, actor user.Principal, requestID int64, body string) (*chat.Message, error)
	MarkRead(ctx context.Context, actor user.Principal, requestID, messageID int64) error
}

type chatCommandsImpl struct {
	uow         shared.UnitOfWork
	guard       *rateguard.Guard
	broadcaster ChatBroadcaster
	metrics     *metrics.Metrics
	clock       clock.Clock
}

func NewChatCommands(
	uow shared.UnitOfWork,
	guard *rateguard.Guard,
	broadcaster ChatBroadcaster,
	m *metrics.Metrics,
	clk clock.Clock,
) ChatCommands {
	return &chatCommandsImpl{
		uow:         uow,
		guard:       guard,
		broadcaster: broadcaster,
		metrics:     m,
		clock:       clk,
	}
}

// SendMessage re-derives the request status from storage before every send;
// the client's idea of the status is never trusted.
func (c *chatCommandsImpl) SendMessage(ctx context.Context, actor user.Principal, requestID int64, body string) (*chat.Message, error) {
	if err := c.guard.Allow(principalKey(actor), ActionSendMessage); err != nil {
		c.metrics.IncRateLimited(ActionSendMessage)
		return nil, errs.Mark(err, ErrRateLimited)
	}

	msg, err := chat.NewMessage(requestID, actor.Kind, actor.ID, body, c.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidMessage)
	}

	var created *chat.Message
	var snap *shared.RequestSnapshot
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		snap, err = c.loadScoped(ctx, tx, actor, requestID)
		if err != nil {
			return err
		}

		if err := chat.CanSend(snap.Status, actor.Kind, snap.CustomerBlocked); err != nil {
			return err
		}

		created, err = tx.Messages().Create(ctx, tx.DB(), msg)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.metrics.IncChatMessage(actor.Kind.String())
	c.broadcaster.MessageCreated(created, snap)
	return created, nil
}

// MarkRead raises the operator's high-water mark; stale acknowledgments never
// lower it.
func (c *chatCommandsImpl) MarkRead(ctx context.Context, actor user.Principal, requestID, messageID int64) error {
	if !actor.IsStore() || messageID <= 0 {
		return ErrRequestNotFound
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := c.loadScoped(ctx, tx, actor, requestID); err != nil {
			return err
		}
		return tx.ReadMarkers().AdvanceTo(ctx, tx.DB(), actor.ID, requestID, messageID)
	})
}

// loadScoped fetches the request and hides it from principals outside the
// pair, so probing ids learns nothing.
func (c *chatCommandsImpl) loadScoped(ctx context.Context, tx shared.Tx, actor user.Principal, requestID int64) (*shared.RequestSnapshot, error) {
	snap, err := tx.Requests().FindByID(ctx, tx.DB(), requestID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsCustomer() && snap.CustomerID == actor.ID:
	case actor.IsStore() && snap.StoreID == actor.StoreID:
	default:
		return nil, ErrRequestNotFound
	}
	return snap, nil
}
