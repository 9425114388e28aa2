package realtime

import (
	"context"
	"time"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/domain/request"
	"repairmatch/internal/infra"
	"repairmatch/internal/pkg/errs"
	"repairmatch/internal/pkg/metrics"
	"repairmatch/internal/pkg/rateguard"
	"repairmatch/internal/usecase/shared"

	"github.com/google/uuid"
)

const ActionJoin = "chat_join"

var (
	ErrUnknownConnection = errs.New("unknown connection")
	ErrJoinRateLimited   = errs.New("join rate limited")

	// ErrJoinDenied is the soft-failure for every unauthorized or unknown
	// join target. One error keeps joins from probing which requests exist.
	ErrJoinDenied = errs.New("join denied")
)

// Service owns join authorization and fan-out policy on top of the hub. Fan-out
// always goes through the bus so other instances deliver too.
type Service struct {
	hub     *Hub
	bus     Bus
	uow     shared.UnitOfWork
	guard   *rateguard.Guard
	metrics *metrics.Metrics
}

func NewService(hub *Hub, bus Bus, uow shared.UnitOfWork, guard *rateguard.Guard, m *metrics.Metrics) *Service {
	return &Service{hub: hub, bus: bus, uow: uow, guard: guard, metrics: m}
}

// JoinByCode subscribes a customer's connection to a request room. Customers
// address requests by code only; numeric ids are never accepted from them.
func (s *Service) JoinByCode(ctx context.Context, connectionID uuid.UUID, rawCode string) error {
	client, err := s.checkedClient(connectionID)
	if err != nil {
		return err
	}
	if !client.Principal.IsCustomer() {
		return ErrJoinDenied
	}

	code, err := request.NormalizeCode(rawCode)
	if err != nil {
		return errs.Mark(err, ErrJoinDenied)
	}

	snap, err := s.findByCode(ctx, code)
	if err != nil {
		return err
	}
	if snap.CustomerID != client.Principal.ID {
		return ErrJoinDenied
	}

	s.hub.Join(client, RoomRequest(snap.ID))
	return nil
}

// JoinByRequestID subscribes an operator's connection to a request room,
// scoped to the operator's own store.
func (s *Service) JoinByRequestID(ctx context.Context, connectionID uuid.UUID, requestID int64) error {
	client, err := s.checkedClient(connectionID)
	if err != nil {
		return err
	}
	if !client.Principal.IsStore() {
		return ErrJoinDenied
	}

	var snap *shared.RequestSnapshot
	err = s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		snap, err = tx.Requests().FindByID(ctx, tx.DB(), requestID)
		return err
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrJoinDenied
		}
		return err
	}
	if snap.StoreID != client.Principal.StoreID {
		return ErrJoinDenied
	}

	s.hub.Join(client, RoomRequest(snap.ID))
	return nil
}

func (s *Service) checkedClient(connectionID uuid.UUID) (*Client, error) {
	client, ok := s.hub.ClientByID(connectionID)
	if !ok {
		return nil, ErrUnknownConnection
	}
	if err := s.guard.Allow(connectionID.String(), ActionJoin); err != nil {
		s.metrics.IncRateLimited(ActionJoin)
		return nil, errs.Mark(err, ErrJoinRateLimited)
	}
	return client, nil
}

func (s *Service) findByCode(ctx context.Context, code string) (*shared.RequestSnapshot, error) {
	var snap *shared.RequestSnapshot
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		snap, err = tx.Requests().FindByCode(ctx, tx.DB(), code)
		return err
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrJoinDenied
		}
		return nil, err
	}
	return snap, nil
}

type messagePayload struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	SenderID   int64     `json:"sender_id"`
	SenderKind string    `json:"sender_kind"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageCreated fans a persisted message out to the request room and to both
// personal rooms. The dual delivery keeps inbox views current for principals
// who never joined the thread.
func (s *Service) MessageCreated(msg *chat.Message, req *shared.RequestSnapshot) {
	payload := messagePayload{
		ID:         msg.ID(),
		RequestID:  msg.RequestID(),
		SenderID:   msg.SenderID(),
		SenderKind: msg.SenderKind().String(),
		Body:       msg.Body().String(),
		CreatedAt:  msg.CreatedAt(),
	}

	ctx := context.Background()
	for _, room := range []string{
		RoomRequest(req.ID),
		RoomStore(req.StoreID),
		RoomCustomer(req.CustomerID),
	} {
		s.bus.Publish(ctx, Event{Room: room, Type: EventMessage, Data: payload})
	}
}

type requestPayload struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Status string `json:"status"`
}

// RequestUpdated pushes a lifecycle change to both personal rooms so lists
// refresh without polling.
func (s *Service) RequestUpdated(req *shared.RequestSnapshot) {
	payload := requestPayload{ID: req.ID, Code: req.Code, Status: req.Status.String()}

	ctx := context.Background()
	for _, room := range []string{
		RoomStore(req.StoreID),
		RoomCustomer(req.CustomerID),
	} {
		s.bus.Publish(ctx, Event{Room: room, Type: EventRequest, Data: payload})
	}
}
