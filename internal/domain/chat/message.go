package chat

import (
	"errors"
	"strings"
	"time"

	"repairmatch/internal/domain/user"
)

const MaxBodyLength = 2000

var (
	ErrEmptyBody   = errors.New("message body is empty")
	ErrBodyTooLong = errors.New("message body too long")
)

// Message is one chat line on a request. Append-only: messages are never
// edited or deleted, and ordering follows the persisted id sequence.
type Message struct {
	id         int64
	requestID  int64
	senderKind user.Kind
	senderID   int64
	body       Body
	createdAt  time.Time
}

func NewMessage(requestID int64, senderKind user.Kind, senderID int64, rawBody string, now time.Time) (*Message, error) {
	body, err := NewBody(rawBody)
	if err != nil {
		return nil, err
	}
	return &Message{
		requestID:  requestID,
		senderKind: senderKind,
		senderID:   senderID,
		body:       body,
		createdAt:  now,
	}, nil
}

func ReconstructMessage(id, requestID int64, senderKind user.Kind, senderID int64, body string, createdAt time.Time) *Message {
	return &Message{
		id:         id,
		requestID:  requestID,
		senderKind: senderKind,
		senderID:   senderID,
		body:       Body{value: body},
		createdAt:  createdAt,
	}
}

func (m *Message) ID() int64             { return m.id }
func (m *Message) RequestID() int64      { return m.requestID }
func (m *Message) SenderKind() user.Kind { return m.senderKind }
func (m *Message) SenderID() int64       { return m.senderID }
func (m *Message) Body() Body            { return m.body }
func (m *Message) CreatedAt() time.Time  { return m.createdAt }

type Body struct {
	value string
}

func NewBody(raw string) (Body, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Body{}, ErrEmptyBody
	}
	if len(trimmed) > MaxBodyLength {
		return Body{}, ErrBodyTooLong
	}
	return Body{value: trimmed}, nil
}

func (b Body) String() string {
	return b.value
}
