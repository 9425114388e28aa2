package chat

import (
	"errors"

	"repairmatch/internal/domain/request"
	"repairmatch/internal/domain/user"
)

var (
	ErrChatLocked      = errors.New("chat is not open for this request")
	ErrCustomerBlocked = errors.New("customer messages are blocked")
)

// CanAccess reports whether the chat thread of a request is readable at all.
// Threads open once a store has accepted and stay open through the terminal
// states so the parties can still see the history.
func CanAccess(status request.Status) error {
	if !status.ChatOpen() {
		return ErrChatLocked
	}
	return nil
}

// CanSend layers the sender-side rules on top of CanAccess: a customer whose
// messages were blocked by an admin can still read but no longer write.
func CanSend(status request.Status, senderKind user.Kind, customerBlocked bool) error {
	if err := CanAccess(status); err != nil {
		return err
	}
	if senderKind == user.KindCustomer && customerBlocked {
		return ErrCustomerBlocked
	}
	return nil
}
