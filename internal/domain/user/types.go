package user

import "errors"

var ErrInvalidKind = errors.New("invalid user kind")

// Kind is the principal classification. Store operators carry the id of the
// store they act for; customers and admins do not.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindStore    Kind = "store"
	KindAdmin    Kind = "admin"
)

func NewKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCustomer, KindStore, KindAdmin:
		return Kind(s), nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) String() string {
	return string(k)
}
