package user

// Principal is the authenticated identity every operation receives. StoreID
// is zero unless Kind == KindStore.
type Principal struct {
	ID      int64
	Kind    Kind
	StoreID int64
}

func (p Principal) IsCustomer() bool { return p.Kind == KindCustomer }
func (p Principal) IsStore() bool    { return p.Kind == KindStore }
func (p Principal) IsAdmin() bool    { return p.Kind == KindAdmin }
