package response

import "repairmatch/internal/domain/user"

type UserResponse struct {
	ID      int64  `json:"id"`
	Kind    string `json:"kind"`
	StoreID *int64 `json:"storeId,omitempty"`
}

func FromPrincipal(p user.Principal) *UserResponse {
	resp := &UserResponse{ID: p.ID, Kind: p.Kind.String()}
	if p.IsStore() {
		storeID := p.StoreID
		resp.StoreID = &storeID
	}
	return resp
}
