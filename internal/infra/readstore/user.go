package readstore

import (
	"context"

	"repairmatch/internal/infra"
	"repairmatch/internal/infra/db"
	"repairmatch/internal/pkg/pgconv"
	"repairmatch/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
)

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(dbtx db.DBTX) *UserReadStore {
	return &UserReadStore{db: dbtx}
}

const userColumns = `id, email, password_hash, kind, store_id, is_active`

func (s *UserReadStore) FindByEmail(ctx context.Context, email string) (*shared.UserSnapshot, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *UserReadStore) FindByID(ctx context.Context, id int64) (*shared.UserSnapshot, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*shared.UserSnapshot, error) {
	var snap shared.UserSnapshot
	err := row.Scan(
		&snap.ID,
		&snap.Email,
		&snap.PasswordHash,
		&snap.Kind,
		&snap.StoreID,
		&snap.IsActive,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan user", err)
	}
	return &snap, nil
}
