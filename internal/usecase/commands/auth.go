package commands

import (
	"context"
	"log/slog"

	"repairmatch/internal/domain/user"
	"repairmatch/internal/pkg/errs"
	"repairmatch/internal/pkg/jwt"
	"repairmatch/internal/pkg/password"
	"repairmatch/internal/usecase/shared"
)

var (
	ErrInvalidCredentials = errs.New("invalid credentials")
	ErrUserInactive       = errs.New("user inactive")
	ErrTokenGeneration    = errs.New("token generation failed")
)

// UserReads is the read-side lookup the auth path needs.
type UserReads interface {
	FindByEmail(ctx context.Context, email string) (*shared.UserSnapshot, error)
	FindByID(ctx context.Context, id int64) (*shared.UserSnapshot, error)
}

type LoginResult struct {
	Principal   user.Principal
	AccessToken string
}

type AuthCommands interface {
	Login(ctx context.Context, email, rawPassword string) (*LoginResult, error)
}

type authCommandsImpl struct {
	uow        shared.UnitOfWork
	users      UserReads
	jwtService *jwt.Service
}

func NewAuthCommands(uow shared.UnitOfWork, users UserReads, jwtService *jwt.Service) AuthCommands {
	return &authCommandsImpl{
		uow:        uow,
		users:      users,
		jwtService: jwtService,
	}
}

func (a *authCommandsImpl) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	snap, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		// Same error as a password mismatch to prevent user enumeration.
		return nil, ErrInvalidCredentials
	}
	if !snap.IsActive {
		return nil, ErrUserInactive
	}

	if err := password.ComparePassword(snap.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	kind, err := user.NewKind(snap.Kind)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidCredentials)
	}

	token, err := a.jwtService.GenerateToken(snap.ID, kind, snap.StoreID)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}

	if err := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Users().UpdateLastLogin(ctx, tx.DB(), snap.ID)
	}); err != nil {
		// Not critical; the login itself succeeded.
		slog.Warn("failed to update last login", "user_id", snap.ID, "error", err.Error())
	}

	return &LoginResult{
		Principal:   principalFromSnapshot(snap.ID, kind, snap.StoreID),
		AccessToken: token,
	}, nil
}

func principalFromSnapshot(id int64, kind user.Kind, storeID *int64) user.Principal {
	p := user.Principal{ID: id, Kind: kind}
	if storeID != nil {
		p.StoreID = *storeID
	}
	return p
}
