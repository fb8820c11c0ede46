package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/grzegorz-kurc/MyStorage/internal/auth/domain UserRepository

import (
	"context"
)

// UserRepository is the storage port for accounts and their tokens.
//
// Lookup methods return (nil, nil) when no row matches, so callers can
// distinguish absence from storage failure without sentinel juggling.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	SetEmailConfirmed(ctx context.Context, userID string) error
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error

	// StoreRefreshToken inserts rt and, in the same transaction, evicts the
	// user's oldest-by-expiry tokens so at most maxPerUser rows remain.
	StoreRefreshToken(ctx context.Context, rt *RefreshToken, maxPerUser int) error
	// ConsumeRefreshToken atomically revokes the matching unrevoked,
	// unexpired token and returns it. It returns (nil, nil) when no such
	// token exists; concurrent calls for one secret yield a single winner.
	ConsumeRefreshToken(ctx context.Context, userID, tokenHash string) (*RefreshToken, error)
	RevokeAllRefreshTokens(ctx context.Context, userID string) error

	// ReplaceActionToken deletes any existing token for (user, purpose) and
	// inserts at in one transaction.
	ReplaceActionToken(ctx context.Context, at *ActionToken) error
	// ConsumeActionToken atomically marks the matching live token consumed
	// and returns it, or (nil, nil) when no live token matches.
	ConsumeActionToken(ctx context.Context, userID, purpose, tokenHash string) (*ActionToken, error)
}
