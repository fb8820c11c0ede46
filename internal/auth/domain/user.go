package domain

import "time"

// User is an account row. An account is pending until EmailConfirmed is set;
// only confirmed and active accounts may authenticate. Accounts are never
// physically deleted, only deactivated.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	DisplayName    string
	EmailConfirmed bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RefreshToken is a stored refresh token. The opaque secret itself is never
// persisted; TokenHash holds its SHA-256 digest. A token is valid for
// exchange iff it is unrevoked and unexpired, and exchanging it revokes it.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// ActionToken is a single-use, time-boxed token backing the email
// confirmation and password reset links. At most one live token exists per
// (user, purpose); issuing a new one replaces it.
type ActionToken struct {
	ID        string
	UserID    string
	Purpose   string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Consumed  bool
}
