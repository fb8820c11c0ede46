package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/grzegorz-kurc/MyStorage/internal/auth/domain"
)

// PgxIface is the subset of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, display_name, email_confirmed, active, created_at, updated_at`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.EmailConfirmed, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, display_name, email_confirmed, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, user.ID, user.Email, user.PasswordHash, user.DisplayName,
		user.EmailConfirmed, user.Active, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) SetEmailConfirmed(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET email_confirmed = true, updated_at = now()
		WHERE id = $1
	`, userID)

	return err
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`, userID, passwordHash)

	return err
}

// StoreRefreshToken inserts the token and trims the user's ledger to
// maxPerUser rows in one transaction, keeping the tokens that expire last. A
// concurrent reader never observes more than maxPerUser live rows.
func (r *PostgresRepository) StoreRefreshToken(ctx context.Context, rt *domain.RefreshToken, maxPerUser int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rt.ID, rt.UserID, rt.TokenHash, rt.ExpiresAt, rt.CreatedAt, rt.Revoked)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = $1
			ORDER BY expires_at DESC, created_at DESC
			LIMIT $2
		  )
	`, rt.UserID, maxPerUser)
	if err != nil {
		return fmt.Errorf("failed to evict oldest refresh tokens: %w", err)
	}

	return tx.Commit(ctx)
}

// ConsumeRefreshToken revokes the matching live token and returns it. The
// conditional update serializes concurrent exchanges of the same secret in
// the database: exactly one caller gets the row, the rest get (nil, nil).
// Revoked rows are kept as an audit trail until the ceiling evicts them.
func (r *PostgresRepository) ConsumeRefreshToken(ctx context.Context, userID, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = true
		WHERE user_id = $1 AND token_hash = $2 AND revoked = false AND expires_at > now()
		RETURNING id, user_id, token_hash, expires_at, created_at, revoked;
	`
	row := r.db.QueryRow(ctx, query, userID, tokenHash)

	var rt domain.RefreshToken
	err := row.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt, &rt.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	return &rt, nil
}

func (r *PostgresRepository) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = true
		WHERE user_id = $1 AND revoked = false
	`, userID)

	return err
}

// ReplaceActionToken drops any previous token for the same purpose before
// inserting, so regeneration always invalidates the prior link.
func (r *PostgresRepository) ReplaceActionToken(ctx context.Context, at *domain.ActionToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		DELETE FROM action_tokens WHERE user_id = $1 AND purpose = $2
	`, at.UserID, at.Purpose)
	if err != nil {
		return fmt.Errorf("failed to delete previous action token: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO action_tokens (id, user_id, purpose, token_hash, expires_at, created_at, consumed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, at.ID, at.UserID, at.Purpose, at.TokenHash, at.ExpiresAt, at.CreatedAt, at.Consumed)
	if err != nil {
		return fmt.Errorf("failed to store action token: %w", err)
	}

	return tx.Commit(ctx)
}

// ConsumeActionToken marks the matching live token consumed, same
// single-winner semantics as ConsumeRefreshToken.
func (r *PostgresRepository) ConsumeActionToken(ctx context.Context, userID, purpose, tokenHash string) (*domain.ActionToken, error) {
	query := `
		UPDATE action_tokens
		SET consumed = true
		WHERE user_id = $1 AND purpose = $2 AND token_hash = $3 AND consumed = false AND expires_at > now()
		RETURNING id, user_id, purpose, token_hash, expires_at, created_at, consumed;
	`
	row := r.db.QueryRow(ctx, query, userID, purpose, tokenHash)

	var at domain.ActionToken
	err := row.Scan(&at.ID, &at.UserID, &at.Purpose, &at.TokenHash, &at.ExpiresAt, &at.CreatedAt, &at.Consumed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to consume action token: %w", err)
	}

	return &at, nil
}
