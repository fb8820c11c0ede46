package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/grzegorz-kurc/MyStorage/config"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/domain"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/dto"
	autherror "github.com/grzegorz-kurc/MyStorage/internal/errors"
	"github.com/grzegorz-kurc/MyStorage/internal/email"
	"github.com/grzegorz-kurc/MyStorage/internal/logging"
	"github.com/grzegorz-kurc/MyStorage/pkg/constant"
)

// UserService orchestrates the auth flows over the repository, the token
// generator and the mailer. Every flow terminates in success or a typed
// failure; nothing retries on its own.
type UserService struct {
	repo   domain.UserRepository
	tokens TokenGenerator
	mailer email.Mailer
	cfg    *config.Config
	log    logging.Logger
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, mailer email.Mailer,
	cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
	}
}

// Register creates a pending account and mails a confirmation link. When the
// email cannot be delivered the account is kept; resending the confirmation
// is the recovery path.
func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	user := &domain.User{
		ID:             uuid.New().String(),
		Email:          emailAddr,
		PasswordHash:   string(hashedPassword),
		DisplayName:    displayNameFor(emailAddr),
		EmailConfirmed: false,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendConfirmationEmail(ctx, user); err != nil {
		// The account stays pending; the caller can trigger a resend.
		s.log.Error(ctx, "confirmation email failed after registration", "user_id", user.ID, "error", err)

		return user, autherror.ErrEmailDeliveryFailed
	}

	return user, nil
}

// ConfirmEmail flips the account to confirmed when the single-use token
// matches. It reports plain failure without revealing whether the account or
// the token was the problem.
func (s *UserService) ConfirmEmail(ctx context.Context, userID, token string) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		s.log.Debug(ctx, "confirmation for unknown account", "user_id", userID)

		return false, nil
	}

	consumed, err := s.repo.ConsumeActionToken(ctx, user.ID, constant.PurposeConfirmEmail, HashSecret(token))
	if err != nil {
		return false, err
	}
	if consumed == nil {
		s.log.Debug(ctx, "confirmation token rejected", "user_id", userID)

		return false, nil
	}

	if err := s.repo.SetEmailConfirmed(ctx, user.ID); err != nil {
		return false, err
	}

	return true, nil
}

// ResendConfirmation regenerates the confirmation token, invalidating any
// prior one, and mails a fresh link.
func (s *UserService) ResendConfirmation(ctx context.Context, emailAddr string) error {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrAccountNotFound
	}
	if user.EmailConfirmed {
		return autherror.ErrEmailConfirmed
	}

	if err := s.sendConfirmationEmail(ctx, user); err != nil {
		s.log.Error(ctx, "confirmation email resend failed", "user_id", user.ID, "error", err)

		return autherror.ErrEmailDeliveryFailed
	}

	return nil
}

// RequestPasswordReset always reports success so the response never reveals
// whether the email is registered. When the account is unknown an equivalent
// amount of work still runs, and a delivery failure is logged and swallowed
// for the same reason.
func (s *UserService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		return err
	}

	secret, hash, err := s.tokens.NewOpaqueSecret()
	if err != nil {
		return err
	}

	if user == nil {
		s.log.Debug(ctx, "password reset requested for unknown email")

		return nil
	}

	token := &domain.ActionToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Purpose:   constant.PurposePasswordReset,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.ResetTokenExpiryMinutes) * time.Minute),
		CreatedAt: time.Now(),
	}
	if err := s.repo.ReplaceActionToken(ctx, token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?userId=%s&token=%s", s.cfg.BaseURL, user.ID, secret)
	body := fmt.Sprintf("Hello %s,<br/><br/>You can reset your password by clicking the link below:"+
		"<br/><a href='%s'>Reset Password</a><br/><br/>If you did not request this, ignore this message.",
		user.Email, link)

	if err := s.mailer.Send(ctx, user.Email, "Reset your MyStorage password", body); err != nil {
		s.log.Error(ctx, "password reset email failed", "user_id", user.ID, "error", err)
	}

	return nil
}

// ResetPassword sets a new password when the reset token matches. It does
// not require the old password and does not log the user in; it does revoke
// every outstanding session.
func (s *UserService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error {
	user, err := s.repo.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrActionTokenInvalid
	}

	consumed, err := s.repo.ConsumeActionToken(ctx, user.ID, constant.PurposePasswordReset, HashSecret(input.Token))
	if err != nil {
		return err
	}
	if consumed == nil {
		return autherror.ErrActionTokenInvalid
	}

	return s.updatePassword(ctx, user, input.NewPassword)
}

// Login issues a token pair. Unknown email and wrong password fail with one
// identical error; unconfirmed and inactive accounts fail with another that
// does not say which.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, err
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		s.log.Info(ctx, "login rejected", "reason", loginRejectReason(user))

		return nil, autherror.ErrInvalidCredentials
	}

	if !user.EmailConfirmed || !user.Active {
		s.log.Info(ctx, "login rejected for inactive account",
			"user_id", user.ID, "confirmed", user.EmailConfirmed, "active", user.Active)

		return nil, autherror.ErrAccountInactive
	}

	return s.issueSession(ctx, user)
}

// RefreshSession exchanges a refresh secret for a new token pair under a
// strict rotate-on-use policy. The presented access token only has to be
// authentic, not unexpired.
func (s *UserService) RefreshSession(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, err := s.tokens.VerifyAccessToken(input.AccessToken, true)
	if err != nil {
		s.log.Info(ctx, "refresh rejected: bad access token", "error", err)

		return nil, autherror.ErrRefreshTokenInvalid
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.log.Info(ctx, "refresh rejected: unknown account", "user_id", claims.Subject)

		return nil, autherror.ErrRefreshTokenInvalid
	}
	if !user.EmailConfirmed || !user.Active {
		s.log.Info(ctx, "refresh rejected for inactive account",
			"user_id", user.ID, "confirmed", user.EmailConfirmed, "active", user.Active)

		return nil, autherror.ErrAccountInactive
	}

	// Not found, expired and already-revoked all collapse into one rejection
	// so replayed secrets learn nothing.
	consumed, err := s.repo.ConsumeRefreshToken(ctx, user.ID, HashSecret(input.RefreshToken))
	if err != nil {
		return nil, err
	}
	if consumed == nil {
		s.log.Info(ctx, "refresh rejected: secret not exchangeable", "user_id", user.ID)

		return nil, autherror.ErrRefreshTokenInvalid
	}

	return s.issueSession(ctx, user)
}

// ChangePassword rotates the password for an authenticated account and
// revokes every outstanding refresh token.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrInvalidCredentials
	}
	if !user.EmailConfirmed || !user.Active {
		return autherror.ErrAccountInactive
	}

	if input.NewPassword != input.ConfirmPassword {
		return autherror.ErrPasswordMismatch
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)) != nil {
		s.log.Info(ctx, "password change rejected: wrong current password", "user_id", user.ID)

		return autherror.ErrInvalidCredentials
	}

	return s.updatePassword(ctx, user, input.NewPassword)
}

func (s *UserService) issueSession(ctx context.Context, user *domain.User) (*dto.TokenResponse, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	rt := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: pair.RefreshTokenHash,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: time.Now(),
		Revoked:   false,
	}
	if err := s.repo.StoreRefreshToken(ctx, rt, s.cfg.MaxRefreshTokensPerUser); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

func (s *UserService) sendConfirmationEmail(ctx context.Context, user *domain.User) error {
	secret, hash, err := s.tokens.NewOpaqueSecret()
	if err != nil {
		return err
	}

	token := &domain.ActionToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Purpose:   constant.PurposeConfirmEmail,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.ConfirmTokenExpiryHours) * time.Hour),
		CreatedAt: time.Now(),
	}
	if err := s.repo.ReplaceActionToken(ctx, token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/confirm-email?userId=%s&token=%s", s.cfg.BaseURL, user.ID, secret)
	body := fmt.Sprintf("Hello %s,<br/><br/>Please confirm your email by clicking the link below:"+
		"<br/><a href='%s'>Confirm Email</a>", user.Email, link)

	return s.mailer.Send(ctx, user.Email, "Confirm your MyStorage account", body)
}

func (s *UserService) updatePassword(ctx context.Context, user *domain.User, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hashed)); err != nil {
		return err
	}

	// A credential rotation invalidates every session that predates it.
	if err := s.repo.RevokeAllRefreshTokens(ctx, user.ID); err != nil {
		return err
	}

	return nil
}

func displayNameFor(emailAddr string) string {
	if at := strings.Index(emailAddr, "@"); at > 0 {
		return emailAddr[:at]
	}

	return emailAddr
}

func loginRejectReason(user *domain.User) string {
	if user == nil {
		return "unknown email"
	}

	return "wrong password"
}
