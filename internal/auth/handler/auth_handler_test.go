package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/grzegorz-kurc/MyStorage/config"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/domain"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/dto"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/handler"
	"github.com/grzegorz-kurc/MyStorage/internal/auth/service"
	"github.com/grzegorz-kurc/MyStorage/internal/logging"
	"github.com/grzegorz-kurc/MyStorage/internal/mocks"
)

type testEnv struct {
	app        *fiber.App
	mockRepo   *mocks.MockUserRepository
	mockTokens *mocks.MockTokenGenerator
	mockMailer *mocks.MockMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	mockMailer := mocks.NewMockMailer(ctrl)

	cfg := &config.Config{
		BaseURL:                 "https://app.example.com",
		ConfirmTokenExpiryHours: 24,
		ResetTokenExpiryMinutes: 60,
		MaxRefreshTokensPerUser: 5,
	}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	userService := service.NewUserService(mockRepo, mockTokens, mockMailer, cfg, log)
	authHandler := handler.NewAuthHandler(userService, mockTokens)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	return &testEnv{app: app, mockRepo: mockRepo, mockTokens: mockTokens, mockMailer: mockMailer}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any, headers ...map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, hs := range headers {
		for k, v := range hs {
			req.Header.Set(k, v)
		}
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	rec.Body = bytes.NewBuffer(b)

	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		env.mockRepo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(nil, nil)
		env.mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		env.mockTokens.EXPECT().NewOpaqueSecret().Return("secret", "hash", nil)
		env.mockRepo.EXPECT().ReplaceActionToken(gomock.Any(), gomock.Any()).Return(nil)
		env.mockMailer.EXPECT().Send(gomock.Any(), "test@example.com", gomock.Any(), gomock.Any()).Return(nil)

		rec := postJSON(t, env.app, "/api/v1/register", dto.RegisterInput{
			Email:    "test@example.com",
			Password: "Password123!",
		})

		assert.Equal(t, fiber.StatusCreated, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest("POST", "/api/v1/register", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := env.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("validation errors returned verbatim", func(t *testing.T) {
		env := newTestEnv(t)

		rec := postJSON(t, env.app, "/api/v1/register", dto.RegisterInput{
			Email:    "not-an-email",
			Password: "short",
		})

		assert.Equal(t, fiber.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "errors")
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)

		env.mockRepo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").
			Return(&domain.User{ID: "existing"}, nil)

		rec := postJSON(t, env.app, "/api/v1/register", dto.RegisterInput{
			Email:    "test@example.com",
			Password: "Password123!",
		})

		assert.Equal(t, fiber.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "email already in use")
	})
}

func TestLoginEndpoint(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:             "user-123",
		Email:          "test@example.com",
		PasswordHash:   string(hash),
		EmailConfirmed: true,
		Active:         true,
	}

	t.Run("success returns the pair with expiries", func(t *testing.T) {
		env := newTestEnv(t)

		pair := &service.TokenPair{
			AccessToken:      "access-jwt",
			AccessExpiresAt:  time.Now().Add(15 * time.Minute),
			RefreshToken:     "refresh-secret",
			RefreshTokenHash: "refresh-hash",
			RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		}

		env.mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		env.mockTokens.EXPECT().Issue(gomock.Any()).Return(pair, nil)
		env.mockRepo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any(), 5).Return(nil)

		rec := postJSON(t, env.app, "/api/v1/login", dto.LoginInput{
			Email:    user.Email,
			Password: "Password123!",
		})

		assert.Equal(t, fiber.StatusOK, rec.Code)

		var resp dto.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "access-jwt", resp.AccessToken)
		assert.Equal(t, "refresh-secret", resp.RefreshToken)
		assert.False(t, resp.AccessExpiresAt.IsZero())
		assert.False(t, resp.RefreshExpiresAt.IsZero())
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		env := newTestEnv(t)

		env.mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)

		rec := postJSON(t, env.app, "/api/v1/login", dto.LoginInput{
			Email:    user.Email,
			Password: "wrong",
		})

		assert.Equal(t, fiber.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	})

	t.Run("unknown email gets the identical response", func(t *testing.T) {
		env := newTestEnv(t)

		env.mockRepo.EXPECT().GetByEmail(gomock.Any(), "nobody@example.com").Return(nil, nil)

		rec := postJSON(t, env.app, "/api/v1/login", dto.LoginInput{
			Email:    "nobody@example.com",
			Password: "Password123!",
		})

		assert.Equal(t, fiber.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	})

	t.Run("unconfirmed account", func(t *testing.T) {
		env := newTestEnv(t)

		pending := *user
		pending.EmailConfirmed = false
		env.mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(&pending, nil)

		rec := postJSON(t, env.app, "/api/v1/login", dto.LoginInput{
			Email:    user.Email,
			Password: "Password123!",
		})

		assert.Equal(t, fiber.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	user := &domain.User{ID: "user-123", Email: "test@example.com", EmailConfirmed: true, Active: true}

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		claims := &service.JWTCustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		}
		pair := &service.TokenPair{
			AccessToken:      "new-access",
			RefreshToken:     "new-refresh",
			RefreshTokenHash: "new-hash",
			AccessExpiresAt:  time.Now().Add(15 * time.Minute),
			RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		}

		env.mockTokens.EXPECT().VerifyAccessToken("expired-access", true).Return(claims, nil)
		env.mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
		env.mockRepo.EXPECT().ConsumeRefreshToken(gomock.Any(), user.ID, gomock.Any()).
			Return(&domain.RefreshToken{ID: "rt-1"}, nil)
		env.mockTokens.EXPECT().Issue(gomock.Any()).Return(pair, nil)
		env.mockRepo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any(), 5).Return(nil)

		rec := postJSON(t, env.app, "/api/v1/refresh", dto.RefreshInput{
			AccessToken:  "expired-access",
			RefreshToken: "old-refresh",
		})

		assert.Equal(t, fiber.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "new-access")
	})

	t.Run("replayed secret is unauthorized", func(t *testing.T) {
		env := newTestEnv(t)

		claims := &service.JWTCustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		}

		env.mockTokens.EXPECT().VerifyAccessToken("expired-access", true).Return(claims, nil)
		env.mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
		env.mockRepo.EXPECT().ConsumeRefreshToken(gomock.Any(), user.ID, gomock.Any()).Return(nil, nil)

		rec := postJSON(t, env.app, "/api/v1/refresh", dto.RefreshInput{
			AccessToken:  "expired-access",
			RefreshToken: "already-used",
		})

		assert.Equal(t, fiber.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid or expired refresh token")
	})
}

// TestForgotPasswordEndpoint_AntiEnumeration checks that the response is
// byte-identical whether or not the email is registered.
func TestForgotPasswordEndpoint_AntiEnumeration(t *testing.T) {
	env := newTestEnv(t)

	known := &domain.User{ID: "user-123", Email: "known@example.com", EmailConfirmed: true, Active: true}

	env.mockRepo.EXPECT().GetByEmail(gomock.Any(), "known@example.com").Return(known, nil)
	env.mockTokens.EXPECT().NewOpaqueSecret().Return("secret", "hash", nil)
	env.mockRepo.EXPECT().ReplaceActionToken(gomock.Any(), gomock.Any()).Return(nil)
	env.mockMailer.EXPECT().Send(gomock.Any(), "known@example.com", gomock.Any(), gomock.Any()).Return(nil)

	recKnown := postJSON(t, env.app, "/api/v1/forgot-password", dto.ForgotPasswordInput{
		Email: "known@example.com",
	})

	env.mockRepo.EXPECT().GetByEmail(gomock.Any(), "unknown@example.com").Return(nil, nil)
	env.mockTokens.EXPECT().NewOpaqueSecret().Return("secret", "hash", nil)

	recUnknown := postJSON(t, env.app, "/api/v1/forgot-password", dto.ForgotPasswordInput{
		Email: "unknown@example.com",
	})

	assert.Equal(t, recKnown.Code, recUnknown.Code)
	assert.Equal(t, recKnown.Body.String(), recUnknown.Body.String())
}

func TestConfirmEmailEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		env.mockRepo.EXPECT().GetByID(gomock.Any(), "user-123").
			Return(&domain.User{ID: "user-123"}, nil)
		env.mockRepo.EXPECT().ConsumeActionToken(gomock.Any(), "user-123", gomock.Any(), gomock.Any()).
			Return(&domain.ActionToken{ID: "at-1"}, nil)
		env.mockRepo.EXPECT().SetEmailConfirmed(gomock.Any(), "user-123").Return(nil)

		rec := postJSON(t, env.app, "/api/v1/confirm-email", dto.ConfirmEmailInput{
			UserID: "user-123",
			Token:  "the-token",
		})

		assert.Equal(t, fiber.StatusOK, rec.Code)
	})

	t.Run("bad token is a generic rejection", func(t *testing.T) {
		env := newTestEnv(t)

		env.mockRepo.EXPECT().GetByID(gomock.Any(), "user-123").
			Return(&domain.User{ID: "user-123"}, nil)
		env.mockRepo.EXPECT().ConsumeActionToken(gomock.Any(), "user-123", gomock.Any(), gomock.Any()).
			Return(nil, nil)

		rec := postJSON(t, env.app, "/api/v1/confirm-email", dto.ConfirmEmailInput{
			UserID: "user-123",
			Token:  "stale",
		})

		assert.Equal(t, fiber.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid or expired token")
	})
}

func TestChangePasswordEndpoint(t *testing.T) {
	t.Run("requires a bearer token", func(t *testing.T) {
		env := newTestEnv(t)

		rec := postJSON(t, env.app, "/api/v1/change-password", dto.ChangePasswordInput{
			CurrentPassword: "CurrentPass1!",
			NewPassword:     "NewPassword1!",
			ConfirmPassword: "NewPassword1!",
		})

		assert.Equal(t, fiber.StatusUnauthorized, rec.Code)
	})

	t.Run("success with a valid token", func(t *testing.T) {
		env := newTestEnv(t)

		hash, err := bcrypt.GenerateFromPassword([]byte("CurrentPass1!"), bcrypt.MinCost)
		require.NoError(t, err)

		user := &domain.User{
			ID:             "user-123",
			Email:          "test@example.com",
			PasswordHash:   string(hash),
			EmailConfirmed: true,
			Active:         true,
		}
		claims := &service.JWTCustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		}

		env.mockTokens.EXPECT().VerifyAccessToken("valid-access", false).Return(claims, nil)
		env.mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
		env.mockRepo.EXPECT().UpdatePasswordHash(gomock.Any(), user.ID, gomock.Any()).Return(nil)
		env.mockRepo.EXPECT().RevokeAllRefreshTokens(gomock.Any(), user.ID).Return(nil)

		rec := postJSON(t, env.app, "/api/v1/change-password", dto.ChangePasswordInput{
			CurrentPassword: "CurrentPass1!",
			NewPassword:     "NewPassword1!",
			ConfirmPassword: "NewPassword1!",
		}, map[string]string{fiber.HeaderAuthorization: "Bearer valid-access"})

		assert.Equal(t, fiber.StatusOK, rec.Code)
	})
}
