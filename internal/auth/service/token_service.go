package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/grzegorz-kurc/MyStorage/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grzegorz-kurc/MyStorage/internal/auth/domain"
	"github.com/grzegorz-kurc/MyStorage/pkg/constant"
)

// TokenGenerator mints and verifies the token pair: a signed JWT access token
// and an opaque refresh secret.
type TokenGenerator interface {
	Issue(user *domain.User) (*TokenPair, error)
	// VerifyAccessToken validates signature, algorithm, issuer and audience.
	// With ignoreExpiry an expired but otherwise authentic token still
	// yields its claims; every other check is always enforced.
	VerifyAccessToken(tokenString string, ignoreExpiry bool) (*JWTCustomClaims, error)
	// NewOpaqueSecret returns a fresh random secret and its storage digest.
	NewOpaqueSecret() (secret, hash string, err error)
	AccessTokenExpiry() time.Duration
	RefreshTokenExpiry() time.Duration
}

// TokenPair is the result of Issue. RefreshToken is the plaintext secret
// handed to the client; RefreshTokenHash is what gets persisted.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshTokenHash string
	RefreshExpiresAt time.Time
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TokenService struct {
	Issuer           string
	Audience         string
	SigningSecret    string
	AccessTokenLife  time.Duration
	RefreshTokenLife time.Duration
}

func NewTokenService(issuer, audience, signingSecret string, accessMinutes, refreshDays int) *TokenService {
	return &TokenService{
		Issuer:           issuer,
		Audience:         audience,
		SigningSecret:    signingSecret,
		AccessTokenLife:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenLife: time.Duration(refreshDays) * 24 * time.Hour,
	}
}

func (ts *TokenService) Issue(user *domain.User) (*TokenPair, error) {
	now := time.Now()

	claims := JWTCustomClaims{
		Email: user.Email,
		Name:  user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    ts.Issuer,
			Audience:  jwt.ClaimStrings{ts.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTokenLife)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.SigningSecret))
	if err != nil {
		return nil, err
	}

	secret, hash, err := ts.NewOpaqueSecret()
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(ts.AccessTokenLife),
		RefreshToken:     secret,
		RefreshTokenHash: hash,
		RefreshExpiresAt: now.Add(ts.RefreshTokenLife),
	}, nil
}

// NewOpaqueSecret draws the secret from crypto/rand and encodes it base64url
// so it survives inside a link. The stored form is a SHA-256 digest; a
// database read alone can never reproduce a usable secret.
func (ts *TokenService) NewOpaqueSecret() (string, string, error) {
	buf := make([]byte, constant.RefreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token secret: %w", err)
	}

	secret := base64.RawURLEncoding.EncodeToString(buf)

	return secret, HashSecret(secret), nil
}

// HashSecret returns the storage digest of an opaque secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))

	return hex.EncodeToString(sum[:])
}

func (ts *TokenService) AccessTokenExpiry() time.Duration {
	return ts.AccessTokenLife
}

func (ts *TokenService) RefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenLife
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string, ignoreExpiry bool) (*JWTCustomClaims, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.SigningSecret), nil
	}

	claims := &JWTCustomClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if ignoreExpiry {
		// Claim validation is skipped wholesale, so issuer and audience are
		// re-checked by hand below. Only expiry may actually be waived.
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else {
		opts = append(opts, jwt.WithIssuer(ts.Issuer), jwt.WithAudience(ts.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc, opts...)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if ignoreExpiry {
		if claims.Issuer != ts.Issuer {
			return nil, fmt.Errorf("invalid token issuer")
		}

		audienceOK := false
		for _, aud := range claims.Audience {
			if aud == ts.Audience {
				audienceOK = true

				break
			}
		}
		if !audienceOK {
			return nil, fmt.Errorf("invalid token audience")
		}
	}

	return claims, nil
}
