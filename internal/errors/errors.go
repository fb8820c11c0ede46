package errors

import (
	"errors"
)

// Sentinel errors returned by the auth service. The messages are exactly what
// callers may see: credential, token and state failures stay generic so a
// response never reveals whether an account exists or which check rejected it.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailAlreadyInUse   = errors.New("email already in use")
	ErrAccountInactive     = errors.New("account is invalid or inactive")
	ErrAccountNotFound     = errors.New("account not found")
	ErrEmailConfirmed      = errors.New("email is already confirmed")
	ErrRefreshTokenInvalid = errors.New("invalid or expired refresh token")
	ErrActionTokenInvalid  = errors.New("invalid or expired token")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrEmailDeliveryFailed = errors.New("failed to send email, please try again later")
)
