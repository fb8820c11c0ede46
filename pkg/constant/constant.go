package constant

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
	// MaxPasswordLength matches the bcrypt input limit.
	MaxPasswordLength = 72

	// RefreshSecretBytes is the entropy of an opaque refresh secret.
	RefreshSecretBytes = 64

	// Action token purposes.
	PurposeConfirmEmail  = "confirm_email"
	PurposePasswordReset = "password_reset"
)
