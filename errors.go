package signup

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateAccount   = "duplicate_account"
	TextCodeUnknownAccount     = "unknown_account"
	TextCodeInvalidOTP         = "invalid_otp"
	TextCodeOTPExpired         = "otp_expired"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeNotVerified        = "account_not_verified"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenMalformed     = "token_malformed"
)

// ErrDuplicateAccount is returned when registering an email that already
// has an account. Registration never overwrites the existing record.
var ErrDuplicateAccount = errors.New("User already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(errors.CodeConflict)

// ErrUnknownAccount is returned when an OTP verification names an email
// with no account.
var ErrUnknownAccount = errors.New("unknown account", errors.CategoryAuth).
	WithTextCode(TextCodeUnknownAccount).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidOTP is returned when the submitted code does not match the
// pending one, or when no code is pending.
var ErrInvalidOTP = errors.New("invalid verification code", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidOTP).
	WithCode(errors.CodeUnauthorized)

// ErrOTPExpired is returned when the code matches but its window has
// passed. The account stays unverified.
var ErrOTPExpired = errors.New("verification code expired", errors.CategoryAuth).
	WithTextCode(TextCodeOTPExpired).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is returned on login for a missing account and for
// a wrong password alike, so callers cannot probe for account existence.
var ErrInvalidCredentials = errors.New("Invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNotVerified is returned on login when the password matches but the
// account has not confirmed its OTP yet.
var ErrNotVerified = errors.New("Email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a presented session token is past its
// expiry claim.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a presented session token cannot be
// parsed or fails signature validation.
var ErrTokenMalformed = errors.New("session token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty plaintext passwords before hashing
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// IsUniqueViolation detects a unique-constraint failure from the driver.
// sqlite and postgres phrase it differently; both are covered.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
