package signup

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity carried into a session
type Identity interface {
	ID() string
	Email() string
	Role() string
}

// TokenService mints and validates session tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// AccountStore is the persistence contract the lifecycle depends on. The
// implementation must make Register's uniqueness check and ConsumeOTP's
// check-and-clear atomic.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Register(ctx context.Context, account *Account) (*Account, error)
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*Account, error)
}

// Notifier delivers a verification code to an address. Delivery is best
// effort; a failure after the account committed is reported, not fatal.
type Notifier interface {
	Deliver(ctx context.Context, address, code string, ttl time.Duration) error
}

// Config holds token issuance options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SIGNUP "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SIGNUP "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SIGNUP "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
