package signup

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterMessage carries a registration request
type RegisterMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
	// UseHashid derives the account id deterministically from the email
	// instead of drawing a random uuid.
	UseHashid bool
}

func (e RegisterMessage) Type() string { return "account.register" }

// Lifecycle drives an account from registration through OTP verification
// to login. All state lives in the AccountStore; the Lifecycle itself is
// stateless and safe for concurrent use.
type Lifecycle struct {
	store    AccountStore
	tokens   TokenService
	notifier Notifier
	logger   Logger
	otpTTL   time.Duration
}

// NewLifecycle wires the lifecycle over a store and a token service.
// Without a notifier codes are generated but not delivered anywhere,
// which is only useful in tests.
func NewLifecycle(store AccountStore, tokens TokenService) *Lifecycle {
	return &Lifecycle{
		store:    store,
		tokens:   tokens,
		notifier: noopNotifier{},
		logger:   defLogger{},
		otpTTL:   DefaultOTPTTL,
	}
}

func (l *Lifecycle) WithNotifier(n Notifier) *Lifecycle {
	if n != nil {
		l.notifier = n
	}
	return l
}

func (l *Lifecycle) WithLogger(logger Logger) *Lifecycle {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithOTPTTL overrides the verification window.
func (l *Lifecycle) WithOTPTTL(ttl time.Duration) *Lifecycle {
	if ttl > 0 {
		l.otpTTL = ttl
	}
	return l
}

// Register creates an unverified account with a hashed password and a
// pending OTP, then delivers the code. The account commits before the
// notifier runs; a delivery failure is logged and does not unwind the
// registration.
func (l *Lifecycle) Register(ctx context.Context, msg RegisterMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during registration")
	default:
		return l.register(ctx, msg)
	}
}

func (l *Lifecycle) register(ctx context.Context, msg RegisterMessage) error {
	if err := validateRole(msg.Role); err != nil {
		return err
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	challenge, err := GenerateOTP(l.otpTTL)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
	}

	account := &Account{
		Name:         msg.Name,
		Email:        msg.Email,
		Phone:        msg.Phone,
		Role:         msg.Role,
		PasswordHash: hash,
	}
	account.SetPendingOTP(challenge)

	if msg.UseHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			account.ID = id
		}
	}

	if _, err := l.store.Register(ctx, account); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist account")
	}

	// The record is committed; from here delivery has its own failure
	// domain. The code value itself is never logged.
	if err := l.notifier.Deliver(ctx, account.Email, challenge.Code, l.otpTTL); err != nil {
		l.logger.Error("verification code delivery failed", "email", account.Email, "error", err)
	}

	return nil
}

// VerifyOTP consumes the pending code and flips the account to verified.
// The match and the clear happen in one atomic store operation, so a code
// redeems at most once even under concurrent attempts. A second call
// after success fails because the code is gone.
func (l *Lifecycle) VerifyOTP(ctx context.Context, email, code string) error {
	if _, err := l.store.ConsumeOTP(ctx, email, code, time.Now()); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify code")
	}
	return nil
}

// Login checks the password against a verified account and mints a
// session token. A missing account and a wrong password produce the same
// ErrInvalidCredentials.
func (l *Lifecycle) Login(ctx context.Context, email, password string) (string, error) {
	account, err := l.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	if !account.Verified {
		return "", ErrNotVerified
	}

	token, err := l.tokens.Generate(NewIdentityFromAccount(account))
	if err != nil {
		l.logger.Error("session issuance failed", "account_id", account.ID.String(), "error", err)
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	return token, nil
}

func validateRole(role string) error {
	switch role {
	case RoleStudent, RoleAdmin:
		return nil
	default:
		return goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
			WithTextCode("INVALID_ROLE").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": role})
	}
}
