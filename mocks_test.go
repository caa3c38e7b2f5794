package signup_test

import (
	"context"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements signup.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*signup.Account, error) {
	args := m.Called(ctx, email)
	if acc := args.Get(0); acc != nil {
		return acc.(*signup.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) Register(ctx context.Context, account *signup.Account) (*signup.Account, error) {
	args := m.Called(ctx, account)
	if acc := args.Get(0); acc != nil {
		return acc.(*signup.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*signup.Account, error) {
	args := m.Called(ctx, email, code, now)
	if acc := args.Get(0); acc != nil {
		return acc.(*signup.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

// recorderNotifier captures delivered codes so tests can redeem them
type recorderNotifier struct {
	mu       sync.Mutex
	calls    int
	address  string
	code     string
	ttl      time.Duration
	failWith error
}

func (n *recorderNotifier) Deliver(ctx context.Context, address, code string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.address = address
	n.code = code
	n.ttl = ttl
	return n.failWith
}

// memStore is an in-memory AccountStore honoring the store contract:
// unique emails, single-shot OTP consume.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*signup.Account
}

func newMemStore() *memStore {
	return &memStore{accounts: map[string]*signup.Account{}}
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*signup.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	clone := *account
	return &clone, nil
}

func (s *memStore) Register(ctx context.Context, account *signup.Account) (*signup.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Email]; ok {
		return nil, signup.ErrDuplicateAccount
	}

	clone := *account
	s.accounts[account.Email] = &clone
	out := clone
	return &out, nil
}

func (s *memStore) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*signup.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[email]
	if !ok {
		return nil, signup.ErrUnknownAccount
	}

	challenge := account.PendingOTP()
	if challenge == nil || challenge.Code != code {
		return nil, signup.ErrInvalidOTP
	}
	if challenge.Expired(now) {
		return nil, signup.ErrOTPExpired
	}

	account.Verified = true
	account.ClearPendingOTP()
	clone := *account
	return &clone, nil
}
