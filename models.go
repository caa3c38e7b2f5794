package signup

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the account's role, carried into session claims
type UserRole = string

const (
	// RoleStudent is the default role for self-registration
	RoleStudent UserRole = "STUDENT"
	// RoleAdmin is the administrative role
	RoleAdmin UserRole = "ADMIN"
)

// Account is the account model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Verified      bool       `bun:"is_verified,notnull,default:false" json:"is_verified"`
	OTPCode       string     `bun:"otp_code,nullzero" json:"-"`
	OTPExpiresAt  *time.Time `bun:"otp_expires_at,nullzero" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// OTPChallenge is the pending verification code together with its expiry.
// The row stores the two columns independently but application code only
// sees them through this composite, so one cannot be set without the other.
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the challenge is no longer redeemable at now.
func (c OTPChallenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// PendingOTP returns the outstanding challenge, or nil when the account
// has none. A row with only one of the two columns set is treated as
// having no redeemable challenge.
func (a *Account) PendingOTP() *OTPChallenge {
	if a.OTPCode == "" || a.OTPExpiresAt == nil {
		return nil
	}
	return &OTPChallenge{Code: a.OTPCode, ExpiresAt: *a.OTPExpiresAt}
}

// SetPendingOTP stores a challenge, keeping code and expiry in lockstep.
func (a *Account) SetPendingOTP(challenge OTPChallenge) *Account {
	expiry := challenge.ExpiresAt
	a.OTPCode = challenge.Code
	a.OTPExpiresAt = &expiry
	return a
}

// ClearPendingOTP removes both halves of the challenge.
func (a *Account) ClearPendingOTP() *Account {
	a.OTPCode = ""
	a.OTPExpiresAt = nil
	return a
}

func prepareAccountDefaults(account *Account) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.Role == "" {
		account.Role = RoleStudent
	}
}
